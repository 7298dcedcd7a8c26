package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/shipref/internal/store"
	pkgerrors "github.com/agentstation/shipref/pkg/errors"
)

type fakeDB struct {
	execSQL  string
	execArgs []any
	tag      pgconn.CommandTag
	execErr  error
	queryErr error
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.queryErr
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return f.tag, f.execErr
}

func TestPatchUsesJSONBSet(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	c := New(db, "documents").Collection(store.Users)

	err := c.Patch(context.Background(), "u1", "ships", []map[string]any{{"name": "Gladius", "shipId": "x"}})
	require.NoError(t, err)

	assert.Contains(t, db.execSQL, `UPDATE "documents" SET doc = jsonb_set(doc, $3::text[], $4::jsonb, true)`)
	require.Len(t, db.execArgs, 4)
	assert.Equal(t, store.Users, db.execArgs[0])
	assert.Equal(t, "u1", db.execArgs[1])
	assert.Equal(t, []string{"ships"}, db.execArgs[2])
	assert.JSONEq(t, `[{"name":"Gladius","shipId":"x"}]`, db.execArgs[3].(string))
}

func TestPatchMissingDocument(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	err := New(db, "documents").Collection(store.Missions).Patch(context.Background(), "m9", "participants", nil)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestPatchAndListErrors(t *testing.T) {
	boom := errors.New("connection reset")
	db := &fakeDB{execErr: boom, queryErr: boom}
	c := New(db, "documents").Collection(store.Users)

	err := c.Patch(context.Background(), "u1", "ships", nil)
	assert.ErrorIs(t, err, boom)

	_, err = c.List(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, store.Users, c.Name())
}
