// Package postgres provides a document backend on a single jsonb table:
//
//	CREATE TABLE documents (
//	    collection text  NOT NULL,
//	    id         text  NOT NULL,
//	    doc        jsonb NOT NULL,
//	    PRIMARY KEY (collection, id)
//	);
//
// Patches use jsonb_set so only the named top-level key is rewritten.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/shipref/internal/store"
	"github.com/agentstation/shipref/pkg/errors"
)

// DB is the subset of pgxpool.Pool used by the backend.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Backend serves collections from a postgres table.
type Backend struct {
	db    DB
	pool  *pgxpool.Pool
	table string
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL, table string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.WrapResource("open", "database", "", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapResource("ping", "database", "", err)
	}
	b := New(pool, table)
	b.pool = pool
	return b, nil
}

// New wraps an existing connection.
func New(db DB, table string) *Backend {
	return &Backend{db: db, table: table}
}

// Collection implements store.Backend.
func (b *Backend) Collection(name string) store.Collection {
	return &Collection{name: name, db: b.db, table: pgx.Identifier{b.table}.Sanitize()}
}

// Close releases the pool when the backend opened it.
func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

// Collection is one collection inside the documents table.
type Collection struct {
	name  string
	db    DB
	table string
}

// Name implements store.Collection.
func (c *Collection) Name() string {
	return c.name
}

// List implements store.Collection.
func (c *Collection) List(ctx context.Context) ([]store.Document, error) {
	rows, err := c.db.Query(ctx,
		fmt.Sprintf(`SELECT id, doc FROM %s WHERE collection = $1 ORDER BY id`, c.table),
		c.name)
	if err != nil {
		return nil, errors.WrapResource("list", "collection", c.name, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.WrapResource("scan", "collection", c.name, err)
		}
		doc := store.Document{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.WrapParse("json", c.name+"/"+id, err)
		}
		if doc.ID() == "" {
			doc["id"] = id
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "collection", c.name, err)
	}
	return docs, nil
}

// Patch implements store.Collection.
func (c *Collection) Patch(ctx context.Context, id, field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WrapValidation(field, err)
	}

	tag, err := c.db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = jsonb_set(doc, $3::text[], $4::jsonb, true)
		 WHERE collection = $1 AND id = $2`, c.table),
		c.name, id, []string{field}, string(data))
	if err != nil {
		return errors.WrapResource("patch", "document", c.name+"/"+id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError(c.name, id)
	}
	return nil
}
