package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/shipref/pkg/errors"
	"github.com/agentstation/shipref/pkg/ships"
)

// Querier is the subset of pgxpool.Pool the postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the catalog from a table with id, name and slug columns.
type PostgresSource struct {
	db    Querier
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource wraps an existing connection.
func NewPostgresSource(db Querier, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

// OpenPostgresSource connects to databaseURL. The pool is released by Close.
func OpenPostgresSource(ctx context.Context, databaseURL, table string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.WrapResource("open", "database", "", err)
	}
	s := NewPostgresSource(pool, table)
	s.pool = pool
	return s, nil
}

// Name implements ships.Source.
func (s *PostgresSource) Name() string {
	return KindPostgres + ":" + s.table
}

// Ships implements ships.Source. Rows are ordered by name then id so the
// contains pass sees a stable order between runs.
func (s *PostgresSource) Ships(ctx context.Context) ([]ships.ShipRef, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(
		`SELECT id::text, name, slug FROM %s ORDER BY name, id`,
		pgx.Identifier{s.table}.Sanitize()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ships.ShipRef
	for rows.Next() {
		var ref ships.ShipRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Slug); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Close releases the pool opened by OpenPostgresSource.
func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
