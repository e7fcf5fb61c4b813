package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no document is stored under the requested name.
var ErrNotFound = errors.New("source document not found")

// DocumentReader loads a named JSON document.
type DocumentReader interface {
	Get(ctx context.Context, name string) (json.RawMessage, error)
}

// DBSource reads a source stored as a JSON document in Postgres.
type DBSource struct {
	docs DocumentReader
	name string
}

// NewDBSource creates a source reading the named document.
func NewDBSource(docs DocumentReader, name string) *DBSource {
	return &DBSource{docs: docs, name: name}
}

func (s *DBSource) Name() string { return dbPrefix + s.name }

func (s *DBSource) Fetch(ctx context.Context) ([]byte, error) {
	doc, err := s.docs.Get(ctx, s.name)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PgRepository stores source documents in the dashboard_sources table.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL source repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Get(ctx context.Context, name string) (json.RawMessage, error) {
	var body json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT body FROM dashboard_sources WHERE name = $1`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("getting source %s: %w", name, err)
	}
	return body, nil
}

// Save stores a fixture document under name, replacing any previous version.
func (r *PgRepository) Save(ctx context.Context, name string, body json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO dashboard_sources (name, body)
		 VALUES ($1, $2::jsonb)
		 ON CONFLICT (name)
		 DO UPDATE SET body = $2::jsonb, updated_at = NOW()`,
		name, body)
	if err != nil {
		return fmt.Errorf("saving source %s: %w", name, err)
	}
	return nil
}

// List returns the names of all stored documents.
func (r *PgRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM dashboard_sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning source name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return names, nil
}
