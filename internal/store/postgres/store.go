// Package postgres stores each franchise aggregate as one JSONB document row.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"franchise-service/internal/domain"
	"franchise-service/internal/models"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS franchises (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	upsertSQL = `INSERT INTO franchises (id, name, document, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, document = EXCLUDED.document, updated_at = now()`

	findByIDSQL = `SELECT document FROM franchises WHERE id = $1`
	findAllSQL  = `SELECT document FROM franchises ORDER BY id`
	deleteSQL   = `DELETE FROM franchises WHERE id = $1`
	existsSQL   = `SELECT EXISTS(SELECT 1 FROM franchises WHERE id = $1)`
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the franchises table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create franchises table: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, franchise *domain.Franchise) (*domain.Franchise, error) {
	doc, err := json.Marshal(models.FranchiseFromDomain(franchise))
	if err != nil {
		return nil, fmt.Errorf("encode franchise %s: %w", franchise.ID, err)
	}

	if _, err := s.db.ExecContext(ctx, upsertSQL, franchise.ID, franchise.Name, doc); err != nil {
		return nil, fmt.Errorf("upsert franchise %s: %w", franchise.ID, err)
	}
	return franchise.Clone(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Franchise, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, findByIDSQL, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFranchiseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select franchise %s: %w", id, err)
	}
	return decode(doc)
}

// FindAll streams rows as they are read; the cursor is closed when the caller
// stops ranging or the rows run out.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[*domain.Franchise, error] {
	return func(yield func(*domain.Franchise, error) bool) {
		rows, err := s.db.QueryContext(ctx, findAllSQL)
		if err != nil {
			yield(nil, fmt.Errorf("select franchises: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var doc []byte
			if err := rows.Scan(&doc); err != nil {
				yield(nil, fmt.Errorf("scan franchise: %w", err))
				return
			}
			f, err := decode(doc)
			if !yield(f, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate franchises: %w", err))
		}
	}
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteSQL, id); err != nil {
		return fmt.Errorf("delete franchise %s: %w", id, err)
	}
	return nil
}

func (s *Store) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, existsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check franchise %s: %w", id, err)
	}
	return exists, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func decode(doc []byte) (*domain.Franchise, error) {
	var m models.Franchise
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("decode franchise document: %w", err)
	}
	return m.ToDomain(), nil
}

var _ domain.FranchiseStore = (*Store)(nil)
