package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tourcheck/internal/dbx"
)

// PostgresRepository implements document storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, path string) ([]byte, error) {
	query := `SELECT body FROM documents WHERE path = $1`

	var body []byte
	err := r.db.QueryRowContext(ctx, query, path).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return body, nil
}

func (r *PostgresRepository) Put(ctx context.Context, path string, body []byte) error {
	query := `
		INSERT INTO documents (path, body, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path)
		DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.db.ExecContext(ctx, query, path, body); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, path string) error {
	query := `DELETE FROM documents WHERE path = $1`
	if _, err := r.db.ExecContext(ctx, query, path); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
