package tours

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tourcheck/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, row Row) error {
	query := `INSERT INTO tours (code, meta, passengers, ts, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET meta = excluded.meta,
				passengers = excluded.passengers,
				ts = excluded.ts,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		row.Code, string(row.Meta), string(row.Passengers), row.TS, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert tour: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, code string) (*Row, error) {
	query := `SELECT code, meta, passengers, ts, updated_at FROM tours WHERE code = ?`
	row, err := scanRow(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	return row, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Row, error) {
	query := `SELECT code, meta, passengers, ts, updated_at FROM tours ORDER BY ts DESC, code`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select tours: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour row: %w", err)
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tour rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tours WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*Row, error) {
	var (
		row        Row
		meta       sql.NullString
		passengers sql.NullString
	)
	if err := s.Scan(&row.Code, &meta, &passengers, &row.TS, &row.UpdatedAt); err != nil {
		return nil, err
	}
	row.Meta = []byte(meta.String)
	row.Passengers = []byte(passengers.String)
	return &row, nil
}
