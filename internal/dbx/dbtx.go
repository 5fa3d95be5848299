// Package dbx holds the database handle shared by the SQL repositories of
// the client (SQLite snapshots) and the server (postgres documents).
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is what a repository needs to run its queries. *sql.DB and *sql.Tx
// both satisfy it, so one repository type works inside and outside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in a transaction on db. It commits when fn returns nil and
// rolls back when fn fails or panics; the panic is re-raised.
//
// Forgetting a tour on the device drops its snapshot and the active marker
// together:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if _, err := tx.ExecContext(ctx, `DELETE FROM tours WHERE code = ?`, code); err != nil {
//	        return err
//	    }
//	    _, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE key = 'active_code' AND value = ?`, code)
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
