package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tourcheck/internal/client/migrations"
	"github.com/dmitrijs2005/tourcheck/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tourcheck/internal/client/repositories/tours"
	"github.com/dmitrijs2005/tourcheck/internal/dbx"
	"github.com/dmitrijs2005/tourcheck/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type Repositories struct {
	Metadata metadata.Repository
	Tours    tours.Repository

	db *sql.DB
}

func NewRepositories(db *sql.DB) *Repositories {
	r := bind(db)
	r.db = db
	return r
}

func bind(db dbx.DBTX) *Repositories {
	return &Repositories{
		Metadata: metadata.NewSQLiteRepository(db),
		Tours:    tours.NewSQLiteRepository(db),
	}
}

// WithTx runs fn with repositories bound to one transaction. Repositories
// that are already transactional run fn directly.
func (r *Repositories) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Repositories) error) error {
	if r.db == nil {
		return fn(ctx, r)
	}
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
}

// gooseUpContext is a seam for tests.
var gooseUpContext = goose.UpContext

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return gooseUpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite file at dsn and brings
// its schema up to date.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; avoids SQLITE_BUSY between the REPL and sync goroutines
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
