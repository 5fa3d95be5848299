// Package tours persists per-device tour snapshots.
package tours

import (
	"context"
)

// Row is a stored snapshot. Meta and Passengers hold raw JSON so that a
// corrupted value can be detected and replaced by the caller instead of
// failing the whole read.
type Row struct {
	Code       string
	Meta       []byte
	Passengers []byte
	TS         int64
	UpdatedAt  int64
}

type Repository interface {
	// Put inserts or replaces the snapshot for row.Code.
	Put(ctx context.Context, row Row) error
	// Get returns (nil, nil) when code is unknown.
	Get(ctx context.Context, code string) (*Row, error)
	// List returns every snapshot, most recently changed (by ts) first.
	List(ctx context.Context) ([]Row, error)
	Delete(ctx context.Context, code string) error
}
