// Package metadata stores small device-local settings as key/value pairs.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyActiveCode = "active_code"
	KeyHidden     = "hidden"
	KeyListNames  = "list_names"
)

// Repository returns (nil, nil) from Get when the key is absent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
