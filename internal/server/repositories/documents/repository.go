// Package documents stores opaque JSON documents addressed by slash-separated
// paths such as "tours/TUR-AB23". Backends never interpret the body.
package documents

import "context"

// Repository is a passive key/value document store.
type Repository interface {
	// Get returns the stored body, or (nil, nil) when path is absent.
	Get(ctx context.Context, path string) ([]byte, error)
	// Put replaces the body at path.
	Put(ctx context.Context, path string, body []byte) error
	// Delete removes path. Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error
}
