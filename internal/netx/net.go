// Package netx holds small HTTP helpers shared by the client and server.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var ErrUnreachable = errors.New("endpoint unreachable")

// JoinURL appends a store path to base: JoinURL("https://x.io/", "tours/A")
// gives "https://x.io/tours/A.json". Query parameters on base (for example
// an auth token) are preserved.
func JoinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url: %q", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(path, "/") + ".json"
	return u.String(), nil
}

// Probe issues a HEAD request and reports ErrUnreachable on transport failure
// or a 5xx status. Any other answer means the host is reachable.
func Probe(ctx context.Context, c *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s", ErrUnreachable, resp.Status)
	}
	return nil
}
