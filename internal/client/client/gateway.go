package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/netx"
)

const (
	DefaultRequestTimeout      = 5 * time.Second
	DefaultPollInterval        = 2500 * time.Millisecond
	DefaultOfflinePollInterval = 10 * time.Second

	// maxDocumentSize bounds a single response body.
	maxDocumentSize = 8 << 20
)

// Gateway is the remote document store as seen by the engine.
type Gateway interface {
	// Get returns the raw JSON stored at path, or nil when the store is
	// unreachable, slow or answers with a non-success status.
	Get(ctx context.Context, path string) []byte
	// Set replaces the document at path and reports success.
	Set(ctx context.Context, path string, doc any) bool
	// Poll starts a change-detection loop for path. The returned stop
	// function cancels the loop and waits for it to exit; it is safe to call
	// more than once.
	Poll(path string, onChange func([]byte)) (stop func())
}

// GatewayOptions tune an HTTPGateway. Zero values select the defaults.
type GatewayOptions struct {
	RequestTimeout      time.Duration
	PollInterval        time.Duration
	OfflinePollInterval time.Duration
	Connectivity        Connectivity
	HTTPClient          *http.Client
	Logger              logging.Logger
}

// HTTPGateway speaks the realtime database REST dialect: GET and PUT on
// {base}/{path}.json. A missing document reads as the JSON literal null.
type HTTPGateway struct {
	baseURL string
	opts    GatewayOptions
	log     logging.Logger
}

var _ Gateway = (*HTTPGateway)(nil)

func NewHTTPGateway(baseURL string, opts GatewayOptions) (*HTTPGateway, error) {
	if _, err := netx.JoinURL(baseURL, "probe"); err != nil {
		return nil, err
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.OfflinePollInterval <= 0 {
		opts.OfflinePollInterval = DefaultOfflinePollInterval
	}
	if opts.Connectivity == nil {
		opts.Connectivity = AlwaysOnline{}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &HTTPGateway{
		baseURL: baseURL,
		opts:    opts,
		log:     opts.Logger.With("module", "gateway"),
	}, nil
}

func (g *HTTPGateway) Get(ctx context.Context, path string) []byte {
	if !g.opts.Connectivity.Online() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.RequestTimeout)
	defer cancel()

	body, err := g.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		g.log.Debug(ctx, "get failed", "path", path, "error", err)
		return nil
	}
	return body
}

func (g *HTTPGateway) Set(ctx context.Context, path string, doc any) bool {
	if !g.opts.Connectivity.Online() {
		return false
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		g.log.Error(ctx, "failed to encode document", "path", path, "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.RequestTimeout)
	defer cancel()

	if _, err := g.do(ctx, http.MethodPut, path, payload); err != nil {
		g.log.Debug(ctx, "set failed", "path", path, "error", err)
		return false
	}
	return true
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	target, err := netx.JoinURL(g.baseURL, path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return data, nil
}

// Poll observes path until stopped. While the connectivity signal reports
// offline the loop backs off to OfflinePollInterval without touching the
// network. The first successful observation is always reported.
func (g *HTTPGateway) Poll(path string, onChange func([]byte)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		g.pollLoop(ctx, path, onChange)
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}
}

func (g *HTTPGateway) pollLoop(ctx context.Context, path string, onChange func([]byte)) {
	var last []byte
	seen := false

	for {
		wait := g.opts.PollInterval

		if g.opts.Connectivity.Online() {
			if raw := g.Get(ctx, path); raw != nil && ctx.Err() == nil {
				if !seen || !bytes.Equal(raw, last) {
					seen = true
					last = raw
					onChange(raw)
				}
			}
		} else {
			wait = g.opts.OfflinePollInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
