package client

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/netx"
)

// Connectivity is a cheap, non-blocking reachability signal.
type Connectivity interface {
	Online() bool
}

// AlwaysOnline is used when no probe is configured; the gateway then learns
// about outages only from failed requests.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool { return true }

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Prober performs one reachability check.
type Prober interface {
	Probe(ctx context.Context) error
}

type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// Watcher keeps a Mode up to date by probing on a ticker. It starts online so
// the first requests are not skipped before the first probe completes.
type Watcher struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	online atomic.Bool
	mu     sync.Mutex
	mode   Mode
}

var _ Connectivity = (*Watcher)(nil)

func NewWatcher(p Prober, interval time.Duration, log logging.Logger) *Watcher {
	if log == nil {
		log = logging.Nop()
	}
	w := &Watcher{
		prober:   p,
		interval: interval,
		timeout:  3 * time.Second,
		log:      log.With("module", "connectivity"),
		mode:     ModeOnline,
	}
	w.online.Store(true)
	return w
}

func (w *Watcher) Online() bool { return w.online.Load() }

func (w *Watcher) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

func (w *Watcher) setMode(ctx context.Context, mode Mode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != mode {
		w.mode = mode
		w.online.Store(mode == ModeOnline)
		w.log.Info(ctx, "switched mode", "mode", string(mode))
	}
}

// Check runs a single probe and updates the mode.
func (w *Watcher) Check(ctx context.Context) Mode {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.prober.Probe(pctx)
	cancel()

	if err != nil {
		w.log.Debug(ctx, "probe failed", "error", err)
		w.setMode(ctx, ModeOffline)
	} else {
		w.setMode(ctx, ModeOnline)
	}
	return w.Mode()
}

// Run probes immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// HTTPProber checks that the store's host answers HTTP.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p HTTPProber) Probe(ctx context.Context) error {
	c := p.Client
	if c == nil {
		c = http.DefaultClient
	}
	return netx.Probe(ctx, c, p.URL)
}
