package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysOnline(t *testing.T) {
	assert.True(t, AlwaysOnline{}.Online())
}

func TestWatcher_CheckSwitchesMode(t *testing.T) {
	var fail atomic.Bool
	p := ProberFunc(func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	})

	w := NewWatcher(p, time.Hour, logging.Nop())
	assert.True(t, w.Online(), "starts online")

	fail.Store(true)
	assert.Equal(t, ModeOffline, w.Check(context.Background()))
	assert.False(t, w.Online())

	fail.Store(false)
	assert.Equal(t, ModeOnline, w.Check(context.Background()))
	assert.True(t, w.Online())
}

func TestWatcher_RunProbesUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	p := ProberFunc(func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("down")
	})
	w := NewWatcher(p, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, ModeOffline, w.Mode())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHTTPProber(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	p := HTTPProber{URL: ts.URL}
	require.NoError(t, p.Probe(context.Background()))

	ts.Close()
	require.Error(t, p.Probe(context.Background()))
}
