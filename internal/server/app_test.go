package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/tourcheck/internal/server/config"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.ShutdownTimeout = time.Second
	return c
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestApp_ListenerFailureStopsApp(t *testing.T) {
	c := testConfig()
	c.GRPCAddr = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app kept running after the gRPC listener failed")
	}
}

func TestNewApp_UnknownStorage(t *testing.T) {
	c := testConfig()
	c.Storage = "floppy"

	_, err := NewApp(context.Background(), c)

	require.ErrorContains(t, err, "unknown storage")
}
