package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T) (addr string, hs *health.Server, stop func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	hs = health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()

	return lis.Addr().String(), hs, srv.Stop
}

func TestGRPCHealthProber(t *testing.T) {
	addr, hs, stop := startHealthServer(t)

	p, err := NewGRPCHealthProber(addr, "")
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	require.NoError(t, p.Probe(ctx))

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	require.ErrorIs(t, p.Probe(ctx), ErrNotServing)

	stop()
	short, cancelShort := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelShort()
	require.ErrorIs(t, p.Probe(short), ErrUnavailable)
}
