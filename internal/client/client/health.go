package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthProber asks the store server's gRPC health service whether it is
// serving.
type GRPCHealthProber struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
}

func NewGRPCHealthProber(addr, service string) (*GRPCHealthProber, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &GRPCHealthProber{conn: conn, client: healthpb.NewHealthClient(conn), service: service}, nil
}

func (p *GRPCHealthProber) Probe(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, resp.GetStatus())
	}
	return nil
}

func (p *GRPCHealthProber) Close() error {
	return p.conn.Close()
}
