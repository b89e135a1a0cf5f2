package grpc

import (
	"fmt"
	"net"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthGateway exposes the gRPC health service as GET /healthz.
type HealthGateway struct {
	http.Handler
	conn *grpc.ClientConn
}

func NewHealthGateway(grpcAddress string) (*HealthGateway, error) {
	conn, err := grpc.NewClient(dialTarget(grpcAddress), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial grpc %s: %w", grpcAddress, err)
	}
	mux := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	return &HealthGateway{Handler: mux, conn: conn}, nil
}

func (g *HealthGateway) Close() error {
	return g.conn.Close()
}

// dialTarget turns a listen address such as ":50051" into something a client
// can dial.
func dialTarget(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
