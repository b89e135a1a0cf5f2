package grpc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T, probes map[string]Probe) (*Server, string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := NewServer(probes)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	return s, lis.Addr().String()
}

func TestHealthFollowsProbes(t *testing.T) {
	var storageDown atomic.Bool
	s, addr := startServer(t, map[string]Probe{
		"storage": func(context.Context) error {
			if storageDown.Load() {
				return errors.New("down")
			}
			return nil
		},
	})
	require.True(t, s.CheckOnce(context.Background()))

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.Status)

	storageDown.Store(true)
	require.False(t, s.CheckOnce(context.Background()))
	res, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "storage"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, res.Status)
}

func TestHealthGateway(t *testing.T) {
	var down atomic.Bool
	s, addr := startServer(t, map[string]Probe{
		"storage": func(context.Context) error {
			if down.Load() {
				return errors.New("down")
			}
			return nil
		},
	})
	s.CheckOnce(context.Background())

	gw, err := NewHealthGateway(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })

	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SERVING")

	down.Store(true)
	s.CheckOnce(context.Background())
	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDialTarget(t *testing.T) {
	assert.Equal(t, "localhost:50051", dialTarget(":50051"))
	assert.Equal(t, "localhost:50051", dialTarget("0.0.0.0:50051"))
	assert.Equal(t, "10.0.0.1:9000", dialTarget("10.0.0.1:9000"))
}
