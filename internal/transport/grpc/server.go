// Package grpc serves the standard gRPC health service, backed by probes of
// the process's dependencies, together with server reflection.
package grpc

import (
	"context"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"task_tracker/internal/middleware"
	"task_tracker/pkg/logger"
)

// Probe reports whether one dependency is usable.
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

type Server struct {
	srv    *grpc.Server
	health *health.Server
	probes map[string]Probe
}

// NewServer registers the health service and reflection. Each probe becomes
// a named health service; the empty service name aggregates all of them.
func NewServer(probes map[string]Probe) *Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.TracingInterceptor))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	if probes == nil {
		probes = map[string]Probe{}
	}
	return &Server{srv: srv, health: hs, probes: probes}
}

func (s *Server) Serve(lis net.Listener) error {
	logger.Logger.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// CheckOnce runs every probe and publishes the results.
func (s *Server) CheckOnce(ctx context.Context) bool {
	names := make([]string, 0, len(s.probes))
	for name := range s.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := s.probes[name](pctx)
		cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			healthy = false
			st = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Logger.Warn("Health probe failed", zap.String("service", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, st)
	}
	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", overall)
	return healthy
}

// RunProbes re-checks every interval until ctx is done.
func (s *Server) RunProbes(ctx context.Context, interval time.Duration) {
	s.CheckOnce(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckOnce(ctx)
		}
	}
}

// GracefulStop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.Stop()
}
