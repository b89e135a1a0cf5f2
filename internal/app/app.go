// Package app assembles the server from configuration and runs it until its
// context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"task_tracker/internal/config"
	"task_tracker/internal/credentials"
	"task_tracker/internal/middleware"
	"task_tracker/internal/repository"
	"task_tracker/internal/session"
	grpcserver "task_tracker/internal/transport/grpc"
	"task_tracker/internal/transport/rest"
	"task_tracker/pkg/logger"
)

const (
	shutdownTimeout = 5 * time.Second
	probeInterval   = 15 * time.Second
	sweepInterval   = time.Minute
)

// sweeper drops expired entries from an in-process store.
type sweeper interface {
	Sweep() int
}

type App struct {
	cfg      *config.Config
	storage  repository.Storage
	redis    *redis.Client
	handler  http.Handler
	grpc     *grpcserver.Server
	gateway  *grpcserver.HealthGateway
	sweepers []sweeper
	closers  []func() error
}

// New opens every dependency the configuration asks for. Call Close when
// the app is no longer needed, whether or not Run was called.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	storage, closeStorage, err := OpenStorage(ctx, a.cfg.Storage)
	if err != nil {
		return err
	}
	a.storage = storage
	a.closers = append(a.closers, closeStorage)

	memorySessions := session.NewMemoryStore()
	memoryReplays := middleware.NewMemoryCache()
	var sessionStore session.Store = memorySessions
	var replayCache middleware.ResponseCache = memoryReplays
	a.sweepers = []sweeper{memorySessions, memoryReplays}
	probes := map[string]grpcserver.Probe{"storage": storageProbe(storage)}

	if a.cfg.Session.Store == config.SessionStoreRedis {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, a.redis.Close)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis %s: %w", a.cfg.Redis.Addr, err)
		}
		sessionStore = session.NewRedisStore(a.redis, session.DefaultKeyPrefix)
		replayCache = middleware.NewRedisCache(a.redis)
		a.sweepers = nil
		probes["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	sessions := session.NewManager(sessionStore, session.Options{
		CookieName: a.cfg.Session.CookieName,
		Secret:     a.cfg.Session.Secret,
		TTL:        a.cfg.Session.TTL,
		Secure:     a.cfg.Production,
	})

	credOpts := []credentials.Option{credentials.WithTTL(a.cfg.Credentials.TTL)}
	if !a.cfg.Credentials.Retain {
		credOpts = append(credOpts, credentials.Disabled())
	}

	a.grpc = grpcserver.NewServer(probes)
	a.gateway, err = grpcserver.NewHealthGateway(a.cfg.GRPC.Address)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.gateway.Close)

	a.handler = rest.NewRouter(
		rest.NewHandlers(storage, sessions, credentials.New(credOpts...)),
		rest.RouterOptions{
			AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
			ReplayCache:    replayCache,
			Health:         a.gateway,
		},
	)
	return nil
}

// Handler is the complete HTTP surface.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and gRPC until ctx is cancelled, then shuts both down
// within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", a.cfg.HTTP.Address)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", a.cfg.GRPC.Address)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Logger.Info("HTTP server listening", zap.String("address", httpLis.Addr().String()))
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := a.grpc.Serve(grpcLis); err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.grpc.RunProbes(gctx, probeInterval)
		return nil
	})
	g.Go(func() error {
		runSweeps(gctx, sweepInterval, a.sweepers)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			a.grpc.GracefulStop()
			close(stopped)
		}()
		err := srv.Shutdown(shutdownCtx)
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			a.grpc.Stop()
		}
		return err
	})
	return g.Wait()
}

// runSweeps reclaims expired sessions and replays held in memory. Redis
// expires its own keys, so there is nothing to do when it backs both.
func runSweeps(ctx context.Context, interval time.Duration, sweepers []sweeper) {
	if len(sweepers) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range sweepers {
				if n := s.Sweep(); n > 0 {
					logger.Logger.Debug("Swept expired entries", zap.Int("count", n))
				}
			}
		}
	}
}

// Close releases storage, Redis and the gateway connection in reverse order
// of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
