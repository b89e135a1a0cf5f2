package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"task_tracker/internal/app"
	"task_tracker/internal/middleware"
	"task_tracker/pkg/logger"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Logger.Info("Starting task_tracker", zap.Stringer("config", cfg))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	environment := "development"
	if cfg.Production {
		environment = "production"
	}
	tp, err := middleware.InitTracer(ctx, middleware.TracingOptions{
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			logger.Logger.Error("Failed to flush tracer", zap.Error(err))
		}
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Logger.Error("Failed to release resources", zap.Error(err))
		}
	}()
	return a.Run(ctx)
}
