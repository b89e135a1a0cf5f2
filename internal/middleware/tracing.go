package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelCodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"task_tracker/pkg/logger"
)

const tracerName = "task_tracker"

type TracingOptions struct {
	Endpoint    string
	ServiceName string
	Environment string
}

// InitTracer installs the global tracer provider and propagators. Spans are
// exported over OTLP/gRPC only when an endpoint is configured.
func InitTracer(ctx context.Context, opts TracingOptions) (*sdktrace.TracerProvider, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = tracerName
	}
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			attribute.String("environment", opts.Environment),
		)),
	}
	if opts.Endpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(10),
		))
	}
	tp := sdktrace.NewTracerProvider(providerOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Logger.Info("Tracer provider initialized",
		zap.String("service", opts.ServiceName),
		zap.Bool("exporting", opts.Endpoint != ""),
	)
	return tp, nil
}

// Tracing starts a server span per HTTP request, continuing any trace the
// caller propagated in its headers.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		route := routeTemplate(r)
		ctx, span := otel.Tracer(tracerName).Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.URLPathKey.String(r.URL.Path),
			))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		code := rec.code()
		span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(code))
		if code >= http.StatusInternalServerError {
			span.SetStatus(otelCodes.Error, http.StatusText(code))
		} else {
			span.SetStatus(otelCodes.Ok, "")
		}
	})
}

// routeTemplate names the matched mux route, e.g. /api/tasks/{id}, so span
// names stay free of ids. Requests outside a router keep their raw path.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// TracingInterceptor is the gRPC counterpart of Tracing.
func TracingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx = extractTraceContext(ctx)

	ctx, span := otel.Tracer(tracerName).Start(ctx, info.FullMethod,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.RPCSystemGRPC,
			semconv.RPCMethodKey.String(info.FullMethod),
		))
	defer span.End()

	startTime := time.Now()
	res, err := handler(ctx, req)

	statusCode := codes.OK
	if err != nil {
		statusCode = status.Code(err)
		span.SetStatus(otelCodes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(otelCodes.Ok, "OK")
	}
	span.SetAttributes(semconv.RPCGRPCStatusCodeKey.Int64(int64(statusCode)))

	logger.Logger.Debug("RPC completed",
		zap.String("method", info.FullMethod),
		zap.Duration("duration", time.Since(startTime)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("status", statusCode.String()),
		zap.Error(err),
	)
	return res, err
}

func extractTraceContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
}

// metadataCarrier adapts gRPC metadata to a propagation.TextMapCarrier.
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
