// Package telemetry sets up logging and, when an OTLP endpoint is
// configured, trace and log export.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// EndpointEnv turns OTLP export on when set.
const EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

type Options struct {
	Service string
	Level   slog.Level
	Output  io.Writer // defaults to stderr
	// Endpoint overrides EndpointEnv and is handed to both exporters,
	// which read the rest of their settings from the standard OTEL_*
	// variables.
	Endpoint string
}

// Setup builds the process logger, installs it as the slog default and
// returns a shutdown func that flushes the exporters.
func Setup(ctx context.Context, opts Options) (*slog.Logger, func(context.Context) error, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Endpoint == "" {
		opts.Endpoint = os.Getenv(EndpointEnv)
	}

	var handler slog.Handler = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{Level: opts.Level})
	shutdown := func(context.Context) error { return nil }

	if opts.Endpoint != "" {
		res := resource.NewSchemaless(attribute.String("service.name", opts.Service))

		traceOpts, logOpts := exporterOptions(opts.Endpoint)
		traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)

		logExp, err := otlploggrpc.New(ctx, logOpts...)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, nil, fmt.Errorf("log exporter: %w", err)
		}
		lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)), sdklog.WithResource(res))

		handler = Tee(handler, otelslog.NewHandler(opts.Service, otelslog.WithLoggerProvider(lp)))
		shutdown = func(ctx context.Context) error {
			return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx))
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, shutdown, nil
}

// exporterOptions points both exporters at endpoint. A value with a scheme
// is a URL, anything else is host:port.
func exporterOptions(endpoint string) ([]otlptracegrpc.Option, []otlploggrpc.Option) {
	if isURL(endpoint) {
		return []otlptracegrpc.Option{otlptracegrpc.WithEndpointURL(endpoint)},
			[]otlploggrpc.Option{otlploggrpc.WithEndpointURL(endpoint)}
	}
	return []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)},
		[]otlploggrpc.Option{otlploggrpc.WithEndpoint(endpoint)}
}

func isURL(endpoint string) bool {
	u, err := url.Parse(endpoint)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}
