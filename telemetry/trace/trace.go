//
// Copyright (c) 2026 Oracle and/or its affiliates.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
// https://oss.oracle.com/licenses/upl.
//

// Package trace provides distributed tracing for conversations. It
// integrates with OpenTelemetry; until Start is called the global tracer is
// a no-op and instrumented code runs without overhead.
package trace

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	itelemetry "github.com/oracle/wayflow-sub000/internal/telemetry"
)

// TracerProvider is the global tracer provider.
var TracerProvider trace.TracerProvider = noop.NewTracerProvider()

// Tracer is the global tracer instance.
var Tracer trace.Tracer = TracerProvider.Tracer("")

// Start enables trace collection with optional configuration.
// The environment variables described below can be used for endpoint
// configuration.
//
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_TRACES_ENDPOINT (default: "localhost:4317")
// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.tracesEndpoint == "" {
		options.tracesEndpoint = tracesEndpoint(options.protocol)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(options.serviceNamespace),
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var shutdownTracerProvider func(context.Context) error
	switch options.protocol {
	case itelemetry.ProtocolHTTP:
		shutdownTracerProvider, err = initHTTPTracerProvider(ctx, res, options)
	default:
		shutdownTracerProvider, err = initGRPCTracerProvider(ctx, res, options)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	Tracer = otel.Tracer(itelemetry.InstrumentName)
	return func() error {
		if err := shutdownTracerProvider(ctx); err != nil {
			return fmt.Errorf("failed to shutdown TracerProvider: %w", err)
		}
		return nil
	}, nil
}

// Option is a function that configures tracer options.
type Option func(*options)

type options struct {
	tracesEndpoint    string
	tracesEndpointURL string
	serviceName       string
	serviceVersion    string
	serviceNamespace  string
	protocol          string
	headers           map[string]string
}

// WithEndpoint sets the traces endpoint (host and port) the exporter will
// connect to. The provided endpoint should resemble "example.com:4317" (no
// scheme or path). If the OTEL_EXPORTER_OTLP_ENDPOINT or
// OTEL_EXPORTER_OTLP_TRACES_ENDPOINT environment variable is set and this
// option is not passed, that variable value will be used.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.tracesEndpoint = endpoint
	}
}

// WithEndpointURL sets the target endpoint URL (scheme, host, port, path)
// the exporter will connect to. If both this option and WithEndpoint are
// used, the last used option takes precedence. This option has no effect
// when the protocol is gRPC with a pre-established connection.
func WithEndpointURL(endpointURL string) Option {
	return func(opts *options) {
		opts.tracesEndpointURL = endpointURL
	}
}

// WithProtocol sets the protocol to use for traces export.
// Supported protocols are "grpc" (default) and "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithHeaders sets the headers to include in the trace requests.
func WithHeaders(headers map[string]string) Option {
	return func(opts *options) {
		opts.headers = headers
	}
}

func tracesEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch protocol {
	case itelemetry.ProtocolHTTP:
		// HTTP endpoint base URL; otlptracehttp adds /v1/traces itself.
		return "localhost:4318"
	default:
		return "localhost:4317"
	}
}

// parseEndpointURL parses a full URL and returns the host:port and path
// components. For example, "http://localhost:3000/api/otel" returns
// "localhost:3000" and "/api/otel". If no scheme is provided, "http://" is
// assumed.
func parseEndpointURL(endpointURL string) (endpoint, urlPath string, err error) {
	originalURL := endpointURL
	if !strings.HasPrefix(endpointURL, "http://") && !strings.HasPrefix(endpointURL, "https://") {
		endpointURL = "http://" + endpointURL
	}
	u, err := url.Parse(endpointURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse URL %q: %w", originalURL, err)
	}
	endpoint = u.Host
	if endpoint == "" {
		return "", "", fmt.Errorf("no host found in URL %q", originalURL)
	}
	urlPath = u.Path
	if urlPath == "" {
		urlPath = "/"
	}
	return endpoint, urlPath, nil
}

func initGRPCTracerProvider(ctx context.Context, res *resource.Resource, opts *options) (
	func(context.Context) error, error) {
	tracesConn, err := itelemetry.NewGRPCConn(opts.tracesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize traces connection: %w", err)
	}
	otelOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithGRPCConn(tracesConn),
		otlptracegrpc.WithEndpoint(opts.tracesEndpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithHeaders(opts.headers),
	}
	if opts.tracesEndpointURL != "" {
		otelOpts = append(otelOpts, otlptracegrpc.WithEndpoint(opts.tracesEndpointURL))
	}
	traceExporter, err := otlptracegrpc.New(ctx, otelOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return setupTracerProvider(res, traceExporter), nil
}

func initHTTPTracerProvider(ctx context.Context, res *resource.Resource, opts *options) (
	func(context.Context) error, error) {
	otelOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(opts.tracesEndpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithHeaders(opts.headers),
	}
	if opts.tracesEndpointURL != "" {
		endpoint, urlPath, err := parseEndpointURL(opts.tracesEndpointURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse endpoint URL %q: %w", opts.tracesEndpointURL, err)
		}
		otelOpts = append(otelOpts,
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithURLPath(urlPath),
		)
	}
	traceExporter, err := otlptracehttp.New(ctx, otelOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP trace exporter: %w", err)
	}
	return setupTracerProvider(res, traceExporter), nil
}

func setupTracerProvider(res *resource.Resource, traceExporter sdktrace.SpanExporter) func(context.Context) error {
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tracerProvider.Shutdown
}
