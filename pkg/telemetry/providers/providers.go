// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package providers builds the tracer and meter providers from a set of
// options and owns their shutdown.
package providers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/hello-otel/pkg/certs"
	thverrors "github.com/stacklok/hello-otel/pkg/errors"
	"github.com/stacklok/hello-otel/pkg/logger"
	"github.com/stacklok/hello-otel/pkg/telemetry/providers/otlp"
	"github.com/stacklok/hello-otel/pkg/telemetry/providers/prometheus"
)

// shutdownTimeout bounds the final flush of both providers.
const shutdownTimeout = 5 * time.Second

// Config holds the telemetry configuration for all providers.
type Config struct {
	// Service information
	ServiceName        string               // ServiceName identifies the service for telemetry data
	ServiceVersion     string               // ServiceVersion identifies the service version for telemetry data
	ResourceAttributes []attribute.KeyValue // ResourceAttributes are extra attributes on the resource

	// OTLP configuration
	TracesEndpoint  string // TracesEndpoint is the full URL spans are posted to
	MetricsEndpoint string // MetricsEndpoint is the full URL metrics are posted to
	CACertFile      string // CACertFile verifies the backend certificate
	ClientCertFile  string // ClientCertFile is presented to the backend
	ClientKeyFile   string // ClientKeyFile is the key for ClientCertFile

	// Pipeline tuning
	SamplingRate         float64       // SamplingRate controls root span sampling (0.0 to 1.0)
	BatchScheduleDelay   time.Duration // BatchScheduleDelay is the batch span processor timeout
	BatchMaxQueueSize    int           // BatchMaxQueueSize bounds the span queue
	MetricExportInterval time.Duration // MetricExportInterval is the periodic reader interval

	// Prometheus configuration
	EnablePrometheusMetricsPath bool // EnablePrometheusMetricsPath adds a pull reader served at /metrics

	// Overrides replace the OTLP pipelines, mostly for tests
	spanProcessor sdktrace.SpanProcessor
	metricReader  sdkmetric.Reader
}

// ProviderOption is an option type used to configure the telemetry providers
type ProviderOption func(*Config) error

// WithServiceName sets the service name
func WithServiceName(serviceName string) ProviderOption {
	return func(config *Config) error {
		if serviceName == "" {
			return thverrors.NewInvalidArgumentError("service name cannot be empty", nil)
		}
		config.ServiceName = serviceName
		return nil
	}
}

// WithServiceVersion sets the service version
func WithServiceVersion(serviceVersion string) ProviderOption {
	return func(config *Config) error {
		config.ServiceVersion = serviceVersion
		return nil
	}
}

// WithResourceAttributes appends attributes to the resource descriptor
func WithResourceAttributes(attrs ...attribute.KeyValue) ProviderOption {
	return func(config *Config) error {
		config.ResourceAttributes = append(config.ResourceAttributes, attrs...)
		return nil
	}
}

// WithTracesEndpoint sets the OTLP traces URL
func WithTracesEndpoint(endpoint string) ProviderOption {
	return func(config *Config) error {
		config.TracesEndpoint = endpoint
		return nil
	}
}

// WithMetricsEndpoint sets the OTLP metrics URL
func WithMetricsEndpoint(endpoint string) ProviderOption {
	return func(config *Config) error {
		config.MetricsEndpoint = endpoint
		return nil
	}
}

// WithMutualTLS sets the CA bundle and client key pair used by both exporters
func WithMutualTLS(caCertFile, clientCertFile, clientKeyFile string) ProviderOption {
	return func(config *Config) error {
		config.CACertFile = caCertFile
		config.ClientCertFile = clientCertFile
		config.ClientKeyFile = clientKeyFile
		return nil
	}
}

// WithSamplingRate sets the sampling rate
func WithSamplingRate(samplingRate float64) ProviderOption {
	return func(config *Config) error {
		if samplingRate < 0 || samplingRate > 1 {
			return thverrors.NewInvalidArgumentError(
				fmt.Sprintf("sampling rate %v must be between 0.0 and 1.0", samplingRate), nil)
		}
		config.SamplingRate = samplingRate
		return nil
	}
}

// WithBatching sets the batch span processor timeout and queue bound
func WithBatching(scheduleDelay time.Duration, maxQueueSize int) ProviderOption {
	return func(config *Config) error {
		if maxQueueSize > otlp.MaxQueueSizeLimit {
			return thverrors.NewInvalidArgumentError(
				fmt.Sprintf("span queue size %d exceeds the limit of %d", maxQueueSize, otlp.MaxQueueSizeLimit), nil)
		}
		config.BatchScheduleDelay = scheduleDelay
		config.BatchMaxQueueSize = maxQueueSize
		return nil
	}
}

// WithMetricExportInterval sets the periodic reader interval
func WithMetricExportInterval(interval time.Duration) ProviderOption {
	return func(config *Config) error {
		config.MetricExportInterval = interval
		return nil
	}
}

// WithEnablePrometheusMetricsPath sets the enable prometheus metrics path flag
func WithEnablePrometheusMetricsPath(enablePrometheusMetricsPath bool) ProviderOption {
	return func(config *Config) error {
		config.EnablePrometheusMetricsPath = enablePrometheusMetricsPath
		return nil
	}
}

// WithSpanProcessor replaces the OTLP batch span processor
func WithSpanProcessor(processor sdktrace.SpanProcessor) ProviderOption {
	return func(config *Config) error {
		config.spanProcessor = processor
		return nil
	}
}

// WithMetricReader replaces the OTLP periodic metric reader
func WithMetricReader(reader sdkmetric.Reader) ProviderOption {
	return func(config *Config) error {
		config.metricReader = reader
		return nil
	}
}

// CompositeProvider combines telemetry providers into a single interface.
// It manages tracer providers, meter providers, Prometheus handlers, and cleanup.
type CompositeProvider struct {
	tracerProvider    trace.TracerProvider          // tracerProvider provides distributed tracing
	meterProvider     metric.MeterProvider          // meterProvider provides metrics collection
	prometheusHandler http.Handler                  // prometheusHandler serves Prometheus metrics
	shutdownFuncs     []func(context.Context) error // shutdownFuncs clean up resources on shutdown
}

// NewCompositeProvider creates the providers described by options. Exporter
// construction does not contact the backend; failures are limited to bad
// TLS material and malformed endpoints, reported as exporter initialization
// errors.
func NewCompositeProvider(
	ctx context.Context,
	options ...ProviderOption,
) (*CompositeProvider, error) {
	config := Config{SamplingRate: 1.0}
	for _, option := range options {
		if err := option(&config); err != nil {
			return nil, err
		}
	}
	if config.ServiceName == "" {
		return nil, thverrors.NewInvalidArgumentError("service name is required", nil)
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	// Both endpoints are checked before any provider is built.
	if config.metricReader == nil {
		if err := otlp.ValidateEndpoint(config.MetricsEndpoint); err != nil {
			return nil, thverrors.NewExporterInitializationError("invalid metrics endpoint", err)
		}
	}
	if config.spanProcessor == nil {
		if err := otlp.ValidateEndpoint(config.TracesEndpoint); err != nil {
			return nil, thverrors.NewExporterInitializationError("invalid traces endpoint", err)
		}
	}

	var tlsConfig *tls.Config
	if config.spanProcessor == nil || config.metricReader == nil {
		tlsConfig, err = certs.NewClientTLSConfig(config.CACertFile, config.ClientCertFile, config.ClientKeyFile)
		if err != nil {
			return nil, thverrors.NewExporterInitializationError("failed to load mutual TLS material", err)
		}
	}

	composite := &CompositeProvider{}

	if err := createMetricsProvider(ctx, config, tlsConfig, composite, res); err != nil {
		return nil, err
	}

	if err := createTracingProvider(ctx, config, tlsConfig, composite, res); err != nil {
		_ = composite.Shutdown(ctx)
		return nil, err
	}

	logger.Infof("Telemetry providers created successfully")
	return composite, nil
}

func newResource(ctx context.Context, config Config) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{}, config.ResourceAttributes...)
	// Service identity wins over user supplied attributes with the same key.
	attrs = append(attrs,
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceInstanceID(uuid.NewString()),
	)
	if config.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(config.ServiceVersion))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource with service name '%s' and version '%s': %w",
			config.ServiceName, config.ServiceVersion, err)
	}
	return res, nil
}

// createMetricsProvider creates the meter provider for the composite provider
func createMetricsProvider(
	ctx context.Context,
	config Config,
	tlsConfig *tls.Config,
	composite *CompositeProvider,
	res *resource.Resource,
) error {
	reader := config.metricReader
	if reader == nil {
		var err error
		reader, err = otlp.NewMetricReader(ctx, otlp.Config{
			Endpoint:       config.MetricsEndpoint,
			TLSConfig:      tlsConfig,
			ExportInterval: config.MetricExportInterval,
		})
		if err != nil {
			return thverrors.NewExporterInitializationError(
				fmt.Sprintf("failed to create metric exporter for %s", config.MetricsEndpoint), err)
		}
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	}

	if config.EnablePrometheusMetricsPath {
		promReader, handler, err := prometheus.NewReader(prometheus.Config{
			EnableMetricsPath:     true,
			IncludeRuntimeMetrics: true,
		})
		if err != nil {
			_ = reader.Shutdown(ctx)
			return thverrors.NewExporterInitializationError("failed to create prometheus reader", err)
		}
		opts = append(opts, sdkmetric.WithReader(promReader))
		composite.prometheusHandler = handler
	}

	meterProvider := sdkmetric.NewMeterProvider(opts...)
	composite.meterProvider = meterProvider
	composite.shutdownFuncs = append(composite.shutdownFuncs, meterProvider.Shutdown)
	return nil
}

// createTracingProvider creates the tracer provider for the composite provider
func createTracingProvider(
	ctx context.Context,
	config Config,
	tlsConfig *tls.Config,
	composite *CompositeProvider,
	res *resource.Resource,
) error {
	processor := config.spanProcessor
	if processor == nil {
		var err error
		processor, err = otlp.NewSpanProcessor(ctx, otlp.Config{
			Endpoint:           config.TracesEndpoint,
			TLSConfig:          tlsConfig,
			BatchScheduleDelay: config.BatchScheduleDelay,
			MaxQueueSize:       config.BatchMaxQueueSize,
		})
		if err != nil {
			return thverrors.NewExporterInitializationError(
				fmt.Sprintf("failed to create trace exporter for %s", config.TracesEndpoint), err)
		}
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SamplingRate))),
	)

	composite.tracerProvider = tracerProvider
	composite.shutdownFuncs = append(composite.shutdownFuncs, tracerProvider.Shutdown)
	return nil
}

// TracerProvider returns the tracer provider
func (p *CompositeProvider) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the meter provider
func (p *CompositeProvider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// PrometheusHandler returns the Prometheus metrics handler if configured
func (p *CompositeProvider) PrometheusHandler() http.Handler {
	return p.prometheusHandler
}

// Shutdown flushes and shuts down all providers. Every provider is shut down
// even when an earlier one fails.
func (p *CompositeProvider) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	for i, shutdown := range p.shutdownFuncs {
		if err := shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("provider %d shutdown failed: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
