// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package telemetry sets up OpenTelemetry tracing and metrics for
// hello-otel, exporting over OTLP/HTTP with mutual TLS.
package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/hello-otel/pkg/config"
	thverrors "github.com/stacklok/hello-otel/pkg/errors"
	"github.com/stacklok/hello-otel/pkg/logger"
	"github.com/stacklok/hello-otel/pkg/telemetry/providers"
	"github.com/stacklok/hello-otel/pkg/versions"
)

// Handles holds the providers built by Setup. The HTTP layer receives it by
// constructor injection instead of reading the OpenTelemetry globals.
// A nil *Handles is usable: its accessors return nil and Shutdown is a no-op.
type Handles struct {
	provider *providers.CompositeProvider
}

// TracerProvider returns the tracer provider.
func (h *Handles) TracerProvider() trace.TracerProvider {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.TracerProvider()
}

// MeterProvider returns the meter provider.
func (h *Handles) MeterProvider() metric.MeterProvider {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.MeterProvider()
}

// PrometheusHandler returns the /metrics handler, or nil when the
// Prometheus reader is disabled.
func (h *Handles) PrometheusHandler() http.Handler {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.PrometheusHandler()
}

// Shutdown flushes pending spans and metrics and shuts both providers down.
func (h *Handles) Shutdown(ctx context.Context) error {
	if h == nil || h.provider == nil {
		return nil
	}
	return h.provider.Shutdown(ctx)
}

// Setup builds the tracer and meter providers from cfg and registers them
// as the OpenTelemetry globals. Options are applied after the ones derived
// from cfg and may override them.
//
// Each successful call replaces the previously registered globals. Nothing
// is registered when Setup fails. Setup does not contact the backend.
func Setup(ctx context.Context, cfg *config.Config, opts ...providers.ProviderOption) (*Handles, error) {
	if cfg == nil {
		return nil, thverrors.NewInvalidArgumentError("telemetry configuration is required", nil)
	}

	attrs, err := ParseResourceAttributes(cfg.ResourceAttributes)
	if err != nil {
		return nil, thverrors.NewInvalidArgumentError(
			"invalid "+config.EnvResourceAttributes, err)
	}

	options := append([]providers.ProviderOption{
		providers.WithServiceName(cfg.ServiceName),
		providers.WithServiceVersion(versions.GetVersionInfo().Version),
		providers.WithResourceAttributes(attrs...),
		providers.WithTracesEndpoint(cfg.TracesEndpoint),
		providers.WithMetricsEndpoint(cfg.MetricsEndpoint),
		providers.WithMutualTLS(cfg.CACertFile, cfg.ClientCertFile, cfg.ClientKeyFile),
		providers.WithSamplingRate(cfg.SamplingRate),
		providers.WithBatching(cfg.BatchScheduleDelay, cfg.BatchMaxQueueSize),
		providers.WithMetricExportInterval(cfg.MetricExportInterval),
	}, opts...)

	provider, err := providers.NewCompositeProvider(ctx, options...)
	if err != nil {
		return nil, err
	}

	registerGlobals(provider)

	logger.Infow("telemetry initialized",
		"service_name", cfg.ServiceName,
		"traces_endpoint", cfg.TracesEndpoint,
		"metrics_endpoint", cfg.MetricsEndpoint,
		"sampling_rate", cfg.SamplingRate,
	)
	return &Handles{provider: provider}, nil
}

func registerGlobals(provider *providers.CompositeProvider) {
	otel.SetLogger(logger.NewLogr())
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warnf("OpenTelemetry export error: %v", err)
	}))
	otel.SetTracerProvider(provider.TracerProvider())
	otel.SetMeterProvider(provider.MeterProvider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}
