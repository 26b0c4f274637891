// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package prometheus provides a pull-based metric reader that serves the
// meter provider's instruments in Prometheus exposition format.
package prometheus

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config controls the Prometheus reader.
type Config struct {
	// EnableMetricsPath must be true; the reader is only useful behind /metrics
	EnableMetricsPath bool

	// IncludeRuntimeMetrics registers the Go runtime and process collectors
	IncludeRuntimeMetrics bool
}

// NewReader creates a Prometheus reader backed by a private registry and the
// HTTP handler serving that registry.
func NewReader(config Config) (sdkmetric.Reader, http.Handler, error) {
	if !config.EnableMetricsPath {
		return nil, nil, fmt.Errorf("prometheus reader requires EnableMetricsPath")
	}

	registry := prometheus.NewRegistry()
	if config.IncludeRuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return exporter, handler, nil
}
