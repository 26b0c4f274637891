// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package otlp

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// NewMetricReader creates a periodic reader that pushes to the OTLP endpoint
// every ExportInterval. Sums are exported with cumulative temporality.
func NewMetricReader(ctx context.Context, config Config) (sdkmetric.Reader, error) {
	if err := ValidateEndpoint(config.Endpoint); err != nil {
		return nil, err
	}

	exporter, err := createMetricExporter(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	var opts []sdkmetric.PeriodicReaderOption
	if config.ExportInterval > 0 {
		opts = append(opts, sdkmetric.WithInterval(config.ExportInterval))
	}

	return sdkmetric.NewPeriodicReader(exporter, opts...), nil
}

func createMetricExporter(ctx context.Context, config Config) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(config.Endpoint),
		otlpmetrichttp.WithTemporalitySelector(sdkmetric.DefaultTemporalitySelector),
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(config.Headers))
	}

	if config.TLSConfig != nil {
		opts = append(opts, otlpmetrichttp.WithTLSClientConfig(config.TLSConfig))
	}

	return otlpmetrichttp.New(ctx, opts...)
}
