// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package otlp

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// maxExportBatchSize is the SDK default; it is lowered to the queue size
// when the queue is smaller.
const maxExportBatchSize = 512

// MaxQueueSizeLimit is the largest accepted span queue bound.
const MaxQueueSizeLimit = 1 << 20

func createTraceExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(config.Endpoint),
	}

	if len(config.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(config.Headers))
	}

	if config.TLSConfig != nil {
		opts = append(opts, otlptracehttp.WithTLSClientConfig(config.TLSConfig))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return exporter, nil
}

// NewSpanProcessor creates a batch span processor exporting to the OTLP
// endpoint. Enqueueing never blocks: once MaxQueueSize spans are waiting,
// new spans are dropped until the next export drains the queue.
func NewSpanProcessor(ctx context.Context, config Config) (sdktrace.SpanProcessor, error) {
	if err := ValidateEndpoint(config.Endpoint); err != nil {
		return nil, err
	}
	if config.MaxQueueSize > MaxQueueSizeLimit {
		return nil, fmt.Errorf("span queue size %d exceeds the limit of %d", config.MaxQueueSize, MaxQueueSizeLimit)
	}

	exporter, err := createTraceExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	var opts []sdktrace.BatchSpanProcessorOption
	if config.BatchScheduleDelay > 0 {
		opts = append(opts, sdktrace.WithBatchTimeout(config.BatchScheduleDelay))
	}
	if config.MaxQueueSize > 0 {
		opts = append(opts,
			sdktrace.WithMaxQueueSize(config.MaxQueueSize),
			sdktrace.WithMaxExportBatchSize(min(config.MaxQueueSize, maxExportBatchSize)),
		)
	}

	return sdktrace.NewBatchSpanProcessor(exporter, opts...), nil
}
