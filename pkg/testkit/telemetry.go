// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package testkit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// MemoryTelemetry is a tracer and meter provider pair that records into
// memory. Spans are exported synchronously when they end.
type MemoryTelemetry struct {
	Spans  *tracetest.InMemoryExporter
	Reader *sdkmetric.ManualReader

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// NewMemoryTelemetry builds a MemoryTelemetry that is shut down when t ends.
func NewMemoryTelemetry(t testing.TB) *MemoryTelemetry {
	t.Helper()

	m := &MemoryTelemetry{
		Spans:  tracetest.NewInMemoryExporter(),
		Reader: sdkmetric.NewManualReader(),
	}
	m.tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(m.Spans))
	m.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(m.Reader))

	t.Cleanup(func() {
		_ = m.tracerProvider.Shutdown(context.Background())
		_ = m.meterProvider.Shutdown(context.Background())
	})
	return m
}

// TracerProvider returns the recording tracer provider.
func (m *MemoryTelemetry) TracerProvider() trace.TracerProvider {
	return m.tracerProvider
}

// MeterProvider returns the recording meter provider.
func (m *MemoryTelemetry) MeterProvider() metric.MeterProvider {
	return m.meterProvider
}

// Collect reads the current metric state.
func (m *MemoryTelemetry) Collect(t testing.TB) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := m.Reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	return rm
}

// Int64Sum returns the data points of the named int64 sum, or nil when the
// instrument has not recorded anything.
func (m *MemoryTelemetry) Int64Sum(t testing.TB, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	rm := m.Collect(t)
	for _, scope := range rm.ScopeMetrics {
		for _, metrics := range scope.Metrics {
			if metrics.Name != name {
				continue
			}
			sum, ok := metrics.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, not an int64 sum", name, metrics.Data)
			}
			return sum.DataPoints
		}
	}
	return nil
}

// Int64SumValue returns the value of the point of the named int64 sum that
// carries exactly attrs. It returns 0 when no such point exists.
func (m *MemoryTelemetry) Int64SumValue(t testing.TB, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	want := attribute.NewSet(attrs...)
	for _, point := range m.Int64Sum(t, name) {
		if point.Attributes.Equals(&want) {
			return point.Value
		}
	}
	return 0
}
