// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stacklok/hello-otel/pkg/config"
	thverrors "github.com/stacklok/hello-otel/pkg/errors"
	"github.com/stacklok/hello-otel/pkg/telemetry/providers"
	"github.com/stacklok/hello-otel/pkg/testkit"
)

// Port 1 on loopback refuses connections, standing in for a collector that
// is down.
const unreachable = "https://127.0.0.1:1"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	files := testkit.WriteMTLSFiles(t)
	return &config.Config{
		CACertFile:           files.CACert,
		ClientCertFile:       files.ClientCert,
		ClientKeyFile:        files.ClientKey,
		MetricsEndpoint:      unreachable + "/v1/metrics",
		TracesEndpoint:       unreachable + "/v1/traces",
		ServiceName:          "hello-otel-test",
		ResourceAttributes:   "deployment.environment=test",
		MetricExportInterval: time.Hour,
		BatchScheduleDelay:   time.Hour,
		BatchMaxQueueSize:    16,
		SamplingRate:         1.0,
	}
}

func shutdown(t *testing.T, h *Handles) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// The collector is unreachable, so the final flush may fail.
	_ = h.Shutdown(ctx)
}

func TestSetup_RegistersGlobals(t *testing.T) { //nolint:paralleltest // Modifies OpenTelemetry globals
	handles, err := Setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, handles)
	t.Cleanup(func() { shutdown(t, handles) })

	assert.NotNil(t, handles.TracerProvider())
	assert.NotNil(t, handles.MeterProvider())
	assert.Nil(t, handles.PrometheusHandler())

	assert.Same(t, handles.TracerProvider(), otel.GetTracerProvider())
	assert.Same(t, handles.MeterProvider(), otel.GetMeterProvider())
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"},
		otel.GetTextMapPropagator().Fields())
}

func TestSetup_LastWriterWins(t *testing.T) { //nolint:paralleltest // Modifies OpenTelemetry globals
	first, err := Setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { shutdown(t, first) })

	second, err := Setup(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { shutdown(t, second) })

	assert.Same(t, second.TracerProvider(), otel.GetTracerProvider())
	assert.Same(t, second.MeterProvider(), otel.GetMeterProvider())
	assert.NotSame(t, first.TracerProvider(), otel.GetTracerProvider())
}

func TestSetup_FailureLeavesGlobalsUntouched(t *testing.T) { //nolint:paralleltest // Modifies OpenTelemetry globals
	sentinelTracer := sdktrace.NewTracerProvider()
	sentinelMeter := sdkmetric.NewMeterProvider()
	t.Cleanup(func() {
		_ = sentinelTracer.Shutdown(context.Background())
		_ = sentinelMeter.Shutdown(context.Background())
	})
	otel.SetTracerProvider(sentinelTracer)
	otel.SetMeterProvider(sentinelMeter)

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		isValid func(error) bool
	}{
		{
			name:    "missing CA file",
			mutate:  func(c *config.Config) { c.CACertFile = "/nonexistent/ca.pem" },
			isValid: thverrors.IsExporterInitialization,
		},
		{
			name: "client key is not a key",
			mutate: func(c *config.Config) {
				c.ClientKeyFile = testkit.WriteFile(t, "key.pem", "not a key")
			},
			isValid: thverrors.IsExporterInitialization,
		},
		{
			name:    "relative traces endpoint",
			mutate:  func(c *config.Config) { c.TracesEndpoint = "collector/v1/traces" },
			isValid: thverrors.IsExporterInitialization,
		},
		{
			name:    "malformed resource attributes",
			mutate:  func(c *config.Config) { c.ResourceAttributes = "no-equals-sign" },
			isValid: thverrors.IsInvalidArgument,
		},
	}

	for _, tt := range tests { //nolint:paralleltest // Modifies OpenTelemetry globals
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			handles, err := Setup(context.Background(), cfg)
			require.Error(t, err)
			assert.Nil(t, handles)
			assert.True(t, tt.isValid(err), "unexpected error type: %v", err)

			assert.Same(t, sentinelTracer, otel.GetTracerProvider())
			assert.Same(t, sentinelMeter, otel.GetMeterProvider())
		})
	}
}

func TestSetup_NilConfig(t *testing.T) {
	t.Parallel()

	handles, err := Setup(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, handles)
	assert.True(t, thverrors.IsInvalidArgument(err))
}

func TestSetup_OptionsOverrideExporters(t *testing.T) { //nolint:paralleltest // Modifies OpenTelemetry globals
	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()

	// With both pipelines replaced no mTLS material is read.
	cfg := &config.Config{
		ServiceName:  "hello-otel-test",
		SamplingRate: 1.0,
	}
	handles, err := Setup(context.Background(), cfg,
		providers.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(spans)),
		providers.WithMetricReader(reader),
		providers.WithEnablePrometheusMetricsPath(true),
	)
	require.NoError(t, err)
	t.Cleanup(func() { shutdown(t, handles) })

	assert.NotNil(t, handles.PrometheusHandler())

	_, span := otel.Tracer("test").Start(context.Background(), "via-global")
	span.End()

	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "via-global", got[0].Name)
	name, ok := got[0].Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "hello-otel-test", name.AsString())
}

func TestHandles_NilReceiver(t *testing.T) {
	t.Parallel()

	var handles *Handles
	assert.Nil(t, handles.TracerProvider())
	assert.Nil(t, handles.MeterProvider())
	assert.Nil(t, handles.PrometheusHandler())
	assert.NoError(t, handles.Shutdown(context.Background()))
}
