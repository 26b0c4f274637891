// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestNewReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		config              Config
		wantErr             bool
		errMsg              string
		checkRuntimeMetrics bool
	}{
		{
			name: "with runtime metrics",
			config: Config{
				EnableMetricsPath:     true,
				IncludeRuntimeMetrics: true,
			},
			checkRuntimeMetrics: true,
		},
		{
			name: "without runtime metrics",
			config: Config{
				EnableMetricsPath: true,
			},
		},
		{
			name: "metrics path not enabled",
			config: Config{
				IncludeRuntimeMetrics: true,
			},
			wantErr: true,
			errMsg:  "requires EnableMetricsPath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reader, handler, err := NewReader(tt.config)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, reader)
				assert.Nil(t, handler)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, reader)
			require.NotNil(t, handler)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			if tt.checkRuntimeMetrics {
				assert.Contains(t, rec.Body.String(), "go_goroutines")
			}
		})
	}
}

func TestNewReader_ServesCounters(t *testing.T) {
	t.Parallel()

	reader, handler, err := NewReader(Config{EnableMetricsPath: true})
	require.NoError(t, err)

	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("test-service")),
	)
	require.NoError(t, err)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	t.Cleanup(func() { _ = meterProvider.Shutdown(ctx) })

	counter, err := meterProvider.Meter("test").Int64Counter("hello_requests")
	require.NoError(t, err)
	counter.Add(ctx, 9)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello_requests")
}
