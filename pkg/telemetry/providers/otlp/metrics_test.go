// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package otlp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCreateMetricExporter_CumulativeTemporality(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exporter, err := createMetricExporter(ctx, Config{
		Endpoint: "https://localhost:4318/v1/metrics",
		Headers:  map[string]string{"x-api-key": "secret"},
	})
	require.NoError(t, err)
	require.NotNil(t, exporter)
	t.Cleanup(func() { _ = exporter.Shutdown(ctx) })

	for _, kind := range []sdkmetric.InstrumentKind{
		sdkmetric.InstrumentKindCounter,
		sdkmetric.InstrumentKindHistogram,
		sdkmetric.InstrumentKindUpDownCounter,
	} {
		assert.Equal(t, metricdata.CumulativeTemporality, exporter.Temporality(kind))
	}
}

func TestNewMetricReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				Endpoint:       "https://localhost:4318/v1/metrics",
				ExportInterval: 10 * time.Second,
			},
		},
		{
			name: "default interval",
			config: Config{
				Endpoint: "http://otel-collector.local:4318/v1/metrics",
			},
		},
		{
			name:    "missing endpoint",
			config:  Config{Headers: map[string]string{"Authorization": "Bearer token"}},
			wantErr: true,
			errMsg:  "OTLP endpoint is required",
		},
		{
			name:    "invalid endpoint",
			config:  Config{Endpoint: "ftp://collector/v1/metrics"},
			wantErr: true,
			errMsg:  "scheme must be http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			reader, err := NewMetricReader(ctx, tt.config)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, reader)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, reader)
		})
	}
}
