// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrExporterInitialization,
				Message: "failed to load CA certificate",
				Cause:   errors.New("no such file"),
			},
			want: "exporter_initialization: failed to load CA certificate: no such file",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrTelemetryNotInitialized,
				Message: "test message",
			},
			want: "telemetry_not_initialized: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := NewInternalError("test message", cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, NewInternalError("test message", nil).Unwrap())
}

func TestNewMissingConfigurationError(t *testing.T) {
	t.Parallel()

	err := NewMissingConfigurationError("OTEL_EXPORTER_OTLP_CLIENT_KEY")
	assert.Equal(t, ErrMissingConfiguration, err.Type)
	assert.Contains(t, err.Error(), "OTEL_EXPORTER_OTLP_CLIENT_KEY")
}

func TestTypePredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"missing configuration", NewMissingConfigurationError("X"), IsMissingConfiguration},
		{"exporter initialization", NewExporterInitializationError("x", nil), IsExporterInitialization},
		{"telemetry not initialized", NewTelemetryNotInitializedError(), IsTelemetryNotInitialized},
		{"invalid argument", NewInvalidArgumentError("x", nil), IsInvalidArgument},
		{"internal", NewInternalError("x", nil), IsInternal},
		{"wrapped", fmt.Errorf("setup: %w", NewExporterInitializationError("x", nil)), IsExporterInitialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.check(tt.err))
		})
	}

	assert.False(t, IsMissingConfiguration(NewInternalError("x", nil)))
	assert.False(t, IsInternal(errors.New("plain")))
}

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid argument", NewInvalidArgumentError("bad", nil), http.StatusBadRequest},
		{"telemetry not initialized", NewTelemetryNotInitializedError(), http.StatusInternalServerError},
		{"missing configuration", NewMissingConfigurationError("X"), http.StatusInternalServerError},
		{"wrapped invalid argument", fmt.Errorf("ctx: %w", NewInvalidArgumentError("bad", nil)), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
