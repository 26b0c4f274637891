// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the typed errors used across hello-otel and maps
// them onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types
const (
	// ErrMissingConfiguration is returned when a required environment variable is unset
	ErrMissingConfiguration = "missing_configuration"

	// ErrExporterInitialization is returned when TLS material or endpoints cannot be used to build exporters
	ErrExporterInitialization = "exporter_initialization"

	// ErrTelemetryNotInitialized is returned when a handler runs without telemetry providers
	ErrTelemetryNotInitialized = "telemetry_not_initialized"

	// ErrInvalidArgument is returned when an invalid argument is provided
	ErrInvalidArgument = "invalid_argument"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewMissingConfigurationError creates an error naming the absent variable
func NewMissingConfigurationError(variable string) *Error {
	return NewError(ErrMissingConfiguration, fmt.Sprintf("required environment variable %s is not set", variable), nil)
}

// NewExporterInitializationError creates a new exporter initialization error
func NewExporterInitializationError(message string, cause error) *Error {
	return NewError(ErrExporterInitialization, message, cause)
}

// NewTelemetryNotInitializedError creates a new telemetry not initialized error
func NewTelemetryNotInitializedError() *Error {
	return NewError(ErrTelemetryNotInitialized, "telemetry providers are not initialized", nil)
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

func isType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}

// IsMissingConfiguration checks if the error is a missing configuration error
func IsMissingConfiguration(err error) bool {
	return isType(err, ErrMissingConfiguration)
}

// IsExporterInitialization checks if the error is an exporter initialization error
func IsExporterInitialization(err error) bool {
	return isType(err, ErrExporterInitialization)
}

// IsTelemetryNotInitialized checks if the error is a telemetry not initialized error
func IsTelemetryNotInitialized(err error) bool {
	return isType(err, ErrTelemetryNotInitialized)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return isType(err, ErrInvalidArgument)
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrInternal)
}

// Code returns the HTTP status code for err. Errors that are not an *Error
// are treated as internal.
func Code(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Type {
	case ErrInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
