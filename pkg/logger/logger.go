// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logger provides the process-wide logger for hello-otel.
//
// It wraps a *slog.Logger built by toolhive-core/logging. Components that
// hold state should take the logger from [Get] and keep it; package-level
// helpers exist for call sites that only need one line of output.
package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-core/env"
	"github.com/stacklok/toolhive-core/logging"
)

// unstructuredLogsEnv selects plain text output when true or unset.
const unstructuredLogsEnv = "UNSTRUCTURED_LOGS"

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(logging.New())
}

// Get returns the underlying *slog.Logger.
func Get() *slog.Logger {
	return singleton.Load()
}

// Set replaces the process logger. Tests use it to capture output.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// Debugf logs a formatted message at debug level.
func Debugf(msg string, args ...any) {
	Get().Debug(fmt.Sprintf(msg, args...))
}

// Debugw logs a message at debug level with key-value pairs.
func Debugw(msg string, keysAndValues ...any) {
	Get().Debug(msg, keysAndValues...)
}

// Infof logs a formatted message at info level.
func Infof(msg string, args ...any) {
	Get().Info(fmt.Sprintf(msg, args...))
}

// Infow logs a message at info level with key-value pairs.
func Infow(msg string, keysAndValues ...any) {
	Get().Info(msg, keysAndValues...)
}

// Warnf logs a formatted message at warning level.
func Warnf(msg string, args ...any) {
	Get().Warn(fmt.Sprintf(msg, args...))
}

// Warnw logs a message at warning level with key-value pairs.
func Warnw(msg string, keysAndValues ...any) {
	Get().Warn(msg, keysAndValues...)
}

// Errorf logs a formatted message at error level.
func Errorf(msg string, args ...any) {
	Get().Error(fmt.Sprintf(msg, args...))
}

// Errorw logs a message at error level with key-value pairs.
func Errorw(msg string, keysAndValues ...any) {
	Get().Error(msg, keysAndValues...)
}

// NewLogr returns a logr.Logger backed by the process logger. The
// OpenTelemetry SDK logs its internal diagnostics through it.
func NewLogr() logr.Logger {
	return logr.FromSlogHandler(Get().Handler())
}

// Initialize configures the process logger from the OS environment and the
// "debug" viper key.
func Initialize() {
	InitializeWithEnv(&env.OSReader{})
}

// InitializeWithEnv configures the process logger using envReader for
// environment lookups.
func InitializeWithEnv(envReader env.Reader) {
	var opts []logging.Option

	if unstructuredLogsWithEnv(envReader) {
		opts = append(opts, logging.WithFormat(logging.FormatText))
	}

	if viper.GetBool("debug") {
		opts = append(opts, logging.WithLevel(slog.LevelDebug))
	}

	singleton.Store(logging.New(opts...))
}

func unstructuredLogsWithEnv(envReader env.Reader) bool {
	unstructured, err := strconv.ParseBool(envReader.Getenv(unstructuredLogsEnv))
	if err != nil {
		// unset or unparsable
		return true
	}
	return unstructured
}
