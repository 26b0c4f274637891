// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package otlp provides OpenTelemetry Protocol (OTLP) over HTTP exporters
// for traces and metrics.
package otlp

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"
)

// Config holds the settings shared by the OTLP trace and metric pipelines.
type Config struct {
	// Endpoint is the full URL the exporter posts to, including the path
	// (e.g. "https://collector:4318/v1/traces")
	Endpoint string

	// Headers are additional headers sent with every export request
	Headers map[string]string

	// TLSConfig is the client TLS configuration used for https endpoints
	TLSConfig *tls.Config

	// BatchScheduleDelay is the maximum time a span waits before export
	BatchScheduleDelay time.Duration

	// MaxQueueSize bounds the span queue; spans are dropped when it is full
	MaxQueueSize int

	// ExportInterval is the period of the metric reader
	ExportInterval time.Duration
}

// ValidateEndpoint checks that raw is an absolute http or https URL with a host.
func ValidateEndpoint(raw string) error {
	if raw == "" {
		return fmt.Errorf("OTLP endpoint is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid OTLP endpoint %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}
	return nil
}
