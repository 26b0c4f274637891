// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the exporter configuration for hello-otel from the
// process environment, optionally seeded from a local .env file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/stacklok/toolhive-core/env"

	thverrors "github.com/stacklok/hello-otel/pkg/errors"
	"github.com/stacklok/hello-otel/pkg/logger"
)

// Environment variable names.
const (
	EnvCACertificate     = "OTEL_EXPORTER_OTLP_CERTIFICATE"
	EnvClientCertificate = "OTEL_EXPORTER_OTLP_CLIENT_CERTIFICATE"
	EnvClientKey         = "OTEL_EXPORTER_OTLP_CLIENT_KEY"
	EnvMetricsEndpoint   = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	EnvTracesEndpoint    = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"

	EnvServiceName          = "OTEL_SERVICE_NAME"
	EnvResourceAttributes   = "OTEL_RESOURCE_ATTRIBUTES"
	EnvMetricExportInterval = "OTEL_METRIC_EXPORT_INTERVAL"
	EnvBatchScheduleDelay   = "OTEL_BSP_SCHEDULE_DELAY"
	EnvBatchMaxQueueSize    = "OTEL_BSP_MAX_QUEUE_SIZE"
	EnvTracesSamplerArg     = "OTEL_TRACES_SAMPLER_ARG"
)

// Defaults for the optional variables.
const (
	DefaultServiceName          = "app-for-otel-collectors-example"
	DefaultMetricExportInterval = 60 * time.Second
	DefaultBatchScheduleDelay   = 5 * time.Second
	DefaultBatchMaxQueueSize    = 2048
	DefaultSamplingRate         = 1.0

	// MaxBatchMaxQueueSize is the largest accepted OTEL_BSP_MAX_QUEUE_SIZE.
	// It must match the lte bound on Config.BatchMaxQueueSize.
	MaxBatchMaxQueueSize = 1 << 20
)

// DefaultEnvFile is the env file read by LoadFromEnvironment when no other
// file is given.
const DefaultEnvFile = ".env"

// Config is the validated exporter configuration.
type Config struct {
	// CACertFile is the CA bundle used to verify the telemetry backend
	CACertFile string `env:"OTEL_EXPORTER_OTLP_CERTIFICATE" validate:"required"`
	// ClientCertFile is the client certificate presented to the backend
	ClientCertFile string `env:"OTEL_EXPORTER_OTLP_CLIENT_CERTIFICATE" validate:"required"`
	// ClientKeyFile is the private key for ClientCertFile
	ClientKeyFile string `env:"OTEL_EXPORTER_OTLP_CLIENT_KEY" validate:"required"`
	// MetricsEndpoint is the full URL metrics are pushed to
	MetricsEndpoint string `env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT" validate:"required"`
	// TracesEndpoint is the full URL traces are pushed to
	TracesEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" validate:"required"`

	// ServiceName is reported as the service.name resource attribute
	ServiceName string `env:"OTEL_SERVICE_NAME" validate:"required"`
	// ResourceAttributes is a comma-separated key=value list added to the resource
	ResourceAttributes string `env:"OTEL_RESOURCE_ATTRIBUTES"`
	// MetricExportInterval is the period of the metric reader
	MetricExportInterval time.Duration `env:"OTEL_METRIC_EXPORT_INTERVAL" validate:"gt=0"`
	// BatchScheduleDelay is the longest a span waits in the batch processor
	BatchScheduleDelay time.Duration `env:"OTEL_BSP_SCHEDULE_DELAY" validate:"gt=0"`
	// BatchMaxQueueSize bounds the span queue; spans beyond it are dropped
	BatchMaxQueueSize int `env:"OTEL_BSP_MAX_QUEUE_SIZE" validate:"gt=0,lte=1048576"`
	// SamplingRate is the trace id ratio for root spans
	SamplingRate float64 `env:"OTEL_TRACES_SAMPLER_ARG" validate:"gte=0,lte=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report failures by environment variable name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// LoadFromEnvironment loads env files (DefaultEnvFile when none are given)
// into the process environment and then reads the configuration from it.
// Variables already set in the process are never overridden by a file.
func LoadFromEnvironment(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	return Load(&env.OSReader{})
}

// Load reads and validates the configuration through envReader. A missing
// required variable yields a missing configuration error naming it; the
// required variables are checked in declaration order.
func Load(envReader env.Reader) (*Config, error) {
	cfg := &Config{
		CACertFile:           lookup(envReader, EnvCACertificate),
		ClientCertFile:       lookup(envReader, EnvClientCertificate),
		ClientKeyFile:        lookup(envReader, EnvClientKey),
		MetricsEndpoint:      lookup(envReader, EnvMetricsEndpoint),
		TracesEndpoint:       lookup(envReader, EnvTracesEndpoint),
		ServiceName:          DefaultServiceName,
		ResourceAttributes:   lookup(envReader, EnvResourceAttributes),
		MetricExportInterval: DefaultMetricExportInterval,
		BatchScheduleDelay:   DefaultBatchScheduleDelay,
		BatchMaxQueueSize:    DefaultBatchMaxQueueSize,
		SamplingRate:         DefaultSamplingRate,
	}

	if name := lookup(envReader, EnvServiceName); name != "" {
		cfg.ServiceName = name
	}

	// Required variables are validated before any optional value is parsed.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var err error
	if cfg.MetricExportInterval, err = millisOrDefault(envReader, EnvMetricExportInterval, DefaultMetricExportInterval); err != nil {
		return nil, err
	}
	if cfg.BatchScheduleDelay, err = millisOrDefault(envReader, EnvBatchScheduleDelay, DefaultBatchScheduleDelay); err != nil {
		return nil, err
	}
	if cfg.BatchMaxQueueSize, err = intOrDefault(envReader, EnvBatchMaxQueueSize, DefaultBatchMaxQueueSize); err != nil {
		return nil, err
	}
	if cfg.SamplingRate, err = floatOrDefault(envReader, EnvTracesSamplerArg, DefaultSamplingRate); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags on c and converts the first failure into
// a typed error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return thverrors.NewInternalError("failed to validate configuration", err)
	}

	first := fieldErrs[0]
	if first.Tag() == "required" {
		return thverrors.NewMissingConfigurationError(first.Field())
	}
	return thverrors.NewInvalidArgumentError(
		fmt.Sprintf("%s=%v does not satisfy %s=%s", first.Field(), first.Value(), first.Tag(), first.Param()), nil)
}

func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Debugf("env file %s not found, skipping", path)
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return thverrors.NewInvalidArgumentError(fmt.Sprintf("failed to load env file %s", path), err)
		}
		logger.Debugf("loaded environment from %s", path)
	}
	return nil
}

func lookup(envReader env.Reader, key string) string {
	return strings.TrimSpace(envReader.Getenv(key))
}

// millisOrDefault parses key as a whole number of milliseconds.
func millisOrDefault(envReader env.Reader, key string, def time.Duration) (time.Duration, error) {
	raw := lookup(envReader, key)
	if raw == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, thverrors.NewInvalidArgumentError(fmt.Sprintf("%s must be a number of milliseconds", key), err)
	}
	if ms > math.MaxInt64/int64(time.Millisecond) || ms < math.MinInt64/int64(time.Millisecond) {
		return 0, thverrors.NewInvalidArgumentError(fmt.Sprintf("%s=%d is out of range", key, ms), nil)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func intOrDefault(envReader env.Reader, key string, def int) (int, error) {
	raw := lookup(envReader, key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, thverrors.NewInvalidArgumentError(fmt.Sprintf("%s must be an integer", key), err)
	}
	return v, nil
}

func floatOrDefault(envReader env.Reader, key string, def float64) (float64, error) {
	raw := lookup(envReader, key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, thverrors.NewInvalidArgumentError(fmt.Sprintf("%s must be a number", key), err)
	}
	return v, nil
}
