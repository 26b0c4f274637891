// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/hello-otel/pkg/api"
	"github.com/stacklok/hello-otel/pkg/config"
	"github.com/stacklok/hello-otel/pkg/logger"
	"github.com/stacklok/hello-otel/pkg/telemetry"
	"github.com/stacklok/hello-otel/pkg/telemetry/providers"
)

const telemetryShutdownTimeout = 10 * time.Second

type serveOptions struct {
	host                        string
	port                        int
	envFiles                    []string
	enablePrometheusMetricsPath bool
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Telemetry is configured from the environment,
after loading any env files that exist. Variables already set in the
environment take precedence over the files.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "0.0.0.0", "Host address to bind the server to")
	cmd.Flags().IntVar(&opts.port, "port", 8000, "Port to bind the server to")
	cmd.Flags().StringSliceVar(&opts.envFiles, "env-file", []string{config.DefaultEnvFile},
		"Env files to load before reading the configuration")
	cmd.Flags().BoolVar(&opts.enablePrometheusMetricsPath, "enable-prometheus-metrics-path", false,
		"Also expose metrics in Prometheus format at /metrics")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFromEnvironment(opts.envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var telemetryOpts []providers.ProviderOption
	if opts.enablePrometheusMetricsPath {
		telemetryOpts = append(telemetryOpts, providers.WithEnablePrometheusMetricsPath(true))
	}

	handles, err := telemetry.Setup(ctx, cfg, telemetryOpts...)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := handles.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("telemetry shutdown failed: %v", err)
		}
	}()

	address := net.JoinHostPort(opts.host, strconv.Itoa(opts.port))
	return api.Serve(ctx, address, api.NewRouter(handles))
}
