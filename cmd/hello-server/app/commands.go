// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the hello-server command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/hello-otel/pkg/logger"
)

// NewRootCmd creates a new root command for hello-server.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "hello-server",
		DisableAutoGenTag: true,
		Short:             "A demo HTTP service that exports traces and metrics over OTLP with mutual TLS",
		Long: `hello-server serves GET /hello. Every request records a root span and a
counter increment, exported over OTLP/HTTP to the endpoints named by the
OTEL_EXPORTER_OTLP_* environment variables using mutual TLS.`,
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
