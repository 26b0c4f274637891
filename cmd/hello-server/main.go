// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for hello-server.
package main

import (
	"os"

	"github.com/stacklok/hello-otel/cmd/hello-server/app"
	"github.com/stacklok/hello-otel/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
