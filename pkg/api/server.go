// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api contains the HTTP server of hello-otel.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	v1 "github.com/stacklok/hello-otel/pkg/api/v1"
	"github.com/stacklok/hello-otel/pkg/logger"
)

const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Telemetry is what the router needs from the telemetry setup.
type Telemetry interface {
	v1.Telemetry
	// PrometheusHandler returns nil when /metrics is disabled.
	PrometheusHandler() http.Handler
}

// NewRouter builds the routes of the server. A nil tel, including a nil
// pointer held in the interface, still serves every route, but /hello fails
// with an internal server error.
func NewRouter(tel Telemetry, helloOpts ...v1.HelloOption) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger,
		middleware.Timeout(middlewareTimeout),
	)

	var helloTel v1.Telemetry
	if tel != nil {
		helloTel = tel
	}

	routers := map[string]http.Handler{
		"/hello":   v1.HelloRouter(helloTel, helloOpts...),
		"/health":  v1.HealthcheckRouter(),
		"/version": v1.VersionRouter(),
	}

	if tel != nil {
		if handler := tel.PrometheusHandler(); handler != nil {
			routers["/metrics"] = handler
		}
	}

	for prefix, router := range routers {
		r.Mount(prefix, router)
	}
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Debugw("request served",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// Serve listens on address and serves handler until ctx is cancelled, then
// shuts down gracefully. It is assumed that the caller sets up appropriate
// signal handling.
func Serve(ctx context.Context, address string, handler http.Handler) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return serveListener(ctx, listener, handler)
}

func serveListener(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.Infof("starting HTTP server on %s", listener.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Infof("HTTP server stopped")
	return nil
}
