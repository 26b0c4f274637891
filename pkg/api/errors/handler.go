// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors converts handler errors into HTTP responses.
package errors

import (
	"net/http"

	"github.com/stacklok/hello-otel/pkg/errors"
	"github.com/stacklok/hello-otel/pkg/logger"
)

// HandlerWithError is an HTTP handler that returns an error instead of
// writing an error response itself.
type HandlerWithError func(http.ResponseWriter, *http.Request) error

// ErrorHandler wraps fn and writes the status mapped by errors.Code when fn
// fails. Server errors are logged in full and the client only sees the
// status text. Client errors carry the error message.
//
// Usage:
//
//	r.Get("/hello", apierrors.ErrorHandler(routes.getHello))
func ErrorHandler(fn HandlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		code := errors.Code(err)
		if code >= http.StatusInternalServerError {
			logger.Errorw("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", code,
				"error", err,
			)
			http.Error(w, http.StatusText(code), code)
			return
		}

		http.Error(w, err.Error(), code)
	}
}
