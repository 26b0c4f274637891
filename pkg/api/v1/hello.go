// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package v1 provides the HTTP routes of hello-otel.
package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apierrors "github.com/stacklok/hello-otel/pkg/api/errors"
	thverrors "github.com/stacklok/hello-otel/pkg/errors"
	"github.com/stacklok/hello-otel/pkg/logger"
)

const (
	// TracerName is the instrumentation scope of the hello span.
	TracerName = "example-tracer"
	// MeterName is the instrumentation scope of the request counter.
	MeterName = "example-meter"

	// HelloSpanName is the name of the root span opened per request.
	HelloSpanName = "hello-span"
	// HelloRequestsCounter is the counter incremented per request.
	HelloRequestsCounter = "hello_requests"
	// HelloRequestsIncrement is added to the counter on every request.
	HelloRequestsIncrement int64 = 9
	// HelloMessage is the greeting returned in the response body.
	HelloMessage = "Hello, world!"

	// DefaultSimulatedWork is how long each request sleeps inside its span.
	DefaultSimulatedWork = time.Second
)

// HelloEndpointAttribute labels every counter increment. The value does not
// match the route and is kept as is.
var HelloEndpointAttribute = attribute.String("endpoint", "run_vector_math")

// Telemetry is the pair of providers the hello route records into.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// HelloOption configures the hello route.
type HelloOption func(*helloRoutes)

// WithSimulatedWork sets the delay spent inside the span. Zero disables it.
func WithSimulatedWork(d time.Duration) HelloOption {
	return func(h *helloRoutes) {
		h.simulatedWork = d
	}
}

type helloRoutes struct {
	tracer        trace.Tracer
	requests      metric.Int64Counter
	attrs         metric.AddOption
	simulatedWork time.Duration
}

type helloResponse struct {
	Message string `json:"message"`
}

// HelloRouter sets up the hello route. When tel is nil, or returns nil
// providers, every request fails with a telemetry not initialized error.
func HelloRouter(tel Telemetry, opts ...HelloOption) http.Handler {
	routes := &helloRoutes{
		simulatedWork: DefaultSimulatedWork,
		attrs:         metric.WithAttributeSet(attribute.NewSet(HelloEndpointAttribute)),
	}
	for _, opt := range opts {
		opt(routes)
	}

	if tel != nil {
		routes.instrument(tel.TracerProvider(), tel.MeterProvider())
	}

	r := chi.NewRouter()
	r.Get("/", apierrors.ErrorHandler(routes.getHello))
	return r
}

func (h *helloRoutes) instrument(tp trace.TracerProvider, mp metric.MeterProvider) {
	if tp == nil || mp == nil {
		return
	}
	counter, err := mp.Meter(MeterName).Int64Counter(
		HelloRequestsCounter,
		metric.WithDescription("Number of hello requests"),
	)
	if err != nil {
		logger.Warnf("failed to create %s counter: %v", HelloRequestsCounter, err)
		return
	}
	h.tracer = tp.Tracer(TracerName)
	h.requests = counter
}

//	 getHello
//		@Summary		Greet
//		@Description	Record a span and a counter increment, then greet
//		@Tags			hello
//		@Produce		json
//		@Success		200	{object}	helloResponse
//		@Failure		500	{string}	string	"Internal Server Error"
//		@Router			/hello [get]
func (h *helloRoutes) getHello(w http.ResponseWriter, r *http.Request) error {
	if h.tracer == nil || h.requests == nil {
		return thverrors.NewTelemetryNotInitializedError()
	}

	ctx, span := h.tracer.Start(r.Context(), HelloSpanName, trace.WithNewRoot())
	h.requests.Add(ctx, HelloRequestsIncrement, h.attrs)
	if h.simulatedWork > 0 {
		time.Sleep(h.simulatedWork)
	}
	span.End()

	body, err := json.Marshal(helloResponse{Message: HelloMessage})
	if err != nil {
		return thverrors.NewInternalError("failed to encode response", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return nil
}
