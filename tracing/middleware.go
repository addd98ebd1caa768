// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/apiversion/resolver"
)

// Span attribute keys for version resolution.
const (
	AttrAPIVersion attribute.Key = "api.version"
	AttrSource     attribute.Key = "api.version.source"
	AttrOutcome    attribute.Key = "api.version.outcome"
	AttrDeprecated attribute.Key = "api.version.deprecated"
)

// Middleware wraps next so that every request runs in a server span.
// Incoming W3C trace context and baggage are continued. Spans for 5xx
// responses get an Error status. A nil tracer returns next unchanged.
//
// Example:
//
//	handler := tracing.Middleware(tracer)(mux)
func Middleware(t *Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if t == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := t.propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			ctx, span := t.Tracer().Start(ctx, req.Method+" "+req.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.url", req.URL.String()),
					attribute.String("http.route", req.URL.Path),
					attribute.String("http.user_agent", req.UserAgent()),
				),
			)
			defer span.End()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, req.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", sw.status))
			} else if span.SpanContext().IsValid() {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

// AnnotateResolution records the outcome of a version resolution on the
// span in ctx. Failures set an Error status carrying the failure kind.
func AnnotateResolution(ctx context.Context, res resolver.Result, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if err != nil {
		kind := resolver.KindOf(err).String()
		var named interface{ Outcome() string }
		if errors.As(err, &named) {
			kind = named.Outcome()
		}
		span.SetAttributes(AttrOutcome.String(kind))
		span.SetStatus(codes.Error, err.Error())
		span.AddEvent("api_version.rejected", trace.WithAttributes(attribute.String("kind", kind)))
		return
	}

	outcome := "resolved"
	if res.Defaulted {
		outcome = "defaulted"
	}
	span.SetAttributes(
		AttrAPIVersion.String(res.Version.String()),
		AttrSource.String(res.Source.Kind.String()),
		AttrOutcome.String(outcome),
	)
	if res.IsDeprecated() {
		span.SetAttributes(AttrDeprecated.Bool(true))
	}
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
