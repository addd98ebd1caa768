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

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// traceHandler adds trace_id and span_id to records logged with a context
// that carries a valid OpenTelemetry span.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r = r.Clone()
			r.AddAttrs(
				slog.String(fieldTraceID, sc.TraceID().String()),
				slog.String(fieldSpanID, sc.SpanID().String()),
			)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{Handler: h.Handler.WithGroup(name)}
}

// WithTrace returns sl with trace_id and span_id bound from the span in ctx.
// Use it when the records are not logged with the *Context methods, or
// when sl does not come from this package. Without a valid span, sl is
// returned unchanged.
//
// Example:
//
//	log := logging.WithTrace(r.Context(), logger.Logger())
//	log.Info("version resolved", "api.version", v)
func WithTrace(ctx context.Context, sl *slog.Logger) *slog.Logger {
	sl = OrDiscard(sl)
	if ctx == nil {
		return sl
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return sl
	}

	return sl.With(
		fieldTraceID, sc.TraceID().String(),
		fieldSpanID, sc.SpanID().String(),
	)
}

// WithTrace is the method form of the package-level [WithTrace].
func (l *Logger) WithTrace(ctx context.Context) *slog.Logger {
	return WithTrace(ctx, l.slogger)
}
