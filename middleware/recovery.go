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

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/apiversion/problem"
)

// ErrPanic is wrapped by the error Recovery formats into the 500 response.
var ErrPanic = errors.New("internal server error")

// Recovery recovers panics from next, logs them with a stack trace and
// writes a 500 problem. http.ErrAbortHandler is re-panicked so the server
// aborts the connection as usual.
func Recovery(opts ...Option) func(http.Handler) http.Handler {
	s := newSettings(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				ctx := r.Context()
				span := trace.SpanFromContext(ctx)
				span.AddEvent("exception", trace.WithAttributes(
					attribute.Bool("exception.escaped", true),
					attribute.String("exception.type", fmt.Sprintf("%T", rec)),
					attribute.String("exception.message", fmt.Sprint(rec)),
				))
				span.SetStatus(codes.Error, "panic recovered")

				if s.logger != nil {
					args := []any{
						"panic", fmt.Sprint(rec),
						"method", r.Method,
						"path", r.URL.Path,
					}
					if id := GetRequestID(ctx); id != "" {
						args = append(args, "request_id", id)
					}
					if s.stackSize > 0 {
						buf := make([]byte, s.stackSize)
						buf = buf[:runtime.Stack(buf, false)]
						args = append(args, "stack", string(buf))
					}
					s.logger.ErrorContext(ctx, "panic recovered", args...)
				}

				err := problem.WithStatus(fmt.Errorf("%w: %v", ErrPanic, rec), http.StatusInternalServerError)
				_ = problem.Write(w, s.formatter.Format(r, err))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
