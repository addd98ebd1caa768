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

package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type labelerKey struct{}

// labeler collects attributes contributed by inner handlers.
type labeler struct {
	mu    sync.Mutex
	attrs []attribute.KeyValue
}

func (l *labeler) add(attrs ...attribute.KeyValue) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range attrs {
		replaced := false
		for i := range l.attrs {
			if l.attrs[i].Key == a.Key {
				l.attrs[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			l.attrs = append(l.attrs, a)
		}
	}
}

func (l *labeler) get() []attribute.KeyValue {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]attribute.KeyValue(nil), l.attrs...)
}

// Label adds attributes to the request measurement of the enclosing
// [Middleware]. A later value for the same key replaces the earlier one.
// Without an enclosing Middleware it does nothing.
func Label(ctx context.Context, attrs ...attribute.KeyValue) {
	if l, ok := ctx.Value(labelerKey{}).(*labeler); ok {
		l.add(attrs...)
	}
}

// Middleware measures request duration into http.server.request.duration.
//
// Example:
//
//	handler := metrics.Middleware(recorder)(mux)
func Middleware(recorder *Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			l := &labeler{}
			ctx := context.WithValue(r.Context(), labelerKey{}, l)

			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			recorder.RecordRequest(ctx, r.Method, rw.status, time.Since(start), l.get()...)
		})
	}
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
