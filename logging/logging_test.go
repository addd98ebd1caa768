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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	l, err := New()
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, l.Level())
	assert.NotNil(t, l.Logger())
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(WithOutput(nil))
	require.ErrorIs(t, err, ErrNilOutput)

	_, err = New(WithHandlerType("xml"))
	require.ErrorIs(t, err, ErrInvalidHandler)

	assert.Panics(t, func() { MustNew(WithHandlerType("xml")) })
}

func TestJSONHandler_ServiceAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(
		WithJSONHandler(),
		WithOutput(&buf),
		WithServiceName("apiversiond"),
		WithServiceVersion("1.2.3"),
		WithEnvironment("test"),
	)

	l.Info("version resolved", "api.version", "2")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "version resolved", lines[0]["msg"])
	assert.Equal(t, "apiversiond", lines[0]["service"])
	assert.Equal(t, "1.2.3", lines[0]["version"])
	assert.Equal(t, "test", lines[0]["env"])
	assert.Equal(t, "2", lines[0]["api.version"])
	assert.Equal(t, "apiversiond", l.ServiceName())
	assert.Equal(t, "1.2.3", l.ServiceVersion())
	assert.Equal(t, "test", l.Environment())
}

func TestRedaction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(
		WithOutput(&buf),
		WithReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "drop" {
				return slog.Attr{}
			}
			return a
		}),
	)

	l.Info("login", "password", "hunter2", "authorization", "Bearer x", "drop", 1, "user", "ann")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "***REDACTED***", lines[0]["password"])
	assert.Equal(t, "***REDACTED***", lines[0]["authorization"])
	assert.NotContains(t, lines[0], "drop")
	assert.Equal(t, "ann", lines[0]["user"])
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf), WithLevel(LevelWarn))

	l.Info("hidden")
	l.Warn("shown")
	l.SetLevel(LevelDebug)
	l.Debug("now shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "now shown", lines[1]["msg"])
	assert.Equal(t, LevelDebug, l.Level())
	assert.True(t, l.Enabled(context.Background(), LevelDebug))
}

func TestTextHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithTextHandler(), WithOutput(&buf), WithDebugLevel())
	l.Debug("debugging", "k", "v")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "k=v")
}

func TestConsoleHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithConsoleHandler(), WithOutput(&buf), WithServiceName("svc"))

	l.With("route", "GET /users").WithGroup("req").Error("failed", "status", 400, "password", "x")

	out := buf.String()
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "service=svc")
	assert.Contains(t, out, "route=GET /users")
	assert.Contains(t, out, "req.status=400")
	assert.Contains(t, out, "req.password=***REDACTED***")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestConsoleHandler_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := MustNew(WithConsoleHandler(), WithOutput(&buf))

	l.Debug("dropped")
	l.Info("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "INFO")
}

func TestTraceCorrelation(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	sc := span.SpanContext()

	var buf bytes.Buffer
	l := MustNew(WithOutput(&buf))

	l.Logger().InfoContext(ctx, "with context")
	l.WithTrace(ctx).Info("bound")
	l.Logger().InfoContext(context.Background(), "no span")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, sc.TraceID().String(), lines[0]["trace_id"])
	assert.Equal(t, sc.SpanID().String(), lines[0]["span_id"])
	assert.Equal(t, sc.TraceID().String(), lines[1]["trace_id"])
	assert.NotContains(t, lines[2], "trace_id")
}

func TestWithTrace_NoSpan(t *testing.T) {
	t.Parallel()

	sl := slog.New(slog.DiscardHandler)
	assert.Same(t, sl, WithTrace(context.Background(), sl))
	assert.NotNil(t, WithTrace(context.Background(), nil))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Level{
		"":      LevelInfo,
		"debug": LevelDebug,
		"INFO":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestParseHandlerType(t *testing.T) {
	t.Parallel()

	got, err := ParseHandlerType(" Console ")
	require.NoError(t, err)
	assert.Equal(t, ConsoleHandler, got)

	got, err = ParseHandlerType("")
	require.NoError(t, err)
	assert.Equal(t, JSONHandler, got)

	_, err = ParseHandlerType("xml")
	assert.ErrorIs(t, err, ErrInvalidHandler)
}

func TestOrDiscard(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, OrDiscard(nil))
	sl := slog.Default()
	assert.Same(t, sl, OrDiscard(sl))
}
