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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

func newManualRecorder(t *testing.T, opts ...Option) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	rec, err := New(append([]Option{WithMeterProvider(mp), WithServiceName("test")}, opts...)...)
	require.NoError(t, err)

	return rec, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	require.Failf(t, "metric not found", "%s", name)
	return metricdata.Metrics{}
}

func attr(set attribute.Set, key attribute.Key) string {
	v, _ := set.Value(key)
	return v.Emit()
}

func TestRecordResolution(t *testing.T) {
	t.Parallel()

	rec, reader := newManualRecorder(t)
	ctx := context.Background()
	v2 := version.MustParse("2")

	rec.RecordResolution(ctx, "GET /users", resolver.Result{Version: v2, Source: resolver.Header("X-Api-Version")}, nil)
	rec.RecordResolution(ctx, "GET /users", resolver.Result{Version: v2, Defaulted: true}, nil)
	rec.RecordResolution(ctx, "GET /users", resolver.Result{}, &resolver.Error{Kind: resolver.KindUnsupportedVersion})

	m := collect(t, reader, "apiversion.resolutions")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "got %T", m.Data)
	require.Len(t, sum.DataPoints, 3)

	outcomes := map[string]metricdata.DataPoint[int64]{}
	for _, dp := range sum.DataPoints {
		outcomes[attr(dp.Attributes, AttrOutcome)] = dp
	}

	resolved := outcomes[OutcomeResolved]
	assert.Equal(t, int64(1), resolved.Value)
	assert.Equal(t, "2", attr(resolved.Attributes, AttrAPIVersion))
	assert.Equal(t, "header", attr(resolved.Attributes, AttrSource))
	assert.Equal(t, "GET /users", attr(resolved.Attributes, AttrRoute))
	assert.Equal(t, "test", attr(resolved.Attributes, "service.name"))

	assert.Equal(t, "none", attr(outcomes[OutcomeDefaulted].Attributes, AttrSource))
	assert.Contains(t, outcomes, "unsupported_version")
}

func TestRecordDeprecatedUse(t *testing.T) {
	t.Parallel()

	rec, reader := newManualRecorder(t)
	rec.RecordDeprecatedUse(context.Background(), "GET /users", version.MustParse("1"))
	rec.RecordDeprecatedUse(context.Background(), "GET /users", version.MustParse("1"))

	sum := collect(t, reader, "apiversion.deprecated.requests").Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	assert.Equal(t, "1", attr(sum.DataPoints[0].Attributes, AttrAPIVersion))
}

func TestMiddleware_LabelsFromInnerHandler(t *testing.T) {
	t.Parallel()

	rec, reader := newManualRecorder(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Label(r.Context(), AttrRoute.String("GET /users"), AttrAPIVersion.String("1"))
		Label(r.Context(), AttrAPIVersion.String("2"))
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	Middleware(rec)(inner).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", nil))

	hist, ok := collect(t, reader, "http.server.request.duration").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)

	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.Equal(t, "201", attr(dp.Attributes, AttrStatus))
	assert.Equal(t, "POST", attr(dp.Attributes, AttrMethod))
	assert.Equal(t, "GET /users", attr(dp.Attributes, AttrRoute))
	assert.Equal(t, "2", attr(dp.Attributes, AttrAPIVersion))
	assert.Equal(t, DefaultDurationBuckets, dp.Bounds)
}

func TestMiddleware_DefaultStatusAndNilRecorder(t *testing.T) {
	t.Parallel()

	rec, reader := newManualRecorder(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "hi") })

	Middleware(rec)(ok).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	hist := collect(t, reader, "http.server.request.duration").Data.(metricdata.Histogram[float64])
	assert.Equal(t, "200", attr(hist.DataPoints[0].Attributes, AttrStatus))

	h := Middleware(nil)(ok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "hi", w.Body.String())

	// Label outside of a middleware is a no-op.
	Label(context.Background(), AttrRoute.String("x"))
}

func TestNilRecorder(t *testing.T) {
	t.Parallel()

	var rec *Recorder
	ctx := context.Background()
	rec.RecordResolution(ctx, "r", resolver.Result{}, nil)
	rec.RecordDeprecatedUse(ctx, "r", version.New(1))
	rec.RecordRequest(ctx, http.MethodGet, 200, time.Millisecond)
	require.NoError(t, rec.Start(ctx))
	require.NoError(t, rec.Shutdown(ctx))
	require.NoError(t, rec.ForceFlush(ctx))
}

func TestPrometheusHandler(t *testing.T) {
	t.Parallel()

	rec, err := New(WithPrometheus("127.0.0.1:0", "metrics"), WithServerDisabled(), WithServiceName("svc"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })

	assert.Equal(t, "/metrics", rec.Path())
	rec.RecordResolution(context.Background(), "GET /users", resolver.Result{Version: version.New(1)}, nil)

	h, err := rec.Handler()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "apiversion_resolutions_total")

	require.NoError(t, rec.Start(context.Background()))
	assert.Empty(t, rec.ServerAddress(), "server disabled")
}

func TestPrometheusServer(t *testing.T) {
	t.Parallel()

	rec := MustNew(WithPrometheus("127.0.0.1:0", "/metrics"))
	ctx := context.Background()
	require.NoError(t, rec.Start(ctx))
	require.NoError(t, rec.Start(ctx), "second start is a no-op")

	addr := rec.ServerAddress()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, rec.Shutdown(ctx))
	assert.Empty(t, rec.ServerAddress())
	require.NoError(t, rec.Shutdown(ctx), "second shutdown is a no-op")
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(WithStdout(), WithPrometheus(":1", "/m"))
	require.ErrorIs(t, err, ErrConflictingProviders)

	_, err = New(WithServiceName(""))
	require.ErrorIs(t, err, ErrEmptyServiceName)

	_, err = New(WithServiceVersion(""))
	require.ErrorIs(t, err, ErrEmptyServiceVersion)

	_, err = New(WithMeterProvider(nil))
	require.ErrorIs(t, err, ErrNilMeterProvider)

	_, err = New(WithPrometheus("", ""))
	require.ErrorIs(t, err, ErrInvalidPrometheus)

	assert.Panics(t, func() { MustNew(WithServiceName("")) })
}

func TestStdoutProvider(t *testing.T) {
	t.Parallel()

	var events []Event
	rec, err := New(WithStdout(), WithExportInterval(time.Hour), WithEventHandler(func(e Event) { events = append(events, e) }))
	require.NoError(t, err)
	assert.Equal(t, StdoutProvider, rec.Provider())

	_, err = rec.Handler()
	require.ErrorIs(t, err, ErrNoHandler)
	assert.Empty(t, rec.Path())
	require.NoError(t, rec.Shutdown(context.Background()))
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, OutcomeResolved, Outcome(resolver.Result{}, nil))
	assert.Equal(t, OutcomeDefaulted, Outcome(resolver.Result{Defaulted: true}, nil))
	assert.Equal(t, "malformed_version", Outcome(resolver.Result{}, &resolver.Error{Kind: resolver.KindMalformedVersion}))
	assert.Equal(t, "error", Outcome(resolver.Result{}, io.EOF))
}

func TestParseProvider(t *testing.T) {
	t.Parallel()

	p, err := ParseProvider("otlp")
	require.NoError(t, err)
	assert.Equal(t, OTLPProvider, p)

	_, err = ParseProvider("statsd")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestDefaultEventHandler(t *testing.T) {
	t.Parallel()

	h := DefaultEventHandler(nil)
	h(Event{Type: EventError, Message: "dropped"})
}
