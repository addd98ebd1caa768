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

package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apiversion/config/codec"
	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

const gatewayYAML = `
server:
  addr: ":8081"
logging:
  format: console
versioning:
  readers:
    - kind: path
      name: /api/v{version}
    - kind: header
      name: X-Api-Version
  default: "2"
  assume_default: true
  warning299: true
routes:
  - pattern: /api/users
    versions:
      - version: "1"
        upstream: http://users-v1:8080
        deprecated: true
        deprecated_since: "2025-06-01"
        sunset: "2026-12-31"
        migration_url: https://docs.example.com/v2
        successor: "2"
      - version: 2
        upstream: http://users-v2:8080
  - method: post
    pattern: /api/orders
    versions:
      - version: "1"
`

func loadDocument(t *testing.T, opts ...Option) (*Document, error) {
	t.Helper()
	var doc Document
	cfg, err := New(append([]Option{
		WithContent([]byte(gatewayYAML), codec.TypeYAML),
		WithJSONSchema(DefaultSchema),
		WithBinding(&doc),
	}, opts...)...)
	require.NoError(t, err)
	return &doc, cfg.Load(t.Context())
}

func TestDocumentLoad(t *testing.T) {
	t.Parallel()

	doc, err := loadDocument(t)
	require.NoError(t, err)

	assert.Equal(t, ":8081", doc.Server.Addr)
	assert.Equal(t, 10*time.Second, doc.Server.ShutdownTimeout)
	assert.Equal(t, "X-Request-ID", doc.Server.RequestIDHeader)
	assert.Equal(t, "uuid", doc.Server.RequestIDFormat)
	assert.Equal(t, "console", doc.Logging.Format)
	assert.Equal(t, "info", doc.Logging.Level)
	assert.Equal(t, "prometheus", doc.Metrics.Provider)
	assert.Equal(t, "noop", doc.Tracing.Provider)
	assert.InDelta(t, 1.0, doc.Tracing.SampleRate, 1e-9)
	assert.Equal(t, "api-supported-versions", doc.Versioning.SupportedHeader)
	assert.Equal(t, "rfc9457", doc.Versioning.Problem.Format)
	assert.Equal(t, "2", doc.Versioning.Default.String())
	assert.True(t, doc.Versioning.AssumeDefault)

	require.Len(t, doc.Routes, 2)
	users := doc.Routes[0]
	assert.Equal(t, "GET", users.Method)
	require.Len(t, users.Versions, 2)
	v1 := users.Versions[0]
	assert.True(t, v1.Deprecated)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), v1.Sunset.UTC())
	assert.Equal(t, "2", v1.Successor.String())
	assert.Equal(t, "2", users.Versions[1].Version.String())
	assert.Equal(t, "post", doc.Routes[1].Method)

	readers, err := doc.Versioning.ResolverReaders()
	require.NoError(t, err)
	assert.Equal(t, []resolver.Reader{resolver.URLSegment("/api/v{version}"), resolver.Header("X-Api-Version")}, readers)
}

func TestDocumentSchemaRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := loadDocument(t, WithContent([]byte(`{"versioning":{"readerz":[]}}`), codec.TypeJSON))

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "json-schema", cerr.Source)
}

func TestDocumentEnvOverride(t *testing.T) {
	t.Setenv("APIVDOC_TRACING__PROVIDER", "stdout")
	t.Setenv("APIVDOC_TRACING__SAMPLE_RATE", "0.1")
	t.Setenv("APIVDOC_SERVER__SHUTDOWN_TIMEOUT", "30s")

	doc, err := loadDocument(t, WithEnv("APIVDOC_"))
	require.NoError(t, err)
	assert.Equal(t, "stdout", doc.Tracing.Provider)
	assert.InDelta(t, 0.1, doc.Tracing.SampleRate, 1e-9)
	assert.Equal(t, 30*time.Second, doc.Server.ShutdownTimeout)
}

func TestDocumentValidate(t *testing.T) {
	t.Parallel()

	mk := func(vs ...VersionConfig) Document {
		return Document{Routes: []RouteConfig{{Method: "GET", Pattern: "/a", Versions: vs}}}
	}
	v1, v2 := version.New(1), version.New(2)
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		doc  Document
		want error
	}{
		{name: "zero version", doc: mk(VersionConfig{}), want: ErrZeroRouteVersion},
		{name: "duplicate", doc: mk(VersionConfig{Version: v1}, VersionConfig{Version: version.MustParse("1.0")}), want: ErrDuplicateVersion},
		{name: "unknown successor", doc: mk(VersionConfig{Version: v1, Successor: v2}), want: ErrUnknownSuccessor},
		{name: "sunset first", doc: mk(VersionConfig{Version: v1, DeprecatedSince: day, Sunset: day.AddDate(0, 0, -1)}), want: ErrSunsetBeforeDeprecation},
		{
			name: "bad reader",
			doc:  Document{Versioning: VersioningConfig{Readers: []ReaderConfig{{Kind: "cookie", Name: "v"}}}},
			want: resolver.ErrUnknownSourceKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.doc.Validate(), tt.want)
		})
	}

	ok := mk(VersionConfig{Version: v1, Successor: v2}, VersionConfig{Version: v2})
	assert.NoError(t, ok.Validate())
}

func TestDocumentNegotiatorSettings(t *testing.T) {
	t.Parallel()

	v := VersioningConfig{Problem: ProblemConfig{Format: "simple"}}
	assert.NotNil(t, v.Formatter())
	assert.Len(t, v.NegotiatorOptions(), 1)

	v.VersionHeader, v.Warning299, v.EnforceSunset = true, true, true
	assert.Len(t, v.NegotiatorOptions(), 4)
}

func TestDocumentRegistry(t *testing.T) {
	t.Parallel()

	doc, err := loadDocument(t)
	require.NoError(t, err)

	reg, err := doc.Registry(func(rc RouteConfig, vc VersionConfig) (http.Handler, error) {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(vc.Upstream + " " + negotiate.VersionFromContext(r.Context()).String()))
		}), nil
	})
	require.NoError(t, err)
	require.Len(t, reg.Routes(), 2)

	rec := httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://users-v1:8080 1", rec.Body.String())
	assert.Equal(t, "@1748736000", rec.Header().Get("Deprecation"))
	assert.Contains(t, rec.Header().Get("Link"), `</api/v2/users>; rel="successor-version"`)
	assert.Contains(t, rec.Header().Get("Warning"), "299 -")

	rec = httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, "http://users-v2:8080 2", rec.Body.String(), "default is assumed")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	req.Header.Set("X-Api-Version", "3")
	reg.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("api-supported-versions"))
}

func TestDocumentRegistryHandlerError(t *testing.T) {
	t.Parallel()

	doc, err := loadDocument(t)
	require.NoError(t, err)

	boom := errors.New("no upstream")
	_, err = doc.Registry(func(RouteConfig, VersionConfig) (http.Handler, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = doc.Registry(nil)
	assert.Error(t, err)
}

func TestLoadDocument(t *testing.T) {
	t.Parallel()

	doc, err := LoadDocument(t.Context(), WithContent([]byte(gatewayYAML), codec.TypeYAML))
	require.NoError(t, err)
	assert.Len(t, doc.Routes, 2)

	_, err = LoadDocument(t.Context(), WithContent([]byte(`{"routes":[]}`), codec.TypeJSON))
	require.Error(t, err, "a document needs at least one route")

	_, err = LoadDocument(t.Context(), WithFile("apiversion.ini"))
	require.ErrorIs(t, err, ErrUnknownFormat)
}
