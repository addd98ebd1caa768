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

package echoversion

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()

	policy, err := resolver.NewPolicy(
		resolver.WithSupportedVersions("1", "2"),
		resolver.WithDefault(version.New(1)),
		resolver.AssumeDefaultWhenUnspecified(),
		resolver.WithReaders(resolver.URLSegment("/v{version}"), resolver.Header(resolver.DefaultHeaderName)),
	)
	require.NoError(t, err)

	e := echo.New()
	e.Use(Middleware(negotiate.MustNew(policy, negotiate.WithVersionHeader())))
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "v"+Version(c).String())
	}
	e.GET("/users", handler)
	e.GET("/v1/users", handler)
	e.GET("/v2/users", handler)
	return e
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	e := newEcho(t)

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{name: "default", target: "/users", want: "v1"},
		{name: "header", target: "/users", header: "2", want: "v2"},
		{name: "segment", target: "/v2/users", want: "v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(resolver.DefaultHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
			assert.Equal(t, "1, 2", rec.Header().Get(negotiate.DefaultSupportedHeader))
			assert.Equal(t, tt.want[1:], rec.Header().Get(negotiate.DefaultVersionHeader))
		})
	}
}

func TestMiddlewareRejects(t *testing.T) {
	t.Parallel()

	e := newEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/v7/users", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UnsupportedApiVersion", body["code"])
	assert.Equal(t, []any{"1", "2"}, body["supportedVersions"])
}

func TestVersionOutsideMiddleware(t *testing.T) {
	t.Parallel()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := Result(c)
	assert.False(t, ok)
	assert.True(t, Version(c).IsZero())
}
