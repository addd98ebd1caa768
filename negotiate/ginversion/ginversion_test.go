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

package ginversion

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()

	policy, err := resolver.NewPolicy(
		resolver.WithSupportedVersions("1", "2"),
		resolver.WithDefault(version.New(2)),
		resolver.AssumeDefaultWhenUnspecified(),
		resolver.WithDeprecated(version.New(1)),
		resolver.WithReaders(resolver.Header(resolver.DefaultHeaderName), resolver.Query(resolver.DefaultQueryParam)),
	)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(negotiate.MustNew(policy)))
	r.GET("/users", func(c *gin.Context) {
		fromRequest := negotiate.VersionFromContext(c.Request.Context())
		c.String(http.StatusOK, "%s/%s", Version(c), fromRequest)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	r := newEngine(t)

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{name: "default", target: "/users", want: "2/2"},
		{name: "header", target: "/users", header: "1", want: "1/1"},
		{name: "query", target: "/users?api-version=2", want: "2/2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(resolver.DefaultHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
			assert.Equal(t, "1, 2", rec.Header().Get(negotiate.DefaultSupportedHeader))
			assert.Equal(t, "1", rec.Header().Get(negotiate.DefaultDeprecatedHeader))
		})
	}
}

func TestMiddlewareAborts(t *testing.T) {
	t.Parallel()

	r := newEngine(t)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set(resolver.DefaultHeaderName, "3")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "1, 2", rec.Header().Get(negotiate.DefaultSupportedHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "UnsupportedApiVersion", body["code"])
	assert.Equal(t, "3", body["requestedVersion"])
}

func TestVersionOutsideMiddleware(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := Result(c)
	assert.False(t, ok)
	assert.True(t, Version(c).IsZero())
}
