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

package extract

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/apiversion/resolver"
)

var (
	segment = resolver.URLSegment("/api/v{version}")
	header  = resolver.Header(resolver.DefaultHeaderName)
	query   = resolver.Query(resolver.DefaultQueryParam)
	media   = resolver.MediaType(resolver.DefaultMediaTypeParam)

	allReaders = []resolver.Reader{segment, header, query, media}
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    resolver.Signals
	}{
		{
			name:   "nothing",
			target: "/api/users",
			want:   resolver.Signals{},
		},
		{
			name:   "url segment",
			target: "/api/v2/users",
			want:   resolver.Signals{segment: "2"},
		},
		{
			name:   "url segment at end",
			target: "/api/v1.1",
			want:   resolver.Signals{segment: "1.1"},
		},
		{
			name:    "header",
			target:  "/users",
			headers: map[string]string{"X-Api-Version": " 3 "},
			want:    resolver.Signals{header: "3"},
		},
		{
			name:   "query",
			target: "/users?api-version=2.0&x=1",
			want:   resolver.Signals{query: "2.0"},
		},
		{
			name:   "empty query value",
			target: "/users?api-version=",
			want:   resolver.Signals{},
		},
		{
			name:    "accept parameter",
			target:  "/users",
			headers: map[string]string{"Accept": "text/html, application/json; v=2; q=0.9"},
			want:    resolver.Signals{media: "2"},
		},
		{
			name:    "content type parameter",
			target:  "/users",
			headers: map[string]string{"Content-Type": "application/json; v=1"},
			want:    resolver.Signals{media: "1"},
		},
		{
			name:   "every source",
			target: "/api/v1/users?api-version=2",
			headers: map[string]string{
				"X-Api-Version": "3",
				"Accept":        "application/json;v=4",
			},
			want: resolver.Signals{segment: "1", header: "3", query: "2", media: "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, FromRequest(req, allReaders))
		})
	}
}

func TestFromRequestNil(t *testing.T) {
	t.Parallel()

	signals := FromRequest(nil, allReaders)
	require.NotNil(t, signals)
	assert.Empty(t, signals)
}

func TestFromRequestOnlyConfiguredReaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?api-version=2", nil)
	assert.Equal(t, resolver.Signals{query: "2"}, FromRequest(req, []resolver.Reader{query}))
}

func TestSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, template string
		want           string
		ok             bool
	}{
		{"/api/v2/users", "/api/v{version}", "2", true},
		{"/api/v2", "/api/v{version}/", "2", true},
		{"/v10/orders/7", "/v{version}", "10", true},
		{"/2.1/orders", "/{version}", "2.1", true},
		{"/api/users", "/v{version}", "", false},
		{"/api/v", "/api/v{version}", "", false},
		{"/api/v/users", "/api/v{version}", "", false},
		{"/api/v2", "/api/v2", "", false},
		{"/api/videos", "/api/v{version}", "", false},
		{"/api/videos/7", "/api/v{version}", "", false},
		{"/users/7", "/{version}", "", false},
		{"/v2/users", "/{version}", "v2", true},
		{"/api/v2x/users", "/api/v{version}", "2x", true},
	}

	for _, tt := range tests {
		got, ok := Segment(tt.path, tt.template)
		assert.Equal(t, tt.ok, ok, "%s against %s", tt.path, tt.template)
		assert.Equal(t, tt.want, got, "%s against %s", tt.path, tt.template)
	}
}

func TestStripSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		readers []resolver.Reader
		want    string
	}{
		{"/api/v2/users", allReaders, "/api/users"},
		{"/api/v2/users/7", allReaders, "/api/users/7"},
		{"/api/v2", allReaders, "/api"},
		{"/api/v2/", allReaders, "/api/"},
		{"/v1/users", []resolver.Reader{resolver.URLSegment("/v{version}")}, "/users"},
		{"/v1", []resolver.Reader{resolver.URLSegment("/v{version}")}, "/"},
		{"/api/users", allReaders, "/api/users"},
		{"/api/v2/users", []resolver.Reader{header, query}, "/api/v2/users"},
		{"/api/videos", allReaders, "/api/videos"},
		{"/api/videos/7", allReaders, "/api/videos/7"},
		{
			"/v3/items",
			[]resolver.Reader{resolver.URLSegment("/api/v{version}"), resolver.URLSegment("/v{version}")},
			"/items",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripSegment(tt.path, tt.readers), tt.path)
	}
}

func TestReadMalformedMediaType(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json; v")
	_, ok := Read(req, media)
	assert.False(t, ok)
}

func BenchmarkFromRequest(b *testing.B) {
	req := httptest.NewRequest(http.MethodGet, "/api/v2/users?api-version=2", nil)
	req.Header.Set("X-Api-Version", "2")

	b.ReportAllocs()
	for b.Loop() {
		_ = FromRequest(req, allReaders)
	}
}

func TestReplaceSegment(t *testing.T) {
	t.Parallel()

	got, ok := ReplaceSegment("/api/v1/users/7", allReaders, "2")
	require.True(t, ok)
	assert.Equal(t, "/api/v2/users/7", got)

	got, ok = ReplaceSegment("/api/v1.5", allReaders, "2")
	require.True(t, ok)
	assert.Equal(t, "/api/v2", got)

	got, ok = ReplaceSegment("/users", allReaders, "2")
	assert.False(t, ok)
	assert.Equal(t, "/users", got)

	_, ok = ReplaceSegment("/api/v1/users", []resolver.Reader{header}, "2")
	assert.False(t, ok)

	got, ok = ReplaceSegment("/api/videos", allReaders, "2")
	assert.False(t, ok)
	assert.Equal(t, "/api/videos", got)
}

func TestFromRequestNonVersionSegment(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.Header.Set("X-Api-Version", "1")

	signals := FromRequest(req, []resolver.Reader{segment, header})
	assert.Equal(t, resolver.Signals{header: "1"}, signals)

	p, err := resolver.NewPolicy(resolver.WithSupportedVersions("1"), resolver.WithReaders(segment, header))
	require.NoError(t, err)
	res, err := resolver.Resolve(p, signals)
	require.NoError(t, err)
	assert.Equal(t, "1", res.Version.String())
	assert.Equal(t, header, res.Source)
}
