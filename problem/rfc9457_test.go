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

package problem

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *RFC9457
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "plain error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        &testError{message: "something went wrong"},
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
		},
		{
			name:       "coded error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        versionError(),
			wantStatus: http.StatusBadRequest,
			wantType:   "https://api.example.com/problems/UnsupportedApiVersion",
		},
		{
			name:       "no base URL",
			formatter:  NewRFC9457(""),
			err:        versionError(),
			wantStatus: http.StatusBadRequest,
			wantType:   "UnsupportedApiVersion",
		},
		{
			name:       "explicit status",
			formatter:  NewRFC9457(""),
			err:        WithStatus(&testError{message: "gone"}, http.StatusGone),
			wantStatus: http.StatusGone,
			wantType:   "about:blank",
		},
		{
			name: "custom resolvers",
			formatter: &RFC9457{
				TypeResolver:   func(error) string { return "urn:custom" },
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        versionError(),
			wantStatus: http.StatusTeapot,
			wantType:   "urn:custom",
		},
		{
			name:       "wrapped error",
			formatter:  NewRFC9457(""),
			err:        fmt.Errorf("negotiate: %w", versionError()),
			wantStatus: http.StatusBadRequest,
			wantType:   "UnsupportedApiVersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			resp := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, ContentTypeProblemJSON, resp.ContentType)

			body, ok := resp.Body.(ProblemDetail)
			require.True(t, ok, "Body is not ProblemDetail, got %T", resp.Body)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, http.StatusText(tt.wantStatus), body.Title)
			assert.Equal(t, tt.err.Error(), body.Detail)
			assert.Equal(t, "/users", body.Instance)
		})
	}
}

func TestRFC9457_ErrorID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	body := NewRFC9457("").Format(req, versionError()).Body.(ProblemDetail)
	id, ok := body.Extensions["error_id"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	custom := &RFC9457{ErrorIDGenerator: func() string { return "custom-id-123" }}
	body = custom.Format(req, versionError()).Body.(ProblemDetail)
	assert.Equal(t, "custom-id-123", body.Extensions["error_id"])

	disabled := &RFC9457{DisableErrorID: true}
	body = disabled.Format(req, versionError()).Body.(ProblemDetail)
	assert.NotContains(t, body.Extensions, "error_id")
}

func TestRFC9457_Extensions(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	err := versionError()
	err.details = map[string]any{"field": "x"}

	resp := (&RFC9457{DisableErrorID: true}).Format(req, err)
	data, mErr := json.Marshal(resp.Body)
	require.NoError(t, mErr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "UnsupportedApiVersion", got["code"])
	assert.Equal(t, "3", got["requestedVersion"])
	assert.Equal(t, []any{"1", "2"}, got["supportedVersions"])
	assert.Equal(t, map[string]any{"field": "x"}, got["errors"])
	assert.InDelta(t, 400, got["status"], 0, "reserved member is not overwritten")
	assert.Equal(t, "hijack", got["error"], "only RFC 9457 members are reserved")
}

func TestRFC9457_NilInputs(t *testing.T) {
	t.Parallel()

	resp := (&RFC9457{DisableErrorID: true}).Format(nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	body := resp.Body.(ProblemDetail)
	assert.Empty(t, body.Instance)
	assert.Equal(t, "Internal Server Error", body.Detail)
}

func TestProblemDetail_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	p := ProblemDetail{
		Type:     "https://api.example.com/problems/InvalidApiVersion",
		Title:    "Bad Request",
		Status:   400,
		Detail:   "invalid",
		Instance: "/api/users",
		Extensions: map[string]any{
			"error_id": "err-123",
			"type":     "overwritten",
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back ProblemDetail
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, p.Type, back.Type)
	assert.Equal(t, p.Status, back.Status)
	assert.Equal(t, p.Instance, back.Instance)
	assert.Equal(t, map[string]any{"error_id": "err-123"}, back.Extensions)
}
