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
	"errors"
	"net/http"
)

// Simple formats errors as a flat JSON object:
//
//	{"error": "...", "code": "...", "details": ...}
type Simple struct {
	// StatusResolver determines HTTP status from error.
	// If nil, uses the ErrorType interface or defaults to 500.
	StatusResolver func(err error) int
}

// Format converts an error to a simple JSON body.
func (f *Simple) Format(_ *http.Request, err error) Response {
	if err == nil {
		err = errors.New(http.StatusText(http.StatusInternalServerError))
	}

	body := map[string]any{
		"error": err.Error(),
	}
	enrich(body, err, "details", func(k string) bool { return k == "error" })

	return Response{
		Status:      statusOf(f.StatusResolver, err),
		ContentType: "application/json; charset=utf-8",
		Body:        body,
	}
}
