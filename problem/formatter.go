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
	"errors"
	"fmt"
	"net/http"
)

// Formatter converts an error into HTTP response components.
// Implementations are framework-agnostic.
//
// Example:
//
//	resp := formatter.Format(req, err)
//	_ = problem.Write(w, resp)
type Formatter interface {
	// Format converts err into a Response. req supplies the instance URI.
	Format(req *http.Request, err error) Response
}

// Response is a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is marshaled to JSON by [Write].
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
// Example:
//
//	func (e NotFoundError) HTTPStatus() int {
//		return http.StatusNotFound
//	}
type ErrorType interface {
	error
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
type ErrorDetails interface {
	error
	// Details returns structured information about the error.
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	// Code returns a machine-readable error code.
	Code() string
}

// ErrorExtensions allows errors to add top-level members to the response
// body. Members that collide with the formatter's own fields are dropped.
type ErrorExtensions interface {
	error
	// Extensions returns the extra members.
	Extensions() map[string]any
}

// NewRFC9457 creates a new RFC9457 formatter.
// baseURL is prepended to error codes to build problem type URIs.
//
// Example:
//
//	formatter := problem.NewRFC9457("https://api.example.com/problems")
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{
		BaseURL: baseURL,
	}
}

// NewSimple creates a new Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// WithStatus wraps an error with an explicit HTTP status code.
// If err is nil, the status text is used as the error message.
//
// Example:
//
//	return problem.WithStatus(err, http.StatusGone)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

// statusError wraps an error with an explicit status code.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// Write writes resp to w: extra headers, Content-Type, status, then the
// JSON-encoded body. A nil body writes no content.
func Write(w http.ResponseWriter, resp Response) error {
	h := w.Header()
	for k, vs := range resp.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if resp.ContentType != "" {
		h.Set("Content-Type", resp.ContentType)
	}
	h.Set("X-Content-Type-Options", "nosniff")

	status := resp.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)

	if resp.Body == nil {
		return nil
	}
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		return fmt.Errorf("encode problem body: %w", err)
	}
	return nil
}

// statusOf picks the status for err: resolver first, then the ErrorType
// interface, then 500.
func statusOf(resolve func(error) int, err error) int {
	if resolve != nil {
		return resolve(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

// enrich copies code, details and extensions of err into members.
// detailsKey names the member holding ErrorDetails.
func enrich(members map[string]any, err error, detailsKey string, reserved func(string) bool) {
	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		members[detailsKey] = detailed.Details()
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		members["code"] = coded.Code()
	}

	var extended ErrorExtensions
	if errors.As(err, &extended) {
		for k, v := range extended.Extensions() {
			if reserved(k) {
				continue
			}
			members[k] = v
		}
	}
}
