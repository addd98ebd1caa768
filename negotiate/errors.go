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

package negotiate

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

// Static errors for negotiator configuration.
var (
	ErrNilPolicy       = errors.New("policy cannot be nil")
	ErrEmptyHeaderName = errors.New("header name cannot be empty")
	ErrNilFormatter    = errors.New("formatter cannot be nil")
	ErrNilClock        = errors.New("clock cannot be nil")
)

// ErrSunset is matched by errors.Is for requests to a version past its
// sunset date when sunset enforcement is enabled.
var ErrSunset = errors.New("api version has been sunset")

// Error is a rejected request. It wraps the underlying failure and carries
// the resolution result so the problem response can list the valid
// versions.
type Error struct {
	Err    error
	Result resolver.Result
}

// Error returns the message of the wrapped failure.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// Extensions adds the supported, deprecated and requested versions to the
// problem response.
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{
		"supportedVersions": e.Result.Supported.Strings(),
	}
	if e.Result.Deprecated.Len() > 0 {
		ext["deprecatedVersions"] = e.Result.Deprecated.Strings()
	}

	var re *resolver.Error
	var se *SunsetError
	switch {
	case errors.As(e.Err, &re) && re.Candidate.Raw != "":
		ext["requestedVersion"] = re.Candidate.Raw
	case errors.As(e.Err, &se):
		ext["requestedVersion"] = se.Version.String()
		ext["sunset"] = se.Sunset.UTC().Format(time.RFC3339)
	}

	return ext
}

// SunsetError reports a request for a version that is past its sunset date.
type SunsetError struct {
	Version version.Version
	Sunset  time.Time
}

// Error returns a human-readable message.
func (e *SunsetError) Error() string {
	return fmt.Sprintf("the API version %q was removed on %s", e.Version, e.Sunset.UTC().Format(http.TimeFormat))
}

// Unwrap returns [ErrSunset].
func (e *SunsetError) Unwrap() error { return ErrSunset }

// HTTPStatus returns 410 Gone.
func (e *SunsetError) HTTPStatus() int { return http.StatusGone }

// Code returns a machine-readable error code.
func (e *SunsetError) Code() string { return "ApiVersionSunset" }

// Outcome names the rejection in metrics and spans.
func (e *SunsetError) Outcome() string { return "sunset" }
