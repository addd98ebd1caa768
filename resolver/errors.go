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

package resolver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Static errors for policy configuration.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// Reader errors
	ErrEmptyPathTemplate         = errors.New("path template cannot be empty")
	ErrMissingVersionPlaceholder = errors.New("path template must contain exactly one {version} placeholder")
	ErrEmptyHeaderName           = errors.New("header name cannot be empty")
	ErrEmptyQueryParam           = errors.New("query parameter name cannot be empty")
	ErrEmptyMediaTypeParam       = errors.New("media type parameter name cannot be empty")
	ErrUnknownSourceKind         = errors.New("unknown version source kind")
	ErrDuplicateReader           = errors.New("reader configured more than once")

	// Policy errors
	ErrNoSupportedVersions    = errors.New("at least one supported version is required")
	ErrDefaultNotSupported    = errors.New("default version must be a supported version")
	ErrDeprecatedNotSupported = errors.New("deprecated versions must be supported versions")
	ErrLifecycleNotSupported  = errors.New("lifecycle metadata must target a supported version")
	ErrZeroVersion            = errors.New("version cannot be the zero value")
)

// Sentinel errors for resolution failures. A [*Error] matches exactly one
// of them with errors.Is.
var (
	ErrVersionRequired    = errors.New("api version required")
	ErrMalformedVersion   = errors.New("malformed api version")
	ErrConflictingVersion = errors.New("conflicting api versions")
	ErrUnsupportedVersion = errors.New("unsupported api version")
)

// Kind classifies a resolution failure.
type Kind uint8

const (
	// KindVersionRequired: no candidate was found and no default applies.
	KindVersionRequired Kind = iota + 1
	// KindMalformedVersion: a candidate was found but does not parse.
	KindMalformedVersion
	// KindConflictingVersion: several sources gave different valid versions.
	KindConflictingVersion
	// KindUnsupportedVersion: the version is valid but not supported by the route.
	KindUnsupportedVersion
)

// String returns the kind name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindVersionRequired:
		return "version_required"
	case KindMalformedVersion:
		return "malformed_version"
	case KindConflictingVersion:
		return "conflicting_version"
	case KindUnsupportedVersion:
		return "unsupported_version"
	default:
		return "unknown"
	}
}

// sentinel returns the package-level error matching the kind.
func (k Kind) sentinel() error {
	switch k {
	case KindVersionRequired:
		return ErrVersionRequired
	case KindMalformedVersion:
		return ErrMalformedVersion
	case KindConflictingVersion:
		return ErrConflictingVersion
	case KindUnsupportedVersion:
		return ErrUnsupportedVersion
	default:
		return nil
	}
}

// Error is a request-level resolution failure. It never indicates a
// process fault; callers translate it into a client response.
//
// Error implements the HTTPStatus and Code interfaces understood by the
// problem package, so it renders as a problem-details response without
// further mapping.
type Error struct {
	Kind Kind

	// Candidate is the offending candidate for malformed and unsupported
	// versions, or the first of the conflicting candidates.
	Candidate Candidate

	// Conflicts lists every candidate involved in a conflict, in reader order.
	Conflicts []Candidate

	// Cause is the parse error behind a malformed version.
	Cause error
}

// Error returns a human-readable message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindVersionRequired:
		return "an API version is required, but was not specified"
	case KindMalformedVersion:
		return fmt.Sprintf("the API version %q from %s is invalid", e.Candidate.Raw, e.Candidate.Source)
	case KindConflictingVersion:
		parts := make([]string, len(e.Conflicts))
		for i, c := range e.Conflicts {
			parts[i] = fmt.Sprintf("%q from %s", c.Raw, c.Source)
		}
		return "the request specifies different API versions: " + strings.Join(parts, ", ")
	case KindUnsupportedVersion:
		if e.Candidate.Source.Kind == SourceNone {
			return fmt.Sprintf("the API version %q is not supported", e.Candidate.Raw)
		}
		return fmt.Sprintf("the API version %q from %s is not supported", e.Candidate.Raw, e.Candidate.Source)
	default:
		return "api version resolution failed"
	}
}

// Unwrap returns the sentinel for the failure kind and, for malformed
// versions, the underlying parse error.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// HTTPStatus returns 400 for every kind, except an unsupported version
// taken from the URL path, which names a resource that does not exist (404).
func (e *Error) HTTPStatus() int {
	if e.Kind == KindUnsupportedVersion && e.Candidate.Source.Kind == SourceURLSegment {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// Code returns a machine-readable error code.
func (e *Error) Code() string {
	switch e.Kind {
	case KindVersionRequired:
		return "ApiVersionUnspecified"
	case KindMalformedVersion:
		return "InvalidApiVersion"
	case KindConflictingVersion:
		return "AmbiguousApiVersion"
	case KindUnsupportedVersion:
		return "UnsupportedApiVersion"
	default:
		return "ApiVersionError"
	}
}

// KindOf returns the failure kind of err, or 0 when err is not a
// resolution failure.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
