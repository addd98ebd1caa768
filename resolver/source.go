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
	"fmt"
	"strings"
)

// Conventional reader names.
const (
	DefaultHeaderName     = "X-Api-Version"
	DefaultQueryParam     = "api-version"
	DefaultMediaTypeParam = "v"
	VersionPlaceholder    = "{version}"
)

// SourceKind identifies where in a request a candidate version is read from.
type SourceKind uint8

const (
	// SourceNone marks a result whose version was not read from the
	// request (the policy default was applied, or nothing resolved).
	SourceNone SourceKind = iota
	// SourceURLSegment reads a path segment, e.g. "/api/v{version}".
	SourceURLSegment
	// SourceHeader reads an HTTP header, e.g. "X-Api-Version".
	SourceHeader
	// SourceQuery reads a query-string parameter, e.g. "api-version".
	SourceQuery
	// SourceMediaType reads a media-type parameter, e.g. "application/json; v=2".
	SourceMediaType
)

// String returns the lowercase name used in logs, metrics and span attributes.
func (k SourceKind) String() string {
	switch k {
	case SourceURLSegment:
		return "path"
	case SourceHeader:
		return "header"
	case SourceQuery:
		return "query"
	case SourceMediaType:
		return "media_type"
	default:
		return "none"
	}
}

// ParseSourceKind maps the names returned by [SourceKind.String]
// (plus a few common aliases) back to a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "path", "url", "segment", "url_segment":
		return SourceURLSegment, nil
	case "header":
		return SourceHeader, nil
	case "query", "query_string":
		return SourceQuery, nil
	case "media_type", "mediatype", "accept":
		return SourceMediaType, nil
	default:
		return SourceNone, fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
	}
}

// Reader is one version reader strategy: a source kind plus the name
// it reads (path template, header name, query parameter, or media-type
// parameter). Readers are comparable and can be used as map keys.
type Reader struct {
	Kind SourceKind
	Name string
}

// URLSegment returns a reader for the path segment matched by template.
// The template must contain [VersionPlaceholder].
func URLSegment(template string) Reader {
	return Reader{Kind: SourceURLSegment, Name: template}
}

// Header returns a reader for the named request header.
func Header(name string) Reader {
	return Reader{Kind: SourceHeader, Name: name}
}

// Query returns a reader for the named query-string parameter.
func Query(name string) Reader {
	return Reader{Kind: SourceQuery, Name: name}
}

// MediaType returns a reader for the named media-type parameter on the
// Accept and Content-Type headers.
func MediaType(param string) Reader {
	return Reader{Kind: SourceMediaType, Name: param}
}

// DefaultReaders returns the conventional reader order:
// query "api-version" then header "X-Api-Version".
func DefaultReaders() []Reader {
	return []Reader{Query(DefaultQueryParam), Header(DefaultHeaderName)}
}

// String renders the reader as "kind:name".
func (r Reader) String() string {
	if r.Kind == SourceNone {
		return "none"
	}
	return r.Kind.String() + ":" + r.Name
}

// validate checks that the reader names something readable.
func (r Reader) validate() error {
	switch r.Kind {
	case SourceURLSegment:
		if strings.TrimSpace(r.Name) == "" {
			return ErrEmptyPathTemplate
		}
		if strings.Count(r.Name, VersionPlaceholder) != 1 {
			return fmt.Errorf("%w: %q", ErrMissingVersionPlaceholder, r.Name)
		}
	case SourceHeader:
		if strings.TrimSpace(r.Name) == "" {
			return ErrEmptyHeaderName
		}
	case SourceQuery:
		if strings.TrimSpace(r.Name) == "" {
			return ErrEmptyQueryParam
		}
	case SourceMediaType:
		if strings.TrimSpace(r.Name) == "" {
			return ErrEmptyMediaTypeParam
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownSourceKind, r.Kind)
	}
	return nil
}

// Candidate is a version string found by a reader in one request.
type Candidate struct {
	Source Reader
	Raw    string
}

// Signals holds the raw candidate strings extracted from one request,
// keyed by the reader that produced them. Readers that found nothing
// are simply absent. The adapter layer (package extract) builds Signals
// from an *http.Request; tests and non-HTTP callers can build them directly.
type Signals map[Reader]string
