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

// Package extract pulls candidate API version strings out of HTTP requests.
//
// It is the adapter between net/http and the resolver: for each configured
// [resolver.Reader] it reads the raw text the reader names and returns the
// collected [resolver.Signals]. Parsing and policy decisions stay in the
// resolver.
//
// Example:
//
//	readers := []resolver.Reader{
//	    resolver.URLSegment("/api/v{version}"),
//	    resolver.Header("X-Api-Version"),
//	}
//	signals := extract.FromRequest(req, readers)
//	result, err := resolver.Resolve(policy, signals)
package extract

import (
	"mime"
	"net/http"
	"strings"

	"rivaas.dev/apiversion/resolver"
)

// FromRequest returns the candidate text found in req for each reader.
// Readers that find nothing (or only whitespace) are absent from the result.
// A nil request yields empty signals.
func FromRequest(req *http.Request, readers []resolver.Reader) resolver.Signals {
	signals := make(resolver.Signals, len(readers))
	if req == nil {
		return signals
	}

	for _, r := range readers {
		if raw, ok := Read(req, r); ok {
			signals[r] = raw
		}
	}

	return signals
}

// Read returns the candidate text for a single reader.
func Read(req *http.Request, r resolver.Reader) (string, bool) {
	if req == nil {
		return "", false
	}

	var raw string
	switch r.Kind {
	case resolver.SourceURLSegment:
		if req.URL == nil {
			return "", false
		}
		raw, _ = Segment(req.URL.Path, r.Name)
	case resolver.SourceHeader:
		raw = req.Header.Get(r.Name)
	case resolver.SourceQuery:
		if req.URL == nil {
			return "", false
		}
		raw = req.URL.Query().Get(r.Name)
	case resolver.SourceMediaType:
		raw = mediaTypeParam(req.Header, r.Name)
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// Segment extracts the version text matched by the {version} placeholder
// of template from path. The literal prefix before the placeholder must
// match the start of path; the version runs up to the next "/" and must
// start with a digit (optionally after a "v"). Other segments are not
// version segments, so "/api/videos" yields nothing for "/api/v{version}".
//
// Example:
//
//	extract.Segment("/api/v2/users", "/api/v{version}") // "2", true
//	extract.Segment("/api/videos", "/api/v{version}")   // "", false
func Segment(path, template string) (string, bool) {
	prefix, ok := templatePrefix(template)
	if !ok || !strings.HasPrefix(path, prefix) {
		return "", false
	}

	rest := path[len(prefix):]
	if end := strings.IndexByte(rest, '/'); end >= 0 {
		rest = rest[:end]
	}

	if !versionLike(rest) {
		return "", false
	}
	return rest, true
}

// versionLike reports whether seg starts the way a version does.
func versionLike(seg string) bool {
	if seg != "" && (seg[0] == 'v' || seg[0] == 'V') {
		seg = seg[1:]
	}
	return seg != "" && seg[0] >= '0' && seg[0] <= '9'
}

// StripSegment removes the path segment holding the version from path,
// using the first URL segment reader whose template matches. Paths that
// carry no version segment are returned unchanged.
//
// Example:
//
//	extract.StripSegment("/api/v2/users", readers) // "/api/users"
func StripSegment(path string, readers []resolver.Reader) string {
	for _, r := range readers {
		if r.Kind != resolver.SourceURLSegment {
			continue
		}
		if stripped, ok := stripOne(path, r.Name); ok {
			return stripped
		}
	}

	return path
}

// ReplaceSegment rewrites the version text in path to v, using the first
// URL segment reader whose template matches.
//
// Example:
//
//	extract.ReplaceSegment("/api/v1/users", readers, "2") // "/api/v2/users", true
func ReplaceSegment(path string, readers []resolver.Reader, v string) (string, bool) {
	for _, r := range readers {
		if r.Kind != resolver.SourceURLSegment {
			continue
		}
		seg, ok := Segment(path, r.Name)
		if !ok {
			continue
		}
		prefix, _ := templatePrefix(r.Name)
		return path[:len(prefix)] + v + path[len(prefix)+len(seg):], true
	}

	return path, false
}

func stripOne(path, template string) (string, bool) {
	if _, ok := Segment(path, template); !ok {
		return "", false
	}

	prefix, _ := templatePrefix(template)

	// The removed segment starts after the last "/" of the prefix, so a
	// literal like the "v" in "/api/v{version}" goes with it.
	start := strings.LastIndexByte(prefix, '/')
	if start < 0 {
		start = 0
	}

	end := len(prefix)
	if i := strings.IndexByte(path[end:], '/'); i >= 0 {
		end += i
	} else {
		end = len(path)
	}

	stripped := path[:start] + path[end:]
	if stripped == "" || stripped[0] != '/' {
		stripped = "/" + stripped
	}

	return stripped, true
}

// templatePrefix returns the literal text before the placeholder.
func templatePrefix(template string) (string, bool) {
	idx := strings.Index(template, resolver.VersionPlaceholder)
	if idx < 0 {
		return "", false
	}

	return template[:idx], true
}

// mediaTypeParam returns the named parameter from the first Accept entry
// that carries it, falling back to Content-Type.
func mediaTypeParam(h http.Header, name string) string {
	name = strings.ToLower(name)

	for _, accept := range h.Values("Accept") {
		for entry := range strings.SplitSeq(accept, ",") {
			if v := paramOf(entry, name); v != "" {
				return v
			}
		}
	}

	return paramOf(h.Get("Content-Type"), name)
}

func paramOf(mediaType, name string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}

	_, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}

	return params[name]
}
