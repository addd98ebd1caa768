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

// Package negotiate applies a versioning policy to HTTP requests.
//
// A [Negotiator] extracts version candidates from a request, resolves them
// against its [resolver.Policy], and advertises the outcome to the client:
//
//	api-supported-versions: 1, 2
//	api-deprecated-versions: 1
//
// Both headers are written whether resolution succeeds or fails. A
// deprecated version also gets lifecycle headers (Deprecation, Sunset,
// Link and optionally Warning: 299).
//
// # Middleware
//
// [Negotiator.Middleware] rejects requests that do not resolve with a
// problem-details response and passes the rest on with the result in the
// request context:
//
//	policy := resolver.MustNewPolicy(
//	    resolver.WithSupportedVersions("1", "2"),
//	    resolver.WithDefault(version.New(2)),
//	    resolver.AssumeDefaultWhenUnspecified(),
//	    resolver.WithReaders(resolver.Header("X-Api-Version")),
//	)
//	n := negotiate.MustNew(policy, negotiate.WithLogger(logger))
//	http.Handle("/users", n.Middleware(usersHandler))
//
// Handlers read the result back with [FromContext] or [VersionFromContext].
//
// # Observability
//
// When configured, every resolution is logged, counted by a
// [metrics.Recorder] and recorded on the current span via
// [tracing.AnnotateResolution].
package negotiate
