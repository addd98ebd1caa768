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

// Package registry maps (method, route, version) to handlers.
//
// Routes and their versions are registered explicitly at startup. [Builder.Build]
// derives one immutable [resolver.Policy] per route from the registrations
// and the global options, and the resulting [Registry] dispatches each
// request to the handler of the version it resolves to.
//
// # Basic Usage
//
//	b := registry.New(
//	    registry.WithReaders(
//	        resolver.URLSegment("/api/v{version}"),
//	        resolver.Header("X-Api-Version"),
//	    ),
//	    registry.WithDefault(version.New(2)),
//	    registry.WithAssumeDefault(true),
//	)
//	b.HandleFunc("GET", "/api/users", version.New(1), listUsersV1,
//	    registry.Deprecated(),
//	    registry.Sunset(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
//	)
//	b.HandleFunc("GET", "/api/users", version.New(2), listUsersV2)
//
//	reg, err := b.Build()
//	if err != nil {
//	    return err
//	}
//	http.ListenAndServe(":8080", reg)
//
// # Routing
//
// The version segment is removed from the path before matching, so
// /api/v1/users and /api/users?api-version=1 both match the "/api/users"
// pattern. Patterns use [http.ServeMux] syntax, including wildcards such
// as "/api/users/{id}". Handlers receive the request with the stripped
// path; the resolved version is available through
// [negotiate.VersionFromContext].
package registry
