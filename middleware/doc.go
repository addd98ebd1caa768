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

// Package middleware provides the net/http middleware apiversiond wraps
// around its version registry: request IDs, panic recovery and access logs.
//
// Each constructor returns a func(http.Handler) http.Handler, so the pieces
// compose with the tracing and metrics middleware:
//
//	h := tracing.Middleware(tracer)(
//	    middleware.RequestID()(
//	        middleware.AccessLog(middleware.WithLogger(logger))(
//	            middleware.Recovery(middleware.WithLogger(logger))(reg),
//	        ),
//	    ),
//	)
//
// # Request IDs
//
// [RequestID] accepts a client supplied ID from the configured header or
// generates one (UUID v7 by default, ULID with [WithULID]). The ID is echoed
// in the response and available to inner handlers through [GetRequestID].
//
// # Recovery
//
// [Recovery] turns a panic into a 500 problem response, logs the stack and
// records the panic on the active OpenTelemetry span.
package middleware
