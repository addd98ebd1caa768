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

// Package app runs the apiversiond gateway.
//
// An [App] turns a [config.Document] into a running server: it builds the
// logger, the metrics recorder and the tracer the document selects, a
// version registry whose handlers proxy to the configured upstreams, and
// an HTTP server with graceful shutdown. On SIGHUP the document can be
// reloaded and the registry swapped without dropping connections.
//
// Requests pass through tracing, request ID, access log, panic recovery and
// metrics middleware before reaching the registry.
//
// Example:
//
//	a, err := app.New(doc,
//	    app.WithServiceVersion(buildVersion),
//	    app.WithReload(loadDocument),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	if err := a.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package app
