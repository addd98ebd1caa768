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

// Package tracing creates OpenTelemetry server spans for versioned APIs.
//
// Every request handled by [Middleware] gets a server span continuing any
// W3C trace context found in the request headers. Negotiation annotates the
// span with the resolved version through [AnnotateResolution]:
//
//	api.version          "2"
//	api.version.source   "header"
//	api.version.outcome  "resolved"
//
// A failed resolution sets the span status to Error.
//
// # Basic Usage
//
//	tracer := tracing.MustNew(
//	    tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure()),
//	    tracing.WithServiceName("apiversiond"),
//	    tracing.WithSampleRate(0.1),
//	)
//	if err := tracer.Start(ctx); err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	handler := tracing.Middleware(tracer)(mux)
//
// # Providers
//
//   - [NoopProvider] (default): spans are created but not exported
//   - [StdoutProvider]: pretty-printed spans on stdout
//   - [OTLPProvider]: OTLP/gRPC exporter
//   - [OTLPHTTPProvider]: OTLP/HTTP exporter
//
// OTLP exporters are created by [Tracer.Start], which takes the context
// used to dial the collector.
package tracing
