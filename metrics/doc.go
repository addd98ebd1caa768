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

// Package metrics records API version negotiation metrics with OpenTelemetry.
//
// Three instruments are maintained:
//   - apiversion.resolutions: counter of resolution outcomes per route
//   - apiversion.deprecated.requests: counter of requests served by a
//     deprecated version
//   - http.server.request.duration: histogram of request latency per route,
//     method, status and resolved version
//
// # Basic Usage
//
//	recorder := metrics.MustNew(
//	    metrics.WithPrometheus(":9090", "/metrics"),
//	    metrics.WithServiceName("apiversiond"),
//	)
//	if err := recorder.Start(ctx); err != nil {
//	    return err
//	}
//	defer recorder.Shutdown(context.Background())
//
// # Providers
//
// Three providers are supported:
//   - [PrometheusProvider] (default): exposes metrics via an HTTP endpoint
//   - [OTLPProvider]: pushes metrics to an OTLP/HTTP collector
//   - [StdoutProvider]: prints metrics to stdout (development)
//
// A caller-owned provider can be injected with [WithMeterProvider]; it is
// never flushed or shut down by the Recorder.
//
// # Request Labels
//
// [Middleware] measures request duration. Handlers further down the chain
// contribute the route and resolved version through [Label], so the outer
// measurement carries them:
//
//	metrics.Label(r.Context(), metrics.AttrAPIVersion.String("2"))
//
// By default, this package does NOT set the global OpenTelemetry meter
// provider. Use [WithGlobalMeterProvider] to register it.
package metrics
