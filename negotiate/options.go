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
	"log/slog"
	"time"

	"rivaas.dev/apiversion/metrics"
	"rivaas.dev/apiversion/problem"
	"rivaas.dev/apiversion/tracing"
)

// Default header names.
const (
	DefaultSupportedHeader  = "api-supported-versions"
	DefaultDeprecatedHeader = "api-deprecated-versions"
	DefaultVersionHeader    = "api-version"
)

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithLogger logs resolutions to logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Negotiator) {
		n.logger = logger
	}
}

// WithFormatter renders rejected requests. The default is an RFC 9457
// formatter with no base URL.
//
// Example:
//
//	negotiate.WithFormatter(problem.NewSimple())
func WithFormatter(f problem.Formatter) Option {
	return func(n *Negotiator) {
		n.formatter = f
	}
}

// WithRecorder counts resolutions and deprecated-version requests.
func WithRecorder(r *metrics.Recorder) Option {
	return func(n *Negotiator) {
		n.recorder = r
	}
}

// WithTracer annotates the request span with the resolution outcome.
// Spans come from the tracer's middleware, which must wrap the negotiator.
func WithTracer(t *tracing.Tracer) Option {
	return func(n *Negotiator) {
		n.tracer = t
	}
}

// WithRoute names the route in logs and metrics.
func WithRoute(route string) Option {
	return func(n *Negotiator) {
		n.route = route
	}
}

// WithVersionHeader echoes the resolved version in the api-version
// response header.
func WithVersionHeader() Option {
	return func(n *Negotiator) {
		n.sendVersionHeader = true
	}
}

// WithWarning299 adds a "Warning: 299" header to responses for deprecated
// versions.
func WithWarning299() Option {
	return func(n *Negotiator) {
		n.sendWarning299 = true
	}
}

// WithSunsetEnforcement rejects versions past their sunset date with
// 410 Gone. Without it, sunset dates are only advertised.
func WithSunsetEnforcement() Option {
	return func(n *Negotiator) {
		n.enforceSunset = true
	}
}

// WithClock sets the time source used for sunset enforcement.
func WithClock(now func() time.Time) Option {
	return func(n *Negotiator) {
		n.now = now
	}
}

// WithHeaderNames overrides the names of the supported and deprecated
// version headers.
//
// Example:
//
//	negotiate.WithHeaderNames("X-Api-Supported-Versions", "X-Api-Deprecated-Versions")
func WithHeaderNames(supported, deprecated string) Option {
	return func(n *Negotiator) {
		n.supportedHeader = supported
		n.deprecatedHeader = deprecated
	}
}
