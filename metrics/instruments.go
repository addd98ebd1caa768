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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

// Instrument names.
const (
	instrumentResolutions     = "apiversion.resolutions"
	instrumentDeprecatedUses  = "apiversion.deprecated.requests"
	instrumentRequestDuration = "http.server.request.duration"
)

// Attribute keys.
const (
	AttrRoute      attribute.Key = "http.route"
	AttrMethod     attribute.Key = "http.request.method"
	AttrStatus     attribute.Key = "http.response.status_code"
	AttrAPIVersion attribute.Key = "api.version"
	AttrSource     attribute.Key = "api.version.source"
	AttrOutcome    attribute.Key = "api.version.outcome"
)

// Resolution outcomes that are not failures.
const (
	OutcomeResolved  = "resolved"
	OutcomeDefaulted = "defaulted"
)

func (r *Recorder) initializeInstruments() error {
	var err error

	r.resolutions, err = r.meter.Int64Counter(
		instrumentResolutions,
		metric.WithDescription("API version resolutions by outcome"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s counter: %w", instrumentResolutions, err)
	}

	r.deprecatedUses, err = r.meter.Int64Counter(
		instrumentDeprecatedUses,
		metric.WithDescription("Requests served by a deprecated API version"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s counter: %w", instrumentDeprecatedUses, err)
	}

	r.requestDuration, err = r.meter.Float64Histogram(
		instrumentRequestDuration,
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s histogram: %w", instrumentRequestDuration, err)
	}

	return nil
}

// Outcome names the outcome of a resolution: [OutcomeResolved],
// [OutcomeDefaulted], or the failure kind such as "unsupported_version".
// Errors with an Outcome() string method name their own outcome.
func Outcome(res resolver.Result, err error) string {
	if err != nil {
		var named interface{ Outcome() string }
		if errors.As(err, &named) {
			return named.Outcome()
		}
		if k := resolver.KindOf(err); k != 0 {
			return k.String()
		}
		return "error"
	}
	if res.Defaulted {
		return OutcomeDefaulted
	}
	return OutcomeResolved
}

// RecordResolution counts one resolution on route.
func (r *Recorder) RecordResolution(ctx context.Context, route string, res resolver.Result, err error) {
	if r == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+4)
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs,
		AttrRoute.String(route),
		AttrOutcome.String(Outcome(res, err)),
		AttrAPIVersion.String(res.Version.String()),
		AttrSource.String(res.Source.Kind.String()),
	)

	r.resolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDeprecatedUse counts one request served by deprecated version v.
func (r *Recorder) RecordDeprecatedUse(ctx context.Context, route string, v version.Version) {
	if r == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+2)
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs,
		AttrRoute.String(route),
		AttrAPIVersion.String(v.String()),
	)

	r.deprecatedUses.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRequest records the duration of one request. extra carries labels
// such as the route and resolved version.
func (r *Recorder) RecordRequest(ctx context.Context, method string, status int, duration time.Duration, extra ...attribute.KeyValue) {
	if r == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+2+len(extra))
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs,
		AttrMethod.String(method),
		AttrStatus.String(strconv.Itoa(status)),
	)
	attrs = append(attrs, extra...)

	r.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
