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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rivaas.dev/apiversion/extract"
	"rivaas.dev/apiversion/logging"
	"rivaas.dev/apiversion/metrics"
	"rivaas.dev/apiversion/problem"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/tracing"
)

// Negotiator resolves request versions against one policy. It is
// immutable after New and safe for concurrent use.
type Negotiator struct {
	policy  *resolver.Policy
	readers []resolver.Reader

	logger    *slog.Logger
	formatter problem.Formatter
	recorder  *metrics.Recorder
	tracer    *tracing.Tracer
	route     string
	now       func() time.Time

	supportedHeader   string
	deprecatedHeader  string
	sendVersionHeader bool
	sendWarning299    bool
	enforceSunset     bool
}

// New creates a Negotiator for policy.
func New(policy *resolver.Policy, opts ...Option) (*Negotiator, error) {
	if policy == nil {
		return nil, ErrNilPolicy
	}

	n := &Negotiator{
		policy:           policy,
		readers:          policy.Readers(),
		formatter:        problem.NewRFC9457(""),
		now:              time.Now,
		supportedHeader:  DefaultSupportedHeader,
		deprecatedHeader: DefaultDeprecatedHeader,
	}

	for _, opt := range opts {
		opt(n)
	}

	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("invalid negotiator configuration: %w", err)
	}
	n.logger = logging.OrDiscard(n.logger)

	return n, nil
}

// MustNew is like [New] but panics on error.
func MustNew(policy *resolver.Policy, opts ...Option) *Negotiator {
	n, err := New(policy, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

func (n *Negotiator) validate() error {
	if strings.TrimSpace(n.supportedHeader) == "" {
		return fmt.Errorf("%w: supported versions header", ErrEmptyHeaderName)
	}
	if strings.TrimSpace(n.deprecatedHeader) == "" {
		return fmt.Errorf("%w: deprecated versions header", ErrEmptyHeaderName)
	}
	if n.formatter == nil {
		return ErrNilFormatter
	}
	if n.now == nil {
		return ErrNilClock
	}
	return nil
}

// Policy returns the policy the negotiator applies.
func (n *Negotiator) Policy() *resolver.Policy { return n.policy }

// Route returns the route name used in logs and metrics.
func (n *Negotiator) Route() string { return n.route }

// Negotiate resolves the version of req and writes the advisory headers
// to w. It does not write a status or body.
//
// A failure is returned as an [*Error] wrapping a [*resolver.Error] or,
// with sunset enforcement, a [*SunsetError]. The result is returned in
// both cases; on failure it still lists the supported versions.
func (n *Negotiator) Negotiate(w http.ResponseWriter, req *http.Request) (resolver.Result, error) {
	ctx := context.Background()
	if req != nil {
		ctx = req.Context()
	}

	res, err := resolver.Resolve(n.policy, extract.FromRequest(req, n.readers))

	h := w.Header()
	n.writeVersionLists(h, res)

	if err != nil {
		err = &Error{Err: err, Result: res}
		n.observe(ctx, res, err)
		return res, err
	}

	if n.sendVersionHeader {
		h.Set(DefaultVersionHeader, res.Version.String())
	}

	lc, _ := n.policy.Lifecycle(res.Version)
	if n.enforceSunset && !lc.Sunset.IsZero() && n.now().After(lc.Sunset) {
		n.writeSunsetHeaders(h, lc)
		err = &Error{Err: &SunsetError{Version: res.Version, Sunset: lc.Sunset}, Result: res}
		n.observe(ctx, res, err)
		return res, err
	}

	if res.IsDeprecated() {
		n.writeDeprecationHeaders(h, req, res, lc)
	}

	n.observe(ctx, res, nil)
	return res, nil
}

// Middleware rejects requests whose version does not resolve and calls
// next with the result stored in the request context otherwise.
func (n *Negotiator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		res, err := n.Negotiate(w, req)
		if err != nil {
			n.Reject(w, req, err)
			return
		}

		next.ServeHTTP(w, req.WithContext(WithResult(req.Context(), res)))
	})
}

// Reject writes the formatted problem response for err.
func (n *Negotiator) Reject(w http.ResponseWriter, req *http.Request, err error) {
	if werr := problem.Write(w, n.formatter.Format(req, err)); werr != nil {
		n.logger.Error("failed to write version problem response", "route", n.route, "error", werr)
	}
}

// writeVersionLists writes the supported and deprecated version headers.
func (n *Negotiator) writeVersionLists(h http.Header, res resolver.Result) {
	if res.Supported.Len() > 0 {
		h.Set(n.supportedHeader, res.Supported.String())
	}
	if res.Deprecated.Len() > 0 {
		h.Set(n.deprecatedHeader, res.Deprecated.String())
	}
}

// writeDeprecationHeaders advertises the lifecycle of a deprecated version.
func (n *Negotiator) writeDeprecationHeaders(h http.Header, req *http.Request, res resolver.Result, lc resolver.Lifecycle) {
	if lc.DeprecatedSince.IsZero() {
		h.Set("Deprecation", "true")
	} else {
		h.Set("Deprecation", "@"+strconv.FormatInt(lc.DeprecatedSince.Unix(), 10))
	}
	if !lc.Sunset.IsZero() {
		h.Set("Sunset", lc.Sunset.UTC().Format(http.TimeFormat))
	}

	var links []string
	if lc.MigrationURL != "" {
		links = append(links, fmt.Sprintf("<%s>; rel=\"deprecation\"", lc.MigrationURL))
		if !lc.Sunset.IsZero() {
			links = append(links, fmt.Sprintf("<%s>; rel=\"sunset\"", lc.MigrationURL))
		}
	}
	if !lc.Successor.IsZero() && req != nil && req.URL != nil {
		if path, ok := extract.ReplaceSegment(req.URL.Path, n.readers, lc.Successor.String()); ok {
			links = append(links, fmt.Sprintf("<%s>; rel=\"successor-version\"", path))
		}
	}
	if len(links) > 0 {
		h.Set("Link", strings.Join(links, ", "))
	}

	if n.sendWarning299 {
		msg := fmt.Sprintf("299 - \"API version %s is deprecated", res.Version)
		if !lc.Sunset.IsZero() {
			msg += " and will be removed on " + lc.Sunset.UTC().Format(time.RFC3339)
		}
		if !lc.Successor.IsZero() {
			msg += ". Please upgrade to version " + lc.Successor.String() + ".\""
		} else {
			msg += ". Please upgrade to a supported version.\""
		}
		h.Set("Warning", msg)
	}
}

// writeSunsetHeaders advertises the removal of a sunset version.
func (n *Negotiator) writeSunsetHeaders(h http.Header, lc resolver.Lifecycle) {
	h.Set("Sunset", lc.Sunset.UTC().Format(http.TimeFormat))
	if lc.MigrationURL != "" {
		h.Set("Link", fmt.Sprintf("<%s>; rel=\"sunset\"", lc.MigrationURL))
	}
}

// observe logs, counts and traces one resolution.
func (n *Negotiator) observe(ctx context.Context, res resolver.Result, err error) {
	n.recorder.RecordResolution(ctx, n.route, res, err)
	if n.tracer != nil {
		tracing.AnnotateResolution(ctx, res, err)
	}

	logger := logging.WithTrace(ctx, n.logger)

	if err != nil {
		logger.Info("api version rejected",
			"route", n.route,
			"outcome", metrics.Outcome(res, err),
			"error", err,
		)
		return
	}

	metrics.Label(ctx,
		metrics.AttrRoute.String(n.route),
		metrics.AttrAPIVersion.String(res.Version.String()),
	)

	if res.IsDeprecated() {
		n.recorder.RecordDeprecatedUse(ctx, n.route, res.Version)
		logger.Info("deprecated api version requested",
			"route", n.route,
			"version", res.Version.String(),
		)
		return
	}

	logger.Debug("api version resolved",
		"route", n.route,
		"version", res.Version.String(),
		"source", res.Source.String(),
		"defaulted", res.Defaulted,
	)
}
