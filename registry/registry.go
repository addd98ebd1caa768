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

package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"rivaas.dev/apiversion/extract"
	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/problem"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

// Static errors for route registration.
var (
	ErrEmptyPattern   = errors.New("route pattern cannot be empty")
	ErrNilHandler     = errors.New("handler cannot be nil")
	ErrZeroVersion    = errors.New("route version cannot be the zero value")
	ErrDuplicateRoute = errors.New("route version registered more than once")
	ErrInvalidPattern = errors.New("invalid route pattern")
)

// Errors rendered for requests no route serves.
var (
	// ErrRouteNotFound is rendered as 404 for requests matching no route.
	ErrRouteNotFound = errors.New("no route matches the request")
	// ErrMethodNotAllowed is rendered as 405 when the path matches a route
	// registered for other methods.
	ErrMethodNotAllowed = errors.New("method not allowed for this route")
)

// Option configures a Builder.
type Option func(*Builder)

// LifecycleOption attaches lifecycle metadata to one registered version.
type LifecycleOption = resolver.LifecycleOption

// Builder collects registrations. It is not safe for concurrent use.
type Builder struct {
	readers       []resolver.Reader
	defaultVer    version.Version
	assumeDefault bool
	negotiateOpts []negotiate.Option
	formatter     problem.Formatter

	entries []entry
	errs    []error
}

type entry struct {
	method    string
	pattern   string
	version   version.Version
	handler   http.Handler
	lifecycle []LifecycleOption
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		formatter: problem.NewRFC9457(""),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithReaders sets the readers used by every route, in evaluation order.
func WithReaders(rs ...resolver.Reader) Option {
	return func(b *Builder) {
		b.readers = append(b.readers, rs...)
	}
}

// WithDefault sets the default version for routes that support it.
func WithDefault(v version.Version) Option {
	return func(b *Builder) {
		b.defaultVer = v
	}
}

// WithAssumeDefault makes requests without a version resolve to the
// route's default version.
func WithAssumeDefault(enabled bool) Option {
	return func(b *Builder) {
		b.assumeDefault = enabled
	}
}

// WithNegotiatorOptions passes options to the negotiator of every route.
//
// Example:
//
//	registry.WithNegotiatorOptions(
//	    negotiate.WithLogger(logger),
//	    negotiate.WithRecorder(recorder),
//	)
func WithNegotiatorOptions(opts ...negotiate.Option) Option {
	return func(b *Builder) {
		b.negotiateOpts = append(b.negotiateOpts, opts...)
	}
}

// WithFormatter renders unknown routes and version failures.
func WithFormatter(f problem.Formatter) Option {
	return func(b *Builder) {
		if f != nil {
			b.formatter = f
		}
	}
}

// Deprecated marks the registered version as deprecated.
func Deprecated() LifecycleOption { return resolver.Deprecated() }

// DeprecatedSince marks the registered version as deprecated since date.
func DeprecatedSince(date time.Time) LifecycleOption { return resolver.DeprecatedSince(date) }

// Sunset sets when the registered version will be removed.
func Sunset(date time.Time) LifecycleOption { return resolver.Sunset(date) }

// MigrationDocs sets the migration guide URL of the registered version.
func MigrationDocs(url string) LifecycleOption { return resolver.MigrationDocs(url) }

// Successor names the version clients should migrate to.
func Successor(v version.Version) LifecycleOption { return resolver.SuccessorVersion(v) }

// Handle registers h for one version of a route. An empty method matches
// every method. Errors are reported by [Builder.Build].
func (b *Builder) Handle(method, pattern string, v version.Version, h http.Handler, opts ...LifecycleOption) *Builder {
	method = strings.ToUpper(strings.TrimSpace(method))
	pattern = strings.TrimSpace(pattern)

	switch {
	case pattern == "":
		b.errs = append(b.errs, fmt.Errorf("%w: %s version %s", ErrEmptyPattern, method, v))
		return b
	case v.IsZero():
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrZeroVersion, routeKey(method, pattern)))
		return b
	case h == nil:
		b.errs = append(b.errs, fmt.Errorf("%w: %s version %s", ErrNilHandler, routeKey(method, pattern), v))
		return b
	}

	b.entries = append(b.entries, entry{
		method:    method,
		pattern:   pattern,
		version:   v,
		handler:   h,
		lifecycle: opts,
	})
	return b
}

// HandleFunc registers f for one version of a route.
func (b *Builder) HandleFunc(method, pattern string, v version.Version, f http.HandlerFunc, opts ...LifecycleOption) *Builder {
	if f == nil {
		return b.Handle(method, pattern, v, nil, opts...)
	}
	return b.Handle(method, pattern, v, f, opts...)
}

// routeKey is the ServeMux pattern of a route.
func routeKey(method, pattern string) string {
	if method == "" {
		return pattern
	}
	return method + " " + pattern
}

// Build validates the registrations and returns the immutable Registry.
// All registration errors are returned together.
func (b *Builder) Build() (*Registry, error) {
	errs := slices.Clone(b.errs)

	// Group by route, keeping registration order.
	var keys []string
	groups := make(map[string][]entry)
	for _, e := range b.entries {
		key := routeKey(e.method, e.pattern)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], e)
	}

	reg := &Registry{
		mux:       http.NewServeMux(),
		readers:   slices.Clone(b.readers),
		formatter: b.formatter,
	}

	for _, key := range keys {
		rt, err := b.buildRoute(key, groups[key])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := register(reg.mux, key, rt); err != nil {
			errs = append(errs, err)
			continue
		}
		reg.routes = append(reg.routes, rt)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}

	if len(reg.readers) == 0 {
		reg.readers = resolver.DefaultReaders()
	}

	slices.SortFunc(reg.routes, func(a, b *route) int {
		if c := strings.Compare(a.info.Pattern, b.info.Pattern); c != 0 {
			return c
		}
		return strings.Compare(a.info.Method, b.info.Method)
	})

	return reg, nil
}

// MustBuild is like [Builder.Build] but panics on error.
func (b *Builder) MustBuild() *Registry {
	reg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return reg
}

func (b *Builder) buildRoute(key string, entries []entry) (*route, error) {
	rt := &route{
		handlers: make(map[versionKey]http.Handler, len(entries)),
	}

	opts := []resolver.Option{resolver.WithReaders(b.readers...)}
	supported := make([]version.Version, 0, len(entries))
	for _, e := range entries {
		k := keyOf(e.version)
		if _, dup := rt.handlers[k]; dup {
			return nil, fmt.Errorf("%w: %s version %s", ErrDuplicateRoute, key, e.version)
		}
		rt.handlers[k] = e.handler
		supported = append(supported, e.version)
		if len(e.lifecycle) > 0 {
			opts = append(opts, resolver.WithLifecycle(e.version, e.lifecycle...))
		}
	}
	opts = append(opts, resolver.WithSupported(supported...))

	if def, ok := b.routeDefault(entries); ok {
		opts = append(opts, resolver.WithDefault(def), resolver.WithAssumeDefault(b.assumeDefault))
	}

	policy, err := resolver.NewPolicy(opts...)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", key, err)
	}

	nopts := append(slices.Clone(b.negotiateOpts), negotiate.WithRoute(key), negotiate.WithFormatter(b.formatter))
	rt.negotiator, err = negotiate.New(policy, nopts...)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", key, err)
	}

	def, _ := policy.Default()
	rt.info = RouteInfo{
		Method:     entries[0].method,
		Pattern:    entries[0].pattern,
		Versions:   policy.Supported(),
		Deprecated: policy.Deprecated(),
		Default:    def,
	}

	return rt, nil
}

// routeDefault picks the default of one route: the global default when
// the route supports it, else with assume-default the highest
// non-deprecated version (or the highest version if all are deprecated).
func (b *Builder) routeDefault(entries []entry) (version.Version, bool) {
	all := make([]version.Version, 0, len(entries))
	active := make([]version.Version, 0, len(entries))
	for _, e := range entries {
		all = append(all, e.version)
		var lc resolver.Lifecycle
		for _, opt := range e.lifecycle {
			opt(&lc)
		}
		if !lc.Deprecated {
			active = append(active, e.version)
		}
	}

	supported := version.NewSet(all...)
	if !b.defaultVer.IsZero() {
		if member, ok := supported.Lookup(b.defaultVer); ok {
			return member, true
		}
	}
	if !b.assumeDefault {
		return version.Version{}, false
	}
	if v, ok := version.NewSet(active...).Max(); ok {
		return v, true
	}
	return supported.Max()
}

// register adds rt to mux, turning ServeMux pattern panics into errors.
func register(mux *http.ServeMux, key string, rt *route) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidPattern, key, r)
		}
	}()
	mux.Handle(key, rt)
	return nil
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method     string
	Pattern    string
	Versions   version.Set
	Deprecated version.Set
	Default    version.Version
}

// Registry dispatches requests to versioned handlers. It is immutable and
// safe for concurrent use.
type Registry struct {
	mux       *http.ServeMux
	readers   []resolver.Reader
	formatter problem.Formatter
	routes    []*route
}

// Routes lists the registered routes sorted by pattern and method.
func (r *Registry) Routes() []RouteInfo {
	out := make([]RouteInfo, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.info
	}
	return out
}

// ServeHTTP strips the version segment, matches the route and hands the
// request to that route's negotiator. Unmatched paths get a 404 problem;
// a path registered only for other methods gets a 405 problem with Allow.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	routed := req
	if stripped := extract.StripSegment(req.URL.Path, r.readers); stripped != req.URL.Path {
		routed = withPath(req, stripped)
	}

	if _, pattern := r.mux.Handler(routed); pattern == "" {
		if allow := r.allowed(routed); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
			_ = problem.Write(w, r.formatter.Format(req, problem.WithStatus(ErrMethodNotAllowed, http.StatusMethodNotAllowed)))
			return
		}
		_ = problem.Write(w, r.formatter.Format(req, problem.WithStatus(ErrRouteNotFound, http.StatusNotFound)))
		return
	}

	ctx := context.WithValue(routed.Context(), originalKey{}, req)
	r.mux.ServeHTTP(w, routed.WithContext(ctx))
}

// allowed lists the registered methods whose routes match the path of req.
func (r *Registry) allowed(req *http.Request) []string {
	var methods []string
	for _, rt := range r.routes {
		m := rt.info.Method
		if m == "" || slices.Contains(methods, m) {
			continue
		}
		alt := new(http.Request)
		*alt = *req
		alt.Method = m
		if _, pattern := r.mux.Handler(alt); pattern != "" {
			methods = append(methods, m)
		}
	}
	if slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
		methods = append(methods, http.MethodHead)
	}
	slices.Sort(methods)
	return methods
}

type originalKey struct{}

// withPath returns a shallow copy of req with a new URL path.
func withPath(req *http.Request, path string) *http.Request {
	r2 := new(http.Request)
	*r2 = *req
	u := *req.URL
	u.Path = path
	u.RawPath = ""
	r2.URL = &u
	return r2
}

type versionKey struct{ major, minor int }

func keyOf(v version.Version) versionKey {
	return versionKey{major: v.Major(), minor: v.Minor()}
}

// route is the mux handler of one (method, pattern).
type route struct {
	negotiator *negotiate.Negotiator
	handlers   map[versionKey]http.Handler
	info       RouteInfo
}

func (rt *route) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Candidates are read from the request as received, before stripping.
	original, ok := req.Context().Value(originalKey{}).(*http.Request)
	if !ok {
		original = req
	}

	res, err := rt.negotiator.Negotiate(w, original)
	if err != nil {
		rt.negotiator.Reject(w, original, err)
		return
	}

	h := rt.handlers[keyOf(res.Version)]
	h.ServeHTTP(w, req.WithContext(negotiate.WithResult(req.Context(), res)))
}
