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

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"rivaas.dev/apiversion/config"
	"rivaas.dev/apiversion/logging"
	"rivaas.dev/apiversion/metrics"
	"rivaas.dev/apiversion/middleware"
	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/registry"
	"rivaas.dev/apiversion/tracing"
)

// App is the gateway process: observability, the version registry and the
// HTTP server built from one document.
type App struct {
	doc atomic.Pointer[config.Document]
	reg atomic.Pointer[registry.Registry]

	logging *logging.Logger
	metrics *metrics.Recorder
	tracer  *tracing.Tracer
	handler http.Handler

	serviceName    string
	serviceVersion string
	handlerFor     config.HandlerFactory
	reload         func(context.Context) (*config.Document, error)
	reloadMu       sync.Mutex
	mountMetrics   bool
	logOut         io.Writer
	bannerOut      io.Writer
}

// New builds an App from doc. Observability providers are created but not
// started; [App.Run] starts them.
func New(doc *config.Document, opts ...Option) (*App, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	a := &App{}
	defaultOptions(a)
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if a.logging, err = newLogger(doc.Logging, a.logOut, a.serviceName, a.serviceVersion); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger := a.logging.Logger()

	if a.handlerFor == nil {
		a.handlerFor = ProxyFactory(logger)
	}

	if doc.Metrics.Enabled {
		if a.metrics, err = newRecorder(doc.Metrics, logger, a.serviceName, a.serviceVersion, a.mountMetrics); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	if a.tracer, err = newTracer(doc.Tracing, logger, a.serviceName, a.serviceVersion); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	reg, err := a.buildRegistry(doc)
	if err != nil {
		return nil, err
	}
	a.doc.Store(doc)
	a.reg.Store(reg)

	var h http.Handler = http.HandlerFunc(a.serveRegistry)
	if a.metrics != nil && a.mountMetrics {
		h = a.withMetricsEndpoint(h, doc.Metrics.Path)
	}
	a.handler = a.wrap(doc, h)

	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(doc *config.Document, opts ...Option) *App {
	a, err := New(doc, opts...)
	if err != nil {
		panic(fmt.Sprintf("app: %v", err))
	}
	return a
}

// Handler returns the gateway handler with tracing and metrics applied.
func (a *App) Handler() http.Handler { return a.handler }

// Registry returns the registry currently serving requests.
func (a *App) Registry() *registry.Registry { return a.reg.Load() }

// Document returns the document currently in effect.
func (a *App) Document() *config.Document { return a.doc.Load() }

// Logger returns the process logger.
func (a *App) Logger() *slog.Logger { return a.logging.Logger() }

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// Tracer returns the tracer.
func (a *App) Tracer() *tracing.Tracer { return a.tracer }

// ServiceName returns the configured service name.
func (a *App) ServiceName() string { return a.serviceName }

// ServiceVersion returns the configured service version.
func (a *App) ServiceVersion() string { return a.serviceVersion }

// Reload loads a fresh document and swaps in a registry built from its
// routes and versioning settings. Server, logging, metrics and tracing
// settings keep their startup values. On error the current registry stays.
func (a *App) Reload(ctx context.Context) error {
	if a.reload == nil {
		return ErrReloadNotEnabled
	}

	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	doc, err := a.reload(ctx)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	reg, err := a.buildRegistry(doc)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	a.doc.Store(doc)
	a.reg.Store(reg)
	a.Logger().InfoContext(ctx, "configuration reloaded", "routes", len(reg.Routes()))

	return nil
}

func (a *App) buildRegistry(doc *config.Document) (*registry.Registry, error) {
	reg, err := doc.Registry(a.handlerFor, registry.WithNegotiatorOptions(
		negotiate.WithLogger(a.Logger()),
		negotiate.WithRecorder(a.metrics),
		negotiate.WithTracer(a.tracer),
	))
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return reg, nil
}

// wrap applies the middleware chain, outermost first: tracing, request
// ID, access log, recovery, metrics.
func (a *App) wrap(doc *config.Document, h http.Handler) http.Handler {
	logger := a.Logger()

	exclude := doc.Server.AccessLogExclude
	if a.metrics != nil && a.mountMetrics {
		exclude = append(slices.Clone(exclude), doc.Metrics.Path)
	}
	idOpts := []middleware.Option{middleware.WithHeader(doc.Server.RequestIDHeader)}
	if doc.Server.RequestIDFormat == "ulid" {
		idOpts = append(idOpts, middleware.WithULID())
	}

	h = metrics.Middleware(a.metrics)(h)
	h = middleware.Recovery(
		middleware.WithLogger(logger),
		middleware.WithFormatter(doc.Versioning.Formatter()),
	)(h)
	h = middleware.AccessLog(middleware.WithLogger(logger), middleware.WithExcludePaths(exclude...))(h)
	h = middleware.RequestID(idOpts...)(h)

	return tracing.Middleware(a.tracer)(h)
}

func (a *App) serveRegistry(w http.ResponseWriter, r *http.Request) {
	a.reg.Load().ServeHTTP(w, r)
}

func (a *App) withMetricsEndpoint(next http.Handler, path string) http.Handler {
	scrape, err := a.metrics.Handler()
	if err != nil {
		a.Logger().Warn("metrics endpoint unavailable", "error", err)
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == path {
			scrape.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newLogger(cfg config.LoggingConfig, out io.Writer, name, version string) (*logging.Logger, error) {
	ht, err := logging.ParseHandlerType(cfg.Format)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithHandlerType(ht),
		logging.WithLevel(level),
		logging.WithOutput(out),
		logging.WithServiceName(name),
		logging.WithServiceVersion(version),
	)
}

func newRecorder(cfg config.MetricsConfig, logger *slog.Logger, name, version string, mount bool) (*metrics.Recorder, error) {
	provider, err := metrics.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	opts := []metrics.Option{
		metrics.WithServiceName(name),
		metrics.WithServiceVersion(version),
		metrics.WithLogger(logger),
	}
	switch provider {
	case metrics.PrometheusProvider:
		opts = append(opts, metrics.WithPrometheus(cfg.Addr, cfg.Path))
		if mount {
			opts = append(opts, metrics.WithServerDisabled())
		}
	case metrics.OTLPProvider:
		opts = append(opts, metrics.WithOTLP(cfg.Endpoint))
	case metrics.StdoutProvider:
		opts = append(opts, metrics.WithStdout())
	}

	return metrics.New(opts...)
}

func newTracer(cfg config.TracingConfig, logger *slog.Logger, name, version string) (*tracing.Tracer, error) {
	provider, err := tracing.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	opts := []tracing.Option{
		tracing.WithServiceName(name),
		tracing.WithServiceVersion(version),
		tracing.WithSampleRate(cfg.SampleRate),
		tracing.WithLogger(logger),
	}
	switch provider {
	case tracing.NoopProvider:
		opts = append(opts, tracing.WithNoop())
	case tracing.StdoutProvider:
		opts = append(opts, tracing.WithStdout())
	case tracing.OTLPProvider:
		opts = append(opts, tracing.WithOTLP(cfg.Endpoint))
	case tracing.OTLPHTTPProvider:
		opts = append(opts, tracing.WithOTLPHTTP(cfg.Endpoint))
	}

	return tracing.New(opts...)
}
