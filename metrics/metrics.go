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
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// instrumentationName is the meter name used for every instrument.
const instrumentationName = "rivaas.dev/apiversion/metrics"

// DefaultDurationBuckets are the histogram bucket boundaries, in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Static errors for recorder configuration and use.
var (
	ErrConflictingProviders = errors.New("conflicting provider options: only one of WithPrometheus, WithOTLP, or WithStdout can be used")
	ErrEmptyServiceName     = errors.New("service name cannot be empty")
	ErrEmptyServiceVersion  = errors.New("service version cannot be empty")
	ErrNilMeterProvider     = errors.New("custom meter provider is nil")
	ErrUnsupportedProvider  = errors.New("unsupported metrics provider")
	ErrNoHandler            = errors.New("handler only available with the Prometheus provider")
	ErrInvalidPrometheus    = errors.New("prometheus provider needs an address and a path")
)

// EventType is the severity of an internal operational event.
type EventType int

const (
	// EventError is a failure that needs attention.
	EventError EventType = iota
	// EventWarning is a recoverable problem.
	EventWarning
	// EventInfo is a lifecycle notice.
	EventInfo
	// EventDebug is detailed diagnostics.
	EventDebug
)

// Event is an internal operational event of the Recorder.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler receives internal operational events.
type EventHandler func(Event)

// DefaultEventHandler forwards events to logger. A nil logger drops them.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Provider names a metrics exporter.
type Provider string

const (
	// PrometheusProvider exposes a scrape endpoint.
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes to an OTLP/HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints to stdout.
	StdoutProvider Provider = "stdout"
)

// ParseProvider maps a provider name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case PrometheusProvider, OTLPProvider, StdoutProvider:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Recorder owns the meter provider and the version negotiation instruments.
// All methods are safe for concurrent use; a nil *Recorder records nothing.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	resolutions     metric.Int64Counter
	deprecatedUses  metric.Int64Counter
	requestDuration metric.Float64Histogram

	durationBuckets []float64
	exportInterval  time.Duration

	serviceName    string
	serviceVersion string
	otlpEndpoint   string
	metricsAddr    string
	metricsPath    string

	serviceAttrs []attribute.KeyValue

	serverMu      sync.Mutex
	metricsServer *http.Server
	serverAddr    string

	provider            Provider
	providerSetCount    int
	isStarted           atomic.Bool
	isShuttingDown      atomic.Bool
	autoStartServer     bool
	customMeterProvider bool
	registerGlobal      bool
}

// New creates a Recorder. The default provider is Prometheus on :9090/metrics.
// Exporters are created here; the Prometheus server starts with [Recorder.Start].
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		serviceName:     "apiversion",
		serviceVersion:  "dev",
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		metricsAddr:     ":9090",
		metricsPath:     "/metrics",
		autoStartServer: true,
		durationBuckets: DefaultDurationBuckets,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r.serviceAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize metrics: %v", err))
	}

	return r
}

func (r *Recorder) validate() error {
	if r.providerSetCount > 1 {
		return ErrConflictingProviders
	}
	if r.serviceName == "" {
		return ErrEmptyServiceName
	}
	if r.serviceVersion == "" {
		return ErrEmptyServiceVersion
	}
	if r.exportInterval < time.Second {
		r.emitWarning("Export interval is very low, may cause high CPU usage", "interval", r.exportInterval)
	}

	if r.customMeterProvider {
		return nil
	}

	switch r.provider {
	case PrometheusProvider:
		if r.metricsAddr == "" || r.metricsPath == "" {
			return ErrInvalidPrometheus
		}
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emitWarning("OTLP endpoint not specified, will use default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	case StdoutProvider:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, r.provider)
	}

	return nil
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, fmt.Errorf("%w, current provider: %s", ErrNoHandler, r.provider)
	}

	return r.prometheusHandler, nil
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider { return r.provider }

// ServerAddress returns the address the Prometheus server listens on, or
// "" when it is not running.
func (r *Recorder) ServerAddress() string {
	r.serverMu.Lock()
	defer r.serverMu.Unlock()

	return r.serverAddr
}

// Path returns the Prometheus scrape path.
func (r *Recorder) Path() string {
	if r.provider != PrometheusProvider {
		return ""
	}

	return r.metricsPath
}

// ServiceName returns the service name.
func (r *Recorder) ServiceName() string { return r.serviceName }

// ServiceVersion returns the service version.
func (r *Recorder) ServiceVersion() string { return r.serviceVersion }

// Start starts the Prometheus server, if configured. It is a no-op for
// other providers and on repeated calls.
func (r *Recorder) Start(ctx context.Context) error {
	if r == nil || !r.isStarted.CompareAndSwap(false, true) {
		return nil
	}

	if r.autoStartServer && r.prometheusHandler != nil {
		if err := r.startMetricsServer(ctx); err != nil {
			r.isStarted.Store(false)
			return err
		}
	}

	return nil
}

// Shutdown stops the Prometheus server and flushes and shuts down the
// meter provider it owns.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r == nil || !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if err := r.stopMetricsServer(ctx); err != nil {
		errs = append(errs, err)
	}

	if r.customMeterProvider {
		r.emitDebug("Skipping flush and shutdown of custom meter provider (managed by user)")
	} else if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			r.emitWarning("metrics flush warning", "error", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ForceFlush exports pending metrics of a push provider.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r == nil || r.isShuttingDown.Load() {
		return nil
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics force flush: %w", err)
		}
	}

	return nil
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: t, Message: msg, Args: args})
	}
}

func (r *Recorder) emitError(msg string, args ...any)   { r.emit(EventError, msg, args...) }
func (r *Recorder) emitWarning(msg string, args ...any) { r.emit(EventWarning, msg, args...) }
func (r *Recorder) emitInfo(msg string, args ...any)    { r.emit(EventInfo, msg, args...) }
func (r *Recorder) emitDebug(msg string, args ...any)   { r.emit(EventDebug, msg, args...) }
