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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// instrumentationName is the tracer name used for every span.
const instrumentationName = "rivaas.dev/apiversion/tracing"

// Defaults.
const (
	DefaultServiceName    = "apiversion"
	DefaultServiceVersion = "dev"
	DefaultSampleRate     = 1.0
)

// Static errors for tracer configuration.
var (
	ErrConflictingProviders = errors.New("conflicting provider options: only one of WithNoop, WithStdout, WithOTLP, or WithOTLPHTTP can be used")
	ErrUnsupportedProvider  = errors.New("unsupported tracing provider")
	ErrNilTracerProvider    = errors.New("custom tracer provider is nil")
	ErrEmptyServiceName     = errors.New("service name cannot be empty")
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

// Event is an internal operational event of the Tracer.
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

// Provider names a span exporter.
type Provider string

const (
	// NoopProvider records spans without exporting them.
	NoopProvider Provider = "noop"
	// StdoutProvider pretty-prints spans to stdout.
	StdoutProvider Provider = "stdout"
	// OTLPProvider exports over OTLP/gRPC.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider exports over OTLP/HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

// ParseProvider maps a provider name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(s); p {
	case NoopProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
		return p, nil
	case "":
		return NoopProvider, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Tracer owns the tracer provider and creates request spans.
// A nil *Tracer creates no spans.
type Tracer struct {
	tracer         trace.Tracer
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	propagator     propagation.TextMapPropagator
	eventHandler   EventHandler

	serviceName    string
	serviceVersion string
	otlpEndpoint   string
	otlpInsecure   bool
	sampleRate     float64

	provider             Provider
	providerSetCount     int
	customTracerProvider bool
	registerGlobal       bool

	mu           sync.RWMutex
	started      atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a Tracer. Noop and stdout providers are ready immediately;
// OTLP providers export once [Tracer.Start] has run, and spans created
// before that are dropped.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		sampleRate:     DefaultSampleRate,
		provider:       NoopProvider,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}

	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := t.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize tracing: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if t.providerSetCount > 1 {
		return ErrConflictingProviders
	}
	if t.serviceName == "" {
		return ErrEmptyServiceName
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		return ErrNilTracerProvider
	}
	switch t.provider {
	case NoopProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, t.provider)
	}
}

// Start creates the OTLP exporter. It is a no-op for other providers and
// on repeated calls.
func (t *Tracer) Start(ctx context.Context) error {
	if t == nil || !t.started.CompareAndSwap(false, true) {
		return nil
	}
	if t.customTracerProvider {
		return nil
	}

	switch t.provider {
	case OTLPProvider, OTLPHTTPProvider:
		if err := t.initOTLP(ctx); err != nil {
			t.started.Store(false)
			return err
		}
	}

	return nil
}

// Shutdown flushes and stops the tracer provider it owns. It is safe to
// call more than once.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	t.shutdownOnce.Do(func() {
		t.mu.RLock()
		tp := t.sdkProvider
		t.mu.RUnlock()

		if tp == nil || t.customTracerProvider {
			return
		}

		t.emitDebug("Shutting down tracer provider")
		if err := tp.Shutdown(ctx); err != nil {
			t.shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
		}
	})

	return t.shutdownErr
}

// Tracer returns the underlying trace.Tracer.
func (t *Tracer) Tracer() trace.Tracer {
	if t == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.tracer
}

// Propagator returns the propagator used for incoming requests.
func (t *Tracer) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider { return t.provider }

// ServiceName returns the service name.
func (t *Tracer) ServiceName() string { return t.serviceName }

// ServiceVersion returns the service version.
func (t *Tracer) ServiceVersion() string { return t.serviceVersion }

// install publishes tp as the active provider.
func (t *Tracer) install(tp trace.TracerProvider) {
	t.mu.Lock()
	t.tracerProvider = tp
	t.tracer = tp.Tracer(instrumentationName)
	if sdk, ok := tp.(*sdktrace.TracerProvider); ok && !t.customTracerProvider {
		t.sdkProvider = sdk
	}
	t.mu.Unlock()

	if t.registerGlobal {
		t.emitDebug("Setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(t.propagator)
	}
}

func (t *Tracer) emit(typ EventType, msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: typ, Message: msg, Args: args})
	}
}

func (t *Tracer) emitError(msg string, args ...any) { t.emit(EventError, msg, args...) }
func (t *Tracer) emitInfo(msg string, args ...any)  { t.emit(EventInfo, msg, args...) }
func (t *Tracer) emitDebug(msg string, args ...any) { t.emit(EventDebug, msg, args...) }
