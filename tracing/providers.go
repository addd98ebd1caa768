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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace/noop"
)

// initializeProvider installs the provider that needs no network. OTLP
// providers start as noop until Start replaces them.
func (t *Tracer) initializeProvider() error {
	if t.customTracerProvider {
		t.emitDebug("Using custom user-provided tracer provider")
		t.install(t.tracerProvider)
		return nil
	}

	switch t.provider {
	case NoopProvider:
		t.install(t.newSDKProvider())
	case StdoutProvider:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		t.install(t.newSDKProvider(sdktrace.WithBatcher(exporter)))
		t.emitInfo("Stdout tracing initialized")
	case OTLPProvider, OTLPHTTPProvider:
		t.mu.Lock()
		t.tracerProvider = noop.NewTracerProvider()
		t.tracer = t.tracerProvider.Tracer(instrumentationName)
		t.mu.Unlock()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, t.provider)
	}

	return nil
}

// initOTLP creates the OTLP exporter and installs a batching provider.
func (t *Tracer) initOTLP(ctx context.Context) error {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch t.provider {
	case OTLPProvider:
		opts := []otlptracegrpc.Option{}
		if t.otlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case OTLPHTTPProvider:
		opts := []otlptracehttp.Option{}
		if t.otlpEndpoint != "" {
			endpoint, insecure := splitEndpoint(t.otlpEndpoint)
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
			if insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, t.provider)
	}
	if err != nil {
		t.emitError("Failed to create OTLP trace exporter", "provider", t.provider, "error", err)
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	t.install(t.newSDKProvider(sdktrace.WithBatcher(exporter)))
	t.emitInfo("OTLP tracing initialized", "provider", t.provider, "endpoint", t.otlpEndpoint)

	return nil
}

// newSDKProvider builds an SDK provider with the service resource and
// the configured sampler.
func (t *Tracer) newSDKProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...)
}

// splitEndpoint strips the scheme from an OTLP/HTTP endpoint and reports
// whether it was plain http.
func splitEndpoint(endpoint string) (host string, insecure bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), true
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), false
	default:
		return endpoint, false
	}
}

func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
