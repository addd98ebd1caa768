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
	"net"
	"net/http"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		if r.meterProvider == nil {
			return ErrNilMeterProvider
		}
		r.emitDebug("Using custom user-provided meter provider")
		r.meter = r.meterProvider.Meter(instrumentationName)
		return r.initializeInstruments()
	}

	var (
		reader sdkmetric.Reader
		err    error
	)
	switch r.provider {
	case PrometheusProvider:
		reader, err = r.newPrometheusReader()
	case OTLPProvider:
		reader, err = r.newOTLPReader()
	case StdoutProvider:
		reader, err = r.newStdoutReader()
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedProvider, r.provider)
	}
	if err != nil {
		return err
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r.meterProvider = mp

	if r.registerGlobal {
		r.emitDebug("Setting global OpenTelemetry meter provider", "provider", r.provider)
		otel.SetMeterProvider(mp)
	}

	r.meter = mp.Meter(instrumentationName)
	return r.initializeInstruments()
}

func (r *Recorder) newPrometheusReader() (sdkmetric.Reader, error) {
	r.prometheusRegistry = promclient.NewRegistry()

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(r.prometheusRegistry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	r.prometheusHandler = promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{},
	)

	return exporter, nil
}

func (r *Recorder) newOTLPReader() (sdkmetric.Reader, error) {
	endpoint := r.otlpEndpoint
	insecure := strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil
}

func (r *Recorder) newStdoutReader() (sdkmetric.Reader, error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval)), nil
}

// startMetricsServer binds the scrape listener synchronously so that bind
// errors are returned to the caller, then serves in the background.
func (r *Recorder) startMetricsServer(ctx context.Context) error {
	if r.isShuttingDown.Load() {
		r.emitDebug("Not starting metrics server: shutdown in progress")
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", r.metricsAddr)
	if err != nil {
		return fmt.Errorf("metrics server listen on %s: %w", r.metricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(r.metricsPath, r.prometheusHandler)

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	r.serverMu.Lock()
	r.metricsServer = server
	r.serverAddr = ln.Addr().String()
	r.serverMu.Unlock()

	r.emitInfo("Metrics server starting", "address", ln.Addr().String(), "path", r.metricsPath)

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.emitError("Metrics server error", "error", err)
		}
	}()

	return nil
}

func (r *Recorder) stopMetricsServer(ctx context.Context) error {
	r.serverMu.Lock()
	server := r.metricsServer
	r.metricsServer = nil
	r.serverAddr = ""
	r.serverMu.Unlock()

	if server == nil {
		return nil
	}

	r.emitDebug("Shutting down metrics server")
	if err := server.Shutdown(ctx); err != nil {
		r.emitError("Error shutting down metrics server", "error", err)
		return fmt.Errorf("metrics server shutdown: %w", err)
	}

	return nil
}
