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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
)

// Run serves the gateway on the document's address until ctx is canceled,
// then shuts down gracefully within the configured shutdown timeout.
// Signal handling is left to the caller, typically via
// signal.NotifyContext.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Document().Server.Addr)
	if err != nil {
		return fmt.Errorf("%w: listen: %w", ErrServerFailed, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is like Run but accepts connections on ln.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	doc := a.Document()
	logger := a.Logger()

	if err := a.startObservability(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: doc.Server.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	a.printStartupBanner(ln.Addr().String())
	logger.InfoContext(ctx, "server starting",
		"address", ln.Addr().String(),
		"routes", len(a.Registry().Routes()),
		"metrics_enabled", a.metrics != nil,
		"tracing_provider", string(a.tracer.Provider()),
	)

	stopReload := a.watchReload(ctx)
	defer stopReload()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.shutdownObservability(context.WithoutCancel(ctx))
		return fmt.Errorf("%w: %w", ErrServerFailed, err)
	case <-ctx.Done():
		logger.Info("server shutting down", "reason", context.Cause(ctx))
	}

	// ctx is already canceled; the shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), doc.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.shutdownObservability(shutdownCtx)
		return fmt.Errorf("%w: forced shutdown: %w", ErrServerFailed, err)
	}
	a.shutdownObservability(shutdownCtx)

	logger.Info("server exited")
	return nil
}

func (a *App) startObservability(ctx context.Context) error {
	if err := a.metrics.Start(ctx); err != nil {
		return fmt.Errorf("start metrics: %w", err)
	}
	if err := a.tracer.Start(ctx); err != nil {
		return fmt.Errorf("start tracing: %w", err)
	}
	return nil
}

func (a *App) shutdownObservability(ctx context.Context) {
	logger := a.Logger()
	if err := a.metrics.Shutdown(ctx); err != nil {
		logger.Log(ctx, slog.LevelWarn, "metrics shutdown failed", "error", err)
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		logger.Log(ctx, slog.LevelWarn, "tracing shutdown failed", "error", err)
	}
}

// watchReload reloads the document on SIGHUP until ctx ends. Without a
// reload function SIGHUP is ignored so it does not stop the process.
func (a *App) watchReload(ctx context.Context) func() {
	if a.reload == nil {
		ignoreReloadSignal()
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	ch, stop := setupReloadSignal()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				if err := a.Reload(ctx); err != nil {
					a.Logger().ErrorContext(ctx, "configuration reload failed", "error", err)
				}
			}
		}
	}()

	return func() {
		stop()
		cancel()
		<-done
	}
}
