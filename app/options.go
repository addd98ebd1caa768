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
	"io"
	"os"

	"rivaas.dev/apiversion/config"
)

// Option configures an [App].
type Option func(*App)

// WithServiceName sets the service name reported in logs, metrics and
// traces. The default is "apiversiond".
func WithServiceName(name string) Option {
	return func(a *App) {
		if name != "" {
			a.serviceName = name
		}
	}
}

// WithServiceVersion sets the build version reported in logs, metrics and
// traces.
func WithServiceVersion(version string) Option {
	return func(a *App) {
		if version != "" {
			a.serviceVersion = version
		}
	}
}

// WithHandlerFactory replaces the reverse proxy with another handler per
// route version.
func WithHandlerFactory(f config.HandlerFactory) Option {
	return func(a *App) {
		if f != nil {
			a.handlerFor = f
		}
	}
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.logOut = w
		}
	}
}

// WithBannerOutput prints the startup banner to w. A nil writer disables
// the banner. The default is stdout.
func WithBannerOutput(w io.Writer) Option {
	return func(a *App) {
		a.bannerOut = w
	}
}

// WithReload enables [App.Reload], which calls load for a fresh document.
// Run reloads on SIGHUP.
func WithReload(load func(context.Context) (*config.Document, error)) Option {
	return func(a *App) {
		a.reload = load
	}
}

// WithMetricsServerDisabled keeps the Prometheus endpoint off its own
// listener; it is mounted on the gateway at the configured path instead.
func WithMetricsServerDisabled() Option {
	return func(a *App) {
		a.mountMetrics = true
	}
}

func defaultOptions(a *App) {
	a.serviceName = "apiversiond"
	a.serviceVersion = "dev"
	a.logOut = os.Stderr
	a.bannerOut = os.Stdout
}
