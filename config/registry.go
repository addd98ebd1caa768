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

package config

import (
	"fmt"
	"net/http"

	"rivaas.dev/apiversion/registry"
)

// HandlerFactory returns the handler serving one version of a route.
type HandlerFactory func(RouteConfig, VersionConfig) (http.Handler, error)

// Registry builds a version registry from the document's routes. opts are
// applied after the document's own settings, so callers can add a logger,
// a metrics recorder or a tracer.
//
// Example:
//
//	reg, err := doc.Registry(proxyFor,
//	    registry.WithNegotiatorOptions(negotiate.WithLogger(logger)),
//	)
func (d *Document) Registry(handlerFor HandlerFactory, opts ...registry.Option) (*registry.Registry, error) {
	if handlerFor == nil {
		return nil, fmt.Errorf("config: nil handler factory")
	}

	readers, err := d.Versioning.ResolverReaders()
	if err != nil {
		return nil, err
	}

	base := []registry.Option{
		registry.WithAssumeDefault(d.Versioning.AssumeDefault),
		registry.WithFormatter(d.Versioning.Formatter()),
		registry.WithNegotiatorOptions(d.Versioning.NegotiatorOptions()...),
	}
	if len(readers) > 0 {
		base = append(base, registry.WithReaders(readers...))
	}
	if !d.Versioning.Default.IsZero() {
		base = append(base, registry.WithDefault(d.Versioning.Default))
	}

	b := registry.New(append(base, opts...)...)
	for _, rc := range d.Routes {
		for _, vc := range rc.Versions {
			h, err := handlerFor(rc, vc)
			if err != nil {
				return nil, fmt.Errorf("config: %s %s version %s: %w", rc.Method, rc.Pattern, vc.Version, err)
			}
			b.Handle(rc.Method, rc.Pattern, vc.Version, h, vc.Lifecycle()...)
		}
	}

	return b.Build()
}

// Lifecycle converts the deprecation settings into registry options.
func (vc VersionConfig) Lifecycle() []registry.LifecycleOption {
	var opts []registry.LifecycleOption
	if vc.Deprecated {
		opts = append(opts, registry.Deprecated())
	}
	if !vc.DeprecatedSince.IsZero() {
		opts = append(opts, registry.DeprecatedSince(vc.DeprecatedSince))
	}
	if !vc.Sunset.IsZero() {
		opts = append(opts, registry.Sunset(vc.Sunset))
	}
	if vc.MigrationURL != "" {
		opts = append(opts, registry.MigrationDocs(vc.MigrationURL))
	}
	if !vc.Successor.IsZero() {
		opts = append(opts, registry.Successor(vc.Successor))
	}
	return opts
}
