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
	"cmp"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"time"

	"rivaas.dev/apiversion/negotiate"
	"rivaas.dev/apiversion/problem"
	"rivaas.dev/apiversion/resolver"
	"rivaas.dev/apiversion/version"
)

// DefaultSchema is the JSON schema of [Document].
//
//go:embed schema.json
var DefaultSchema []byte

// Document errors.
var (
	ErrZeroRouteVersion        = errors.New("config: route version is required")
	ErrDuplicateVersion        = errors.New("config: version listed twice for route")
	ErrUnknownSuccessor        = errors.New("config: successor is not a version of the route")
	ErrSunsetBeforeDeprecation = errors.New("config: sunset precedes deprecation date")
)

// Document is the configuration of the apiversiond gateway and the
// apiversion CLI.
//
// Example (YAML):
//
//	versioning:
//	  readers:
//	    - {kind: path, name: "/api/v{version}"}
//	    - {kind: header, name: X-Api-Version}
//	  default: "2"
//	  assume_default: true
//	routes:
//	  - method: GET
//	    pattern: /api/users
//	    versions:
//	      - {version: "1", upstream: "http://users-v1:8080", deprecated: true, sunset: "2026-12-31"}
//	      - {version: "2", upstream: "http://users-v2:8080"}
type Document struct {
	Server     ServerConfig     `config:"server"`
	Logging    LoggingConfig    `config:"logging"`
	Metrics    MetricsConfig    `config:"metrics"`
	Tracing    TracingConfig    `config:"tracing"`
	Versioning VersioningConfig `config:"versioning"`
	Routes     []RouteConfig    `config:"routes" validate:"required,min=1,dive"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `config:"addr" default:":8080" validate:"required"`
	ShutdownTimeout   time.Duration `config:"shutdown_timeout" default:"10s" validate:"gte=0"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout" default:"5s" validate:"gte=0"`
	RequestIDHeader   string        `config:"request_id_header" default:"X-Request-ID"`
	RequestIDFormat   string        `config:"request_id_format" default:"uuid" validate:"oneof=uuid ulid"`
	AccessLogExclude  []string      `config:"access_log_exclude"`
}

// LoggingConfig selects the log handler and level.
type LoggingConfig struct {
	Format string `config:"format" default:"json" validate:"oneof=json text console"`
	Level  string `config:"level" default:"info" validate:"oneof=debug info warn error"`
}

// MetricsConfig selects the metrics exporter.
type MetricsConfig struct {
	Enabled  bool   `config:"enabled"`
	Provider string `config:"provider" default:"prometheus" validate:"oneof=prometheus otlp stdout"`
	Addr     string `config:"addr" default:":9090"`
	Path     string `config:"path" default:"/metrics" validate:"startswith=/"`
	Endpoint string `config:"endpoint" validate:"required_if=Provider otlp"`
}

// TracingConfig selects the span exporter. A sample rate of 0 is treated
// as unset and becomes 1; use the noop provider to stop tracing.
type TracingConfig struct {
	Provider   string  `config:"provider" default:"noop" validate:"oneof=noop stdout otlp otlp-http"`
	Endpoint   string  `config:"endpoint"`
	SampleRate float64 `config:"sample_rate" default:"1" validate:"gte=0,lte=1"`
}

// VersioningConfig is shared by every route.
type VersioningConfig struct {
	Readers          []ReaderConfig  `config:"readers" validate:"dive"`
	Default          version.Version `config:"default"`
	AssumeDefault    bool            `config:"assume_default"`
	SupportedHeader  string          `config:"supported_header" default:"api-supported-versions"`
	DeprecatedHeader string          `config:"deprecated_header" default:"api-deprecated-versions"`
	VersionHeader    bool            `config:"version_header"`
	Warning299       bool            `config:"warning299"`
	EnforceSunset    bool            `config:"enforce_sunset"`
	Problem          ProblemConfig   `config:"problem"`
}

// ReaderConfig names one place a version is read from. Kind is one of
// path, header, query or media_type.
type ReaderConfig struct {
	Kind string `config:"kind" validate:"required"`
	Name string `config:"name" validate:"required"`
}

// ProblemConfig selects how failures are rendered.
type ProblemConfig struct {
	Format  string `config:"format" default:"rfc9457" validate:"oneof=rfc9457 simple"`
	BaseURL string `config:"base_url" validate:"omitempty,url"`
}

// RouteConfig is one method and pattern with the versions serving it.
type RouteConfig struct {
	Method   string          `config:"method" default:"GET"`
	Pattern  string          `config:"pattern" validate:"required,startswith=/"`
	Versions []VersionConfig `config:"versions" validate:"required,min=1,dive"`
}

// VersionConfig is one version of a route.
type VersionConfig struct {
	Version         version.Version `config:"version"`
	Upstream        string          `config:"upstream" validate:"omitempty,url"`
	Deprecated      bool            `config:"deprecated"`
	DeprecatedSince time.Time       `config:"deprecated_since"`
	Sunset          time.Time       `config:"sunset"`
	MigrationURL    string          `config:"migration_url" validate:"omitempty,url"`
	Successor       version.Version `config:"successor"`
}

// Validate checks what the field tags cannot express.
func (d *Document) Validate() error {
	var errs error

	if _, err := d.Versioning.ResolverReaders(); err != nil {
		errs = errors.Join(errs, err)
	}

	for _, rc := range d.Routes {
		var seen []version.Version
		for _, vc := range rc.Versions {
			if vc.Version.IsZero() {
				errs = errors.Join(errs, fmt.Errorf("%w: %s %s", ErrZeroRouteVersion, rc.Method, rc.Pattern))
				continue
			}
			if slices.ContainsFunc(seen, vc.Version.Equal) {
				errs = errors.Join(errs, fmt.Errorf("%w: %s %s version %s", ErrDuplicateVersion, rc.Method, rc.Pattern, vc.Version))
			}
			seen = append(seen, vc.Version)
		}

		for _, vc := range rc.Versions {
			if !vc.Successor.IsZero() && !slices.ContainsFunc(seen, vc.Successor.Equal) {
				errs = errors.Join(errs, fmt.Errorf("%w: %s %s version %s successor %s", ErrUnknownSuccessor, rc.Method, rc.Pattern, vc.Version, vc.Successor))
			}
			if !vc.Sunset.IsZero() && !vc.DeprecatedSince.IsZero() && vc.Sunset.Before(vc.DeprecatedSince) {
				errs = errors.Join(errs, fmt.Errorf("%w: %s %s version %s", ErrSunsetBeforeDeprecation, rc.Method, rc.Pattern, vc.Version))
			}
		}
	}

	return errs
}

// LoadDocument builds a Config from opts, checks it against
// [DefaultSchema], and returns the bound Document.
//
// Example:
//
//	doc, err := config.LoadDocument(ctx,
//	    config.WithFile("apiversion.yaml"),
//	    config.WithEnv("APIVERSIOND_"),
//	)
func LoadDocument(ctx context.Context, opts ...Option) (*Document, error) {
	var doc Document

	all := make([]Option, 0, len(opts)+2)
	all = append(all, WithJSONSchema(DefaultSchema))
	all = append(all, opts...)
	all = append(all, WithBinding(&doc))

	cfg, err := New(all...)
	if err != nil {
		return nil, err
	}
	if err = cfg.Load(ctx); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ResolverReaders converts the configured readers. An empty list yields
// nil, leaving the choice to the registry defaults.
func (v VersioningConfig) ResolverReaders() ([]resolver.Reader, error) {
	if len(v.Readers) == 0 {
		return nil, nil
	}

	readers := make([]resolver.Reader, 0, len(v.Readers))
	for _, rc := range v.Readers {
		kind, err := resolver.ParseSourceKind(rc.Kind)
		if err != nil {
			return nil, fmt.Errorf("config: reader %q: %w", rc.Kind, err)
		}
		readers = append(readers, resolver.Reader{Kind: kind, Name: rc.Name})
	}

	return readers, nil
}

// Formatter returns the problem formatter the document selects.
func (v VersioningConfig) Formatter() problem.Formatter {
	if v.Problem.Format == "simple" {
		return problem.NewSimple()
	}
	return problem.NewRFC9457(v.Problem.BaseURL)
}

// NegotiatorOptions returns the negotiation settings as options.
func (v VersioningConfig) NegotiatorOptions() []negotiate.Option {
	opts := []negotiate.Option{
		negotiate.WithHeaderNames(
			cmp.Or(v.SupportedHeader, negotiate.DefaultSupportedHeader),
			cmp.Or(v.DeprecatedHeader, negotiate.DefaultDeprecatedHeader),
		),
	}
	if v.VersionHeader {
		opts = append(opts, negotiate.WithVersionHeader())
	}
	if v.Warning299 {
		opts = append(opts, negotiate.WithWarning299())
	}
	if v.EnforceSunset {
		opts = append(opts, negotiate.WithSunsetEnforcement())
	}
	return opts
}
