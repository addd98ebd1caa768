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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rivaas.dev/apiversion/app"
	"rivaas.dev/apiversion/config"
	"rivaas.dev/apiversion/registry"
	"rivaas.dev/apiversion/resolver"
)

var (
	errRouteNotFound = errors.New("route not found")
	errRejected      = errors.New("version rejected")
)

// routesCmd prints the route table.
type routesCmd struct {
	configFlags
	Width int `name:"width" default:"120" help:"Preferred table width."`
}

func (c *routesCmd) Run(ctx context.Context, out io.Writer) error {
	reg, err := c.registry(ctx)
	if err != nil {
		return err
	}
	app.RenderRoutes(app.NewColorWriter(out), reg.Routes(), c.Width)
	return nil
}

// registry builds the registry without proxies; only its metadata is used.
func (f configFlags) registry(ctx context.Context) (*registry.Registry, error) {
	doc, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Registry(func(config.RouteConfig, config.VersionConfig) (http.Handler, error) {
		return http.NotFoundHandler(), nil
	})
}

// resolveCmd resolves a version offline with the route's policy.
type resolveCmd struct {
	configFlags
	Route   string `name:"route" required:"" help:"Route as \"METHOD /pattern\"; the method defaults to GET."`
	Segment string `name:"segment" help:"Version found in the URL path."`
	Header  string `name:"header" help:"Version sent in the version header."`
	Query   string `name:"query" help:"Version sent in the query string."`
	Media   string `name:"media" help:"Version sent as a media type parameter."`
}

func (c *resolveCmd) Run(ctx context.Context, out io.Writer) error {
	doc, err := c.load(ctx)
	if err != nil {
		return err
	}
	reg, err := doc.Registry(func(config.RouteConfig, config.VersionConfig) (http.Handler, error) {
		return http.NotFoundHandler(), nil
	})
	if err != nil {
		return err
	}

	method, pattern := parseRoute(c.Route)
	var info *registry.RouteInfo
	for _, ri := range reg.Routes() {
		if ri.Method == method && ri.Pattern == pattern {
			info = &ri
			break
		}
	}
	if info == nil {
		return fmt.Errorf("%w: %s %s", errRouteNotFound, method, pattern)
	}

	readers, err := doc.Versioning.ResolverReaders()
	if err != nil {
		return err
	}
	policy, err := routePolicy(*info, readers, doc.Versioning.AssumeDefault)
	if err != nil {
		return err
	}

	res, rerr := resolver.Resolve(policy, c.signals(policy.Readers()))
	printResolution(out, method+" "+pattern, res, rerr)
	if rerr != nil {
		return fmt.Errorf("%w: %s", errRejected, resolver.KindOf(rerr))
	}
	return nil
}

// signals assigns each flag to the first reader of its kind.
func (c *resolveCmd) signals(readers []resolver.Reader) resolver.Signals {
	values := map[resolver.SourceKind]string{
		resolver.SourceURLSegment: c.Segment,
		resolver.SourceHeader:     c.Header,
		resolver.SourceQuery:      c.Query,
		resolver.SourceMediaType:  c.Media,
	}

	signals := resolver.Signals{}
	for _, r := range readers {
		if v, ok := values[r.Kind]; ok && v != "" {
			signals[r] = v
			delete(values, r.Kind)
		}
	}
	return signals
}

func parseRoute(s string) (method, pattern string) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return http.MethodGet, ""
	case 1:
		return http.MethodGet, fields[0]
	default:
		return strings.ToUpper(fields[0]), fields[1]
	}
}

// routePolicy rebuilds the policy the registry derived for info.
func routePolicy(info registry.RouteInfo, readers []resolver.Reader, assume bool) (*resolver.Policy, error) {
	opts := []resolver.Option{
		resolver.WithSupported(info.Versions.Versions()...),
		resolver.WithAssumeDefault(assume),
	}
	if info.Deprecated.Len() > 0 {
		opts = append(opts, resolver.WithDeprecated(info.Deprecated.Versions()...))
	}
	if !info.Default.IsZero() {
		opts = append(opts, resolver.WithDefault(info.Default))
	}
	if len(readers) > 0 {
		opts = append(opts, resolver.WithReaders(readers...))
	}
	return resolver.NewPolicy(opts...)
}

func printResolution(w io.Writer, route string, res resolver.Result, err error) {
	cw := app.NewColorWriter(w)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(12)
	good := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	row := func(l, v string) { _, _ = fmt.Fprintln(cw, label.Render(l)+" "+v) }

	row("route", route)
	if err != nil {
		row("outcome", bad.Render(resolver.KindOf(err).String()))
		row("error", err.Error())
	} else {
		row("version", good.Render(res.Version.String()))
		source := res.Source.String()
		if res.Defaulted {
			source = "default"
		}
		row("source", source)
		if res.IsDeprecated() {
			row("status", warn.Render("deprecated"))
		}
	}
	row("supported", res.Supported.String())
	if res.Deprecated.Len() > 0 {
		row("deprecated", res.Deprecated.String())
	}
}
