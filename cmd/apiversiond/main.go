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

// Command apiversiond is a versioning gateway: it resolves the API version
// of each request and proxies it to the upstream serving that version.
//
// Usage:
//
//	apiversiond --config apiversion.yaml [--config overrides.yaml] [--env-prefix APIVERSIOND_]
//
// Send SIGHUP to reload routes and versioning settings; SIGINT or SIGTERM
// shut the server down gracefully.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"rivaas.dev/apiversion/app"
	"rivaas.dev/apiversion/config"
)

// buildVersion is set with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

type cli struct {
	Config    []string         `name:"config" short:"c" help:"Configuration file; repeat to layer files, later ones win." type:"existingfile" required:""`
	EnvPrefix string           `name:"env-prefix" default:"APIVERSIOND_" help:"Prefix of environment variable overrides."`
	Consul    string           `name:"consul" help:"Consul key with configuration, read when CONSUL_HTTP_ADDR is set."`
	Addr      string           `name:"addr" help:"Listen address, overriding server.addr."`
	Version   kong.VersionFlag `name:"version" help:"Print the version and exit."`
}

func (c *cli) options() []config.Option {
	opts := make([]config.Option, 0, len(c.Config)+3)
	for _, path := range c.Config {
		opts = append(opts, config.WithFile(path))
	}
	if c.Consul != "" {
		opts = append(opts, config.WithConsul(c.Consul))
	}
	if c.EnvPrefix != "" {
		opts = append(opts, config.WithEnv(c.EnvPrefix))
	}
	if c.Addr != "" {
		opts = append(opts, config.WithSource(config.SourceFunc(func(context.Context) (map[string]any, error) {
			return map[string]any{"server": map[string]any{"addr": c.Addr}}, nil
		})))
	}
	return opts
}

func (c *cli) load(ctx context.Context) (*config.Document, error) {
	return config.LoadDocument(ctx, c.options()...)
}

func (c *cli) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := c.load(ctx)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	a, err := app.New(doc,
		app.WithServiceVersion(buildVersion),
		app.WithReload(c.load),
	)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("apiversiond"),
		kong.Description("API version negotiation gateway."),
		kong.UsageOnError(),
		kong.Vars{"version": buildVersion},
	)
	kctx.FatalIfErrorf(kctx.Run())
}
