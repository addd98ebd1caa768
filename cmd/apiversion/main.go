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

// Command apiversion inspects apiversiond configuration offline.
//
// Usage:
//
//	apiversion resolve -c apiversion.yaml --route "GET /api/users" --header 2
//	apiversion routes -c apiversion.yaml
//	apiversion check -c apiversion.yaml [--print yaml]
package main

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"rivaas.dev/apiversion/config"
)

var buildVersion = "dev"

type cli struct {
	Resolve resolveCmd       `cmd:"" help:"Resolve the API version of a request against one route."`
	Routes  routesCmd        `cmd:"" help:"Print the configured routes and versions."`
	Check   checkCmd         `cmd:"" help:"Validate configuration and optionally print the merged result."`
	Version kong.VersionFlag `name:"version" help:"Print the version and exit."`
}

// configFlags are shared by every command.
type configFlags struct {
	Config    []string `name:"config" short:"c" help:"Configuration file; repeat to layer files." type:"existingfile" required:""`
	EnvPrefix string   `name:"env-prefix" help:"Also read environment overrides with this prefix."`
}

func (f configFlags) options() []config.Option {
	opts := make([]config.Option, 0, len(f.Config)+1)
	for _, path := range f.Config {
		opts = append(opts, config.WithFile(path))
	}
	if f.EnvPrefix != "" {
		opts = append(opts, config.WithEnv(f.EnvPrefix))
	}
	return opts
}

func (f configFlags) load(ctx context.Context) (*config.Document, error) {
	return config.LoadDocument(ctx, f.options()...)
}

func newParser(c *cli, out io.Writer) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("apiversion"),
		kong.Description("Inspect API version negotiation settings."),
		kong.UsageOnError(),
		kong.Vars{"version": buildVersion},
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(out, (*io.Writer)(nil)),
		kong.Writers(out, os.Stderr),
	)
}

func main() {
	var c cli
	parser, err := newParser(&c, os.Stdout)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run())
}
