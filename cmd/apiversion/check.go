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
	"fmt"
	"io"

	"rivaas.dev/apiversion/config"
	"rivaas.dev/apiversion/config/codec"
)

// checkCmd validates the configuration.
type checkCmd struct {
	configFlags
	Print string `name:"print" placeholder:"FORMAT" help:"Print the merged configuration as json, yaml or toml."`
}

func (c *checkCmd) Run(ctx context.Context, out io.Writer) error {
	var doc config.Document

	opts := append([]config.Option{config.WithJSONSchema(config.DefaultSchema)}, c.options()...)
	cfg, err := config.New(append(opts, config.WithBinding(&doc))...)
	if err != nil {
		return err
	}
	if err = cfg.Load(ctx); err != nil {
		return err
	}

	if c.Print != "" {
		enc, err := codec.GetEncoder(codec.Type(c.Print))
		if err != nil {
			return err
		}
		data, err := enc.Encode(cfg.Values())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	versions := 0
	for _, rc := range doc.Routes {
		versions += len(rc.Versions)
	}
	_, err = fmt.Fprintf(out, "ok: %d routes, %d versions\n", len(doc.Routes), versions)
	return err
}
