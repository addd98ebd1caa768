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

// Package config loads layered configuration into maps and structs.
//
// Sources (files, inline content, environment variables and Consul keys)
// are loaded in order and deep-merged, later sources overriding earlier
// ones. Keys are case-insensitive. The merged values can be checked with a
// JSON schema and custom validators, and bound into a struct using
// `config` tags, `default` tags and `validate` tags.
//
// [Document] is the schema of the apiversiond gateway; its
// [Document.Registry] method turns the routes into a version registry.
//
// Example:
//
//	var doc config.Document
//	cfg, err := config.New(
//	    config.WithFile("apiversion.yaml"),
//	    config.WithEnv("APIVERSIOND_"),
//	    config.WithJSONSchema(config.DefaultSchema),
//	    config.WithBinding(&doc),
//	)
//	if err != nil {
//	    return err
//	}
//	if err = cfg.Load(ctx); err != nil {
//	    return err
//	}
package config
