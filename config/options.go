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
	"bytes"
	"fmt"
	"os"
	"reflect"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/apiversion/config/codec"
	"rivaas.dev/apiversion/config/source"
)

// Option configures a [Config]. Options report their own errors, which
// [New] collects.
type Option func(c *Config) error

// WithSource appends a source. Later sources override earlier ones.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return ErrNilSource
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile adds a file whose format is detected from its extension
// (.yaml, .yml, .json, .toml, .env).
//
// Example:
//
//	cfg, err := config.New(config.WithFile("apiversion.yaml"))
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return ErrEmptyPath
		}
		t, err := detectFormat(path)
		if err != nil {
			return fmt.Errorf("%w: %s", err, path)
		}
		return WithFileAs(path, t)(c)
	}
}

// WithFileAs adds a file decoded with an explicit codec.
func WithFileAs(path string, t codec.Type) Option {
	return func(c *Config) error {
		if path == "" {
			return ErrEmptyPath
		}
		dec, err := codec.GetDecoder(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFile(path, dec))
		return nil
	}
}

// WithContent adds an in-memory document.
func WithContent(data []byte, t codec.Type) Option {
	return func(c *Config) error {
		dec, err := codec.GetDecoder(t)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewContent(bytes.Clone(data), dec))
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix. Nested keys
// are separated by a double underscore:
//
//	APIVERSIOND_SERVER__ADDR=:9090       -> server.addr
//	APIVERSIOND_LOGGING__LEVEL=debug     -> logging.level
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewEnv(prefix))
		return nil
	}
}

// WithConsul adds a Consul key whose format is detected from its
// extension. The option is a no-op when CONSUL_HTTP_ADDR is unset, so the
// same configuration works with and without a Consul agent.
func WithConsul(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return ErrEmptyPath
		}
		t, err := detectFormat(path)
		if err != nil {
			return fmt.Errorf("%w: %s", err, path)
		}
		return WithConsulAs(path, t)(c)
	}
}

// WithConsulAs is [WithConsul] with an explicit codec.
func WithConsulAs(path string, t codec.Type) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}
		dec, err := codec.GetDecoder(t)
		if err != nil {
			return err
		}
		src, err := source.NewConsul(path, dec, nil)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithBinding decodes the merged values into v, a pointer to a struct, on
// every successful Load. Fields are matched by the `config` tag, `default`
// tags fill zero fields, `validate` tags are checked, and a
// Validate() error method runs last.
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return ErrInvalidBinding
		}
		c.binding = v
		return nil
	}
}

// WithTag changes the struct tag used for binding. The default is "config".
func WithTag(name string) Option {
	return func(c *Config) error {
		if name != "" {
			c.tagName = name
		}
		return nil
	}
}

// WithJSONSchema checks the merged values against schema before binding.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}

		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource("schema.json", doc); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}
		s, err := compiler.Compile("schema.json")
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
		}

		c.schema = s
		return nil
	}
}

// WithValidator adds a check over the merged values. Validators run in the
// order given, after the schema and before binding.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn == nil {
			return ErrNilValidator
		}
		c.validators = append(c.validators, fn)
		return nil
	}
}
