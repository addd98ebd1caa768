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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"
)

// Config merges layered sources into one set of values and optionally
// binds them into a struct. It is safe for concurrent use; Load swaps the
// values atomically and leaves the previous state untouched on failure.
type Config struct {
	mu     sync.RWMutex
	values map[string]any

	sources    []Source
	binding    any
	tagName    string
	schema     *jsonschema.Schema
	validators []func(map[string]any) error
	structs    *validator.Validate
}

// New builds a Config. Option errors are joined and returned together;
// the partially configured Config is returned alongside them.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		values:  map[string]any{},
		tagName: "config",
	}

	var errs error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	c.structs = newStructValidator(c.tagName)

	return c, errs
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Config {
	c, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return c
}

// Validator is implemented by bound structs that check themselves.
type Validator interface {
	Validate() error
}

// Load reads every source in order, merges them, validates the result and
// binds it. Errors are returned as *Error.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	values, err := c.merge(ctx)
	if err != nil {
		return err
	}

	if c.schema != nil {
		if err = c.validateSchema(values); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}

	for i, fn := range c.validators {
		if err = runValidator(fn, values); err != nil {
			return NewError(fmt.Sprintf("validator[%d]", i), "validate", err)
		}
	}

	if c.binding != nil {
		if err = c.bind(values); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.values = values
	c.mu.Unlock()

	return nil
}

// MustLoad is like Load but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func (c *Config) merge(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := sourceName(i, src)
		layer, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(name, "load", err)
		}
		if len(layer) == 0 {
			continue
		}

		if err = mergo.Map(&merged, normalizeKeys(layer), mergo.WithOverride); err != nil {
			return nil, NewError(name, "merge", err)
		}
	}

	return merged, nil
}

func (c *Config) validateSchema(values map[string]any) error {
	// Decoders produce int64, uint64 and time.Time; the schema validator
	// expects plain JSON values.
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return c.schema.Validate(doc)
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrValidatorPanic, r)
		}
	}()
	return fn(values)
}

// normalizeKeys lower-cases keys at every depth, including maps inside
// lists.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeKeys(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[strings.ToLower(cast.ToString(k))] = normalizeValue(val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeKeys(val)
		}
		return out
	}
	return v
}

// Values returns a copy of the merged values.
func (c *Config) Values() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return normalizeKeys(c.values)
}

// lookup walks a dot-separated, case-insensitive path.
func (c *Config) lookup(path string) any {
	if c == nil || path == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	path = strings.ToLower(path)
	if v, ok := c.values[path]; ok {
		return v
	}

	var current any = c.values
	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[seg]; !ok {
			return nil
		}
	}
	return current
}

// Get returns the raw value at key, or nil.
func (c *Config) Get(key string) any { return c.lookup(key) }

// Has reports whether key is set.
func (c *Config) Has(key string) bool { return c.lookup(key) != nil }

// String returns the value at key as a string, or "".
func (c *Config) String(key string) string { return cast.ToString(c.lookup(key)) }

// Int returns the value at key as an int, or 0.
func (c *Config) Int(key string) int { return cast.ToInt(c.lookup(key)) }

// Float64 returns the value at key as a float64, or 0.
func (c *Config) Float64(key string) float64 { return cast.ToFloat64(c.lookup(key)) }

// Bool returns the value at key as a bool, or false.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.lookup(key)) }

// Duration returns the value at key as a duration, or 0.
func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.lookup(key)) }

// StringSlice returns the value at key as a string slice.
func (c *Config) StringSlice(key string) []string { return cast.ToStringSlice(c.lookup(key)) }

// StringOr returns the value at key, or def when unset or unconvertible.
func (c *Config) StringOr(key, def string) string { return GetOr(c, key, def) }

// IntOr returns the value at key, or def when unset or unconvertible.
func (c *Config) IntOr(key string, def int) int { return GetOr(c, key, def) }

// BoolOr returns the value at key, or def when unset or unconvertible.
func (c *Config) BoolOr(key string, def bool) bool { return GetOr(c, key, def) }

// DurationOr returns the value at key, or def when unset or unconvertible.
func (c *Config) DurationOr(key string, def time.Duration) time.Duration { return GetOr(c, key, def) }
