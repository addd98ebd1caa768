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
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at key converted to T, or the zero T.
//
// Example:
//
//	rate := config.Get[float64](cfg, "tracing.sample_rate")
func Get[T any](c *Config, key string) T {
	v, _ := GetE[T](c, key)
	return v
}

// GetOr returns the value at key converted to T, or def.
//
// Example:
//
//	timeout := config.GetOr(cfg, "server.shutdown_timeout", 10*time.Second)
func GetOr[T any](c *Config, key string, def T) T {
	if v, ok := GetE[T](c, key); ok {
		return v
	}
	return def
}

// GetE returns the value at key converted to T and whether that worked.
func GetE[T any](c *Config, key string) (T, bool) {
	var zero T

	raw := c.lookup(key)
	if raw == nil {
		return zero, false
	}
	if v, ok := raw.(T); ok {
		return v, true
	}

	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case string:
		out, err = cast.ToStringE(raw)
	case int:
		out, err = cast.ToIntE(raw)
	case int64:
		out, err = cast.ToInt64E(raw)
	case float64:
		out, err = cast.ToFloat64E(raw)
	case bool:
		out, err = cast.ToBoolE(raw)
	case time.Duration:
		out, err = cast.ToDurationE(raw)
	case time.Time:
		out, err = cast.ToTimeE(raw)
	case []string:
		out, err = cast.ToStringSliceE(raw)
	case map[string]any:
		out, err = cast.ToStringMapE(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}

	v, ok := out.(T)
	return v, ok
}
