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

package codec

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// EnvSeparator splits a variable name into nested keys.
// A single underscore stays part of the key, so
// SERVER__SHUTDOWN_TIMEOUT becomes server.shutdown_timeout.
const EnvSeparator = "__"

func init() {
	RegisterDecoder(TypeEnv, Env{})
}

// Env decodes KEY=VALUE lines, one per line, into a nested map.
// Keys are lower-cased and split on [EnvSeparator]. Blank lines and lines
// starting with "#" are skipped.
type Env struct{}

// Encode is not supported; environment input is read-only.
func (Env) Encode(any) ([]byte, error) {
	return nil, errors.New("codec: env: encoding is not supported")
}

// Decode parses data into v, which must be a *map[string]any.
func (Env) Decode(data []byte, v any) error {
	conf := make(map[string]any)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		parts := envPath(key)
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				// A scalar at an intermediate key is replaced by the nested map.
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	return toMap("env", conf, v)
}

func envPath(key string) []string {
	raw := strings.Split(strings.ToLower(strings.TrimSpace(key)), EnvSeparator)
	parts := raw[:0]
	for _, p := range raw {
		if p = strings.Trim(p, "_"); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
