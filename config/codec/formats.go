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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

func init() {
	RegisterEncoder(TypeJSON, JSON{})
	RegisterDecoder(TypeJSON, JSON{})
	RegisterEncoder(TypeYAML, YAML{})
	RegisterDecoder(TypeYAML, YAML{})
	RegisterEncoder(TypeTOML, TOML{})
	RegisterDecoder(TypeTOML, TOML{})
}

// JSON reads and writes JSON documents.
type JSON struct{}

// Encode writes v as indented JSON.
func (JSON) Encode(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Decode parses data into v. An empty document decodes as an empty map.
func (JSON) Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return toMap("json", map[string]any{}, v)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: json: %w", err)
	}
	return nil
}

// YAML reads and writes YAML documents.
type YAML struct{}

// Encode writes v as YAML.
func (YAML) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Decode parses data into v.
func (YAML) Decode(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: yaml: %w", err)
	}
	if ptr, ok := v.(*map[string]any); ok && *ptr == nil {
		*ptr = map[string]any{}
	}
	return nil
}

// TOML reads and writes TOML documents.
type TOML struct{}

// Encode writes v as TOML.
func (TOML) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("codec: toml: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses data into v.
func (TOML) Decode(data []byte, v any) error {
	if _, err := toml.Decode(string(data), v); err != nil {
		return fmt.Errorf("codec: toml: %w", err)
	}
	if ptr, ok := v.(*map[string]any); ok && *ptr == nil {
		*ptr = map[string]any{}
	}
	return nil
}
