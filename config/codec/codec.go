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

// Package codec encodes and decodes configuration documents.
//
// Each format registers itself under a [Type] at init time. The config
// package looks decoders up by type when loading sources, and the CLI
// looks encoders up when printing a resolved document.
//
// Example:
//
//	dec, err := codec.GetDecoder(codec.TypeYAML)
//	if err != nil {
//	    return err
//	}
//	var values map[string]any
//	err = dec.Decode(data, &values)
package codec

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Type identifies a codec.
type Type string

const (
	TypeJSON Type = "json"
	TypeYAML Type = "yaml"
	TypeTOML Type = "toml"
	TypeEnv  Type = "env"
)

// ErrUnknownCodec is returned when no codec is registered for a type.
var ErrUnknownCodec = errors.New("codec: unknown type")

// Encoder turns a value into its encoded form.
// Implementations must be safe for concurrent use.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder parses encoded data into the value pointed to by v.
// Implementations must be safe for concurrent use.
type Decoder interface {
	Decode(data []byte, v any) error
}

var (
	mu       sync.RWMutex
	encoders = map[Type]Encoder{}
	decoders = map[Type]Decoder{}
)

// RegisterEncoder makes an encoder available under t, replacing any
// previous registration.
func RegisterEncoder(t Type, e Encoder) {
	mu.Lock()
	defer mu.Unlock()
	encoders[t] = e
}

// RegisterDecoder makes a decoder available under t, replacing any
// previous registration.
func RegisterDecoder(t Type, d Decoder) {
	mu.Lock()
	defer mu.Unlock()
	decoders[t] = d
}

// GetEncoder returns the encoder registered under t.
func GetEncoder(t Type) (Encoder, error) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := encoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: encoder %q", ErrUnknownCodec, t)
	}
	return e, nil
}

// GetDecoder returns the decoder registered under t.
func GetDecoder(t Type) (Decoder, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: decoder %q", ErrUnknownCodec, t)
	}
	return d, nil
}

// Encoders lists the types that have an encoder, sorted.
func Encoders() []Type {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]Type, 0, len(encoders))
	for t := range encoders {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// toMap stores m in v, which must be a *map[string]any.
func toMap(name string, m map[string]any, v any) error {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("codec: %s: expected *map[string]any, got %T", name, v)
	}
	*ptr = m
	return nil
}
