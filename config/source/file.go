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

// Package source provides the configuration sources the config package
// merges: files and inline content, prefixed environment variables, and
// the Consul key/value store.
//
// Every source returns a nested map[string]any from Load; merging and
// binding happen in the config package.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"

	"rivaas.dev/apiversion/config/codec"
)

// ErrNilDecoder is returned when a source is built without a decoder.
var ErrNilDecoder = errors.New("source: nil decoder")

// File loads a document from a path or from in-memory content.
type File struct {
	path    string
	data    []byte
	decoder codec.Decoder
}

// NewFile returns a source reading path on every Load.
func NewFile(path string, decoder codec.Decoder) *File {
	return &File{path: path, decoder: decoder}
}

// NewContent returns a source decoding data on every Load.
func NewContent(data []byte, decoder codec.Decoder) *File {
	return &File{data: data, decoder: decoder}
}

// Name describes the source for error messages.
func (f *File) Name() string {
	if f.path != "" {
		return "file:" + f.path
	}
	return "content"
}

// Load reads and decodes the document.
func (f *File) Load(context.Context) (map[string]any, error) {
	if f.decoder == nil {
		return nil, ErrNilDecoder
	}

	data := f.data
	if f.path != "" {
		var err error
		if data, err = os.ReadFile(f.path); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.path, err)
		}
	}

	var values map[string]any
	if err := f.decoder.Decode(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Name(), err)
	}

	return values, nil
}
