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
	"path/filepath"
	"strings"

	"rivaas.dev/apiversion/config/codec"
)

// detectFormat picks a codec from the file extension.
func detectFormat(path string) (codec.Type, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codec.TypeYAML, nil
	case ".json":
		return codec.TypeJSON, nil
	case ".toml":
		return codec.TypeTOML, nil
	case ".env":
		return codec.TypeEnv, nil
	}
	return "", ErrUnknownFormat
}
