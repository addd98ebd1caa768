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

package source

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/consul/api"

	"rivaas.dev/apiversion/config/codec"
)

// ConsulKV is the subset of the Consul KV API the source uses.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads a document stored under one Consul key.
//
// The client is configured from the standard Consul environment variables
// (CONSUL_HTTP_ADDR, CONSUL_HTTP_TOKEN and friends).
type Consul struct {
	kv        ConsulKV
	path      string
	decoder   codec.Decoder
	lastIndex atomic.Uint64
}

// NewConsul returns a source for the key at path. When kv is nil a client
// is built from the environment.
func NewConsul(path string, decoder codec.Decoder, kv ConsulKV) (*Consul, error) {
	if decoder == nil {
		return nil, ErrNilDecoder
	}
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("create consul client: %w", err)
		}
		kv = client.KV()
	}

	return &Consul{kv: kv, path: path, decoder: decoder}, nil
}

// Name describes the source for error messages.
func (c *Consul) Name() string { return "consul:" + c.path }

// LastIndex returns the Consul index observed by the latest Load.
func (c *Consul) LastIndex() uint64 { return c.lastIndex.Load() }

// Load fetches and decodes the key. A missing key yields an empty map.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := c.kv.Get(c.path, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get consul key %s: %w", c.path, err)
	}
	if meta != nil {
		c.lastIndex.Store(meta.LastIndex)
	}
	if pair == nil {
		return map[string]any{}, nil
	}

	var values map[string]any
	if err := c.decoder.Decode(pair.Value, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
	}

	return values, nil
}
