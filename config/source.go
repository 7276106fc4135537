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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/consul/api"
)

// Source produces one layer of configuration.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// File reads a configuration file.
type File struct {
	path     string
	decoder  Decoder
	optional bool
}

// NewFile returns a file source. An optional file that does not exist
// loads as empty.
func NewFile(path string, decoder Decoder, optional bool) *File {
	return &File{path: path, decoder: decoder, optional: optional}
}

// Load reads and decodes the file.
func (f *File) Load(context.Context) (map[string]any, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if f.optional && errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}

	var values map[string]any
	if err := f.decoder.Decode(data, &values); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.path, err)
	}

	return values, nil
}

// Content is an in-memory document.
type Content struct {
	data    []byte
	decoder Decoder
}

// NewContent returns a source over data.
func NewContent(data []byte, decoder Decoder) *Content {
	return &Content{data: data, decoder: decoder}
}

// Load decodes the document.
func (c *Content) Load(context.Context) (map[string]any, error) {
	var values map[string]any
	if err := c.decoder.Decode(c.data, &values); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}

	return values, nil
}

// EnvSeparator separates nesting levels in environment variable names.
const EnvSeparator = "__"

// Env reads prefixed environment variables. With prefix "DISPATCH_",
// DISPATCH_SERVER__ADDR becomes server.addr and DISPATCH_DEV_MODE becomes
// dev_mode. Values stay strings; binding converts them.
type Env struct {
	prefix  string
	environ func() []string
}

// NewEnv returns an environment source.
func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix, environ: os.Environ}
}

// Load collects the matching variables.
func (e *Env) Load(context.Context) (map[string]any, error) {
	values := make(map[string]any)
	for _, kv := range e.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(name, e.prefix)), EnvSeparator)
		if err := setPath(values, path, value); err != nil {
			return nil, fmt.Errorf("environment variable %s: %w", name, err)
		}
	}

	return values, nil
}

func setPath(m map[string]any, path []string, value any) error {
	for i, key := range path {
		if key == "" {
			return errors.New("empty key segment")
		}
		if i == len(path)-1 {
			m[key] = value
			return nil
		}
		next, ok := m[key].(map[string]any)
		if !ok {
			if _, exists := m[key]; exists {
				return fmt.Errorf("%q is both a value and a section", key)
			}
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}

	return nil
}

// ConsulKV is the part of the Consul KV API the source uses.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul reads one document from the Consul KV store. The client is
// configured from the standard CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN
// variables.
type Consul struct {
	kv      ConsulKV
	key     string
	decoder Decoder
}

// NewConsul returns a Consul source. A nil kv uses a client built from the
// environment.
func NewConsul(key string, decoder Decoder, kv ConsulKV) (*Consul, error) {
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("creating consul client: %w", err)
		}
		kv = client.KV()
	}

	return &Consul{kv: kv, key: key, decoder: decoder}, nil
}

// Load fetches and decodes the key. A missing key loads as empty.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, _, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("reading consul key %s: %w", c.key, err)
	}
	if pair == nil {
		return map[string]any{}, nil
	}

	var values map[string]any
	if err := c.decoder.Decode(pair.Value, &values); err != nil {
		return nil, fmt.Errorf("decoding consul key %s: %w", c.key, err)
	}

	return values, nil
}
