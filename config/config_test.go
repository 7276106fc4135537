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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverSettings struct {
	Addr         string        `config:"addr" default:":8080"`
	ReadTimeout  time.Duration `config:"read_timeout" default:"5s"`
	MaxBody      int64         `config:"max_body" default:"1024"`
	Compress     bool          `config:"compress" default:"true"`
	TrustedHosts []string      `config:"trusted_hosts"`
}

type settings struct {
	Name   string         `config:"name" default:"dispatchd"`
	Debug  bool           `config:"debug"`
	Server serverSettings `config:"server"`
}

func (s *settings) Validate() error {
	if s.Server.MaxBody < 0 {
		return errors.New("server.max_body must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Parallel()

	var s settings
	cfg, err := New(WithBinding(&s))
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, "dispatchd", s.Name)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, 5*time.Second, s.Server.ReadTimeout)
	assert.True(t, s.Server.Compress)
}

func TestLoad_FormatsAndPrecedence(t *testing.T) {
	t.Parallel()

	yamlPath := writeFile(t, "base.yaml", "name: api\nserver:\n  addr: \":9000\"\n  read_timeout: 2s\n  compress: false\n")
	tomlPath := writeFile(t, "override.toml", "[server]\nmax_body = 4096\n")
	jsonPath := writeFile(t, "final.json", `{"Server": {"Addr": ":9100"}, "debug": true}`)

	var s settings
	cfg, err := New(WithFile(yamlPath), WithFile(tomlPath), WithFile(jsonPath), WithBinding(&s))
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, "api", s.Name)
	assert.Equal(t, ":9100", s.Server.Addr, "later source wins, keys are case-insensitive")
	assert.Equal(t, 2*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, int64(4096), s.Server.MaxBody)
	assert.False(t, s.Server.Compress, "a source can turn a default off")
	assert.True(t, s.Debug)

	assert.Equal(t, ":9100", cfg.String("server.addr"))
	assert.Equal(t, 4096, cfg.Int("SERVER.MAX_BODY"))
	assert.True(t, cfg.Bool("debug"))
	assert.Equal(t, 2*time.Second, cfg.Duration("server.read_timeout"))
	assert.Equal(t, "fallback", cfg.StringOr("missing.key", "fallback"))
	assert.Nil(t, cfg.Get("server.addr.port"))
}

func TestEnvSource(t *testing.T) {
	t.Parallel()

	env := &Env{prefix: "DISPATCH_", environ: func() []string {
		return []string{
			"DISPATCH_SERVER__ADDR=:7000",
			"DISPATCH_SERVER__MAX_BODY=77",
			"DISPATCH_SERVER__TRUSTED_HOSTS=a.example,b.example",
			"DISPATCH_DEBUG=true",
			"OTHER_SERVER__ADDR=:1",
		}
	}}

	var s settings
	cfg, err := New(WithContent([]byte("server:\n  addr: \":9000\"\n"), FormatYAML), WithSource(env), WithBinding(&s))
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))

	assert.Equal(t, ":7000", s.Server.Addr)
	assert.Equal(t, int64(77), s.Server.MaxBody)
	assert.Equal(t, []string{"a.example", "b.example"}, s.Server.TrustedHosts)
	assert.True(t, s.Debug)
}

func TestEnvSource_Conflict(t *testing.T) {
	t.Parallel()

	env := &Env{prefix: "X_", environ: func() []string { return []string{"X_A=1", "X_A__B=2"} }}
	_, err := env.Load(context.Background())
	require.Error(t, err)
}

type fakeKV map[string][]byte

func (f fakeKV) Get(key string, _ *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error) {
	if key == "broken" {
		return nil, nil, errors.New("connection refused")
	}
	v, ok := f[key]
	if !ok {
		return nil, &api.QueryMeta{}, nil
	}
	return &api.KVPair{Key: key, Value: v}, &api.QueryMeta{LastIndex: 1}, nil
}

func TestConsulSource(t *testing.T) {
	t.Parallel()

	kv := fakeKV{"dispatch/prod.yaml": []byte("server:\n  addr: \":443\"\n")}
	dec, err := DecoderFor(FormatYAML)
	require.NoError(t, err)

	src, err := NewConsul("dispatch/prod.yaml", dec, kv)
	require.NoError(t, err)
	values, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"server": map[string]any{"addr": ":443"}}, values)

	missing, err := NewConsul("dispatch/none.yaml", dec, kv)
	require.NoError(t, err)
	values, err = missing.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, values)

	broken, err := NewConsul("broken", dec, kv)
	require.NoError(t, err)
	var s settings
	cfg, err := New(WithSource(broken), WithBinding(&s))
	require.NoError(t, err)

	err = cfg.Load(context.Background())
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "source[0]", cfgErr.Source)
	assert.Equal(t, "load", cfgErr.Operation)
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	schema := []byte(`{
		"type": "object",
		"properties": {
			"server": {
				"type": "object",
				"properties": {"max_body": {"type": ["integer", "string"]}, "addr": {"type": "string"}}
			},
			"strategy": {"enum": ["tree", "linear"]}
		}
	}`)

	cfg, err := New(WithContent([]byte(`{"strategy": "linear", "server": {"max_body": 10}}`), FormatJSON), WithJSONSchema(schema))
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))

	cfg, err = New(WithContent([]byte("strategy: radix\n"), FormatYAML), WithJSONSchema(schema))
	require.NoError(t, err)
	err = cfg.Load(context.Background())
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "json-schema", cfgErr.Source)

	_, err = New(WithJSONSchema([]byte(`{`)))
	require.Error(t, err)
}

func TestLoad_ValidationKeepsPreviousBinding(t *testing.T) {
	t.Parallel()

	var s settings
	s.Name = "kept"

	cfg, err := New(WithContent([]byte(`{"name": "new", "server": {"max_body": -1}}`), FormatJSON), WithBinding(&s))
	require.NoError(t, err)

	err = cfg.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "kept", s.Name)
	assert.Empty(t, cfg.Values())
}

func TestOptionErrors(t *testing.T) {
	t.Parallel()

	_, err := New(WithFile("settings.ini"))
	require.Error(t, err)

	_, err = New(WithBinding(settings{}))
	require.Error(t, err)

	_, err = New(WithSource(nil), WithTag(""))
	require.Error(t, err)

	cfg, err := New(WithOptionalFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))

	cfg, err = New(WithFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, err)
	require.Error(t, cfg.Load(context.Background()))
}

func TestWithConsulSkippedWithoutAddress(t *testing.T) {
	t.Setenv("CONSUL_HTTP_ADDR", "")

	cfg, err := New(WithConsul("dispatch/prod.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.sources)
}
