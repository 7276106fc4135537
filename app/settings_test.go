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

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/config"
)

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	assert.Equal(t, "dispatchd", s.Name)
	assert.Equal(t, EnvironmentProduction, s.Environment)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, 15*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, int64(10<<20), s.Server.MaxBody)
	assert.Equal(t, "tree", s.Router.Strategy)
	assert.Equal(t, []string{"PUT", "PATCH"}, s.Override.Allow)
	assert.True(t, s.Output.JSON)
	assert.True(t, s.Output.HTML)
	assert.True(t, s.Middleware.RequestID.Enabled)
	assert.True(t, s.Middleware.Metrics.Enabled)
	assert.False(t, s.Middleware.Auth.Enabled)
	assert.False(t, s.Development())
	require.NoError(t, s.Validate())
}

func TestLoadSettings_Sources(t *testing.T) {
	t.Parallel()

	yaml := []byte(`
name: widgets
environment: development
router:
  strategy: linear
server:
  addr: ":9000"
  max_body: 2048
override:
  allow: [PUT, PATCH, DELETE]
middleware:
  cors:
    enabled: true
    origins: ["https://app.example"]
  auth:
    enabled: true
    users:
      ada: secret
`)
	toml := []byte("[server]\nread_timeout = \"3s\"\n\n[middleware.timeout]\ndefault = \"2s\"\n")

	s, err := LoadSettings(context.Background(),
		config.WithContent(yaml, config.FormatYAML),
		config.WithContent(toml, config.FormatTOML),
	)
	require.NoError(t, err)

	assert.Equal(t, "widgets", s.Name)
	assert.True(t, s.Development())
	assert.Equal(t, "linear", s.Router.Strategy)
	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, int64(2048), s.Server.MaxBody)
	assert.Equal(t, 3*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, 2*time.Second, s.Middleware.Timeout.Default)
	assert.Equal(t, []string{"PUT", "PATCH", "DELETE"}, s.Override.Allow)
	assert.Equal(t, []string{"https://app.example"}, s.Middleware.CORS.Origins)
	assert.Equal(t, map[string]string{"ada": "secret"}, s.Middleware.Auth.Users)
	assert.Equal(t, "dispatch_session", s.Session.CookieName, "unset keys keep their defaults")
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("DISPATCHTEST_ROUTER__STRATEGY", "linear")
	t.Setenv("DISPATCHTEST_SERVER__MAX_BODY", "512")
	t.Setenv("DISPATCHTEST_MIDDLEWARE__METRICS__ENABLED", "false")
	t.Setenv("DISPATCHTEST_OVERRIDE__ALLOW", "PUT,DELETE")

	s, err := LoadSettings(context.Background(), config.WithEnv("DISPATCHTEST_"))
	require.NoError(t, err)

	assert.Equal(t, "linear", s.Router.Strategy)
	assert.Equal(t, int64(512), s.Server.MaxBody)
	assert.False(t, s.Middleware.Metrics.Enabled)
	assert.Equal(t, []string{"PUT", "DELETE"}, s.Override.Allow)
}

func TestLoadSettings_SchemaRejects(t *testing.T) {
	t.Parallel()

	_, err := LoadSettings(context.Background(), config.WithContent([]byte("router:\n  strategy: radix\n"), config.FormatYAML))
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "json-schema", cfgErr.Source)
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(s *Settings)
		field  string
	}{
		{name: "empty address", mutate: func(s *Settings) { s.Server.Addr = "" }, field: "server.addr"},
		{name: "zero timeout", mutate: func(s *Settings) { s.Server.WriteTimeout = 0 }, field: "server.write_timeout"},
		{name: "unknown strategy", mutate: func(s *Settings) { s.Router.Strategy = "radix" }, field: "router.strategy"},
		{name: "override to GET", mutate: func(s *Settings) { s.Override.Allow = []string{"GET"} }, field: "override.allow[0]"},
		{name: "auth without users", mutate: func(s *Settings) { s.Middleware.Auth.Enabled = true }, field: "middleware.auth.users"},
		{name: "cors without origins", mutate: func(s *Settings) { s.Middleware.CORS.Enabled = true }, field: "middleware.cors.origins"},
		{name: "jwt without secret", mutate: func(s *Settings) { s.Middleware.JWT.Enabled = true }, field: "middleware.jwt.secret"},
		{name: "short jwt secret", mutate: func(s *Settings) { s.Middleware.JWT.Secret = "short" }, field: "middleware.jwt.secret"},
		{name: "no output format", mutate: func(s *Settings) { s.Output.JSON, s.Output.HTML = false, false }, field: "output"},
		{name: "metrics path", mutate: func(s *Settings) { s.Middleware.Metrics.Path = "metrics" }, field: "middleware.metrics.path"},
		{name: "header timeout", mutate: func(s *Settings) { s.Server.ReadHeaderTimeout = time.Minute }, field: "server.read_header_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := DefaultSettings()
			tt.mutate(&s)

			var ve *ValidationError
			require.ErrorAs(t, s.Validate(), &ve)
			assert.NotNil(t, ve.Field(tt.field), "missing error for %s in %v", tt.field, ve)
		})
	}
}

func TestLoadSettings_ValidationError(t *testing.T) {
	t.Parallel()

	_, err := LoadSettings(context.Background(), config.WithContent([]byte(`{"middleware": {"auth": {"enabled": true}}}`), config.FormatJSON))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required_if=Enabled true", ve.Field("middleware.auth.users").Constraint)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestValidationErrorMessages(t *testing.T) {
	t.Parallel()

	ve := &ValidationError{}
	assert.Equal(t, "validation errors: (no errors)", ve.Error())
	require.NoError(t, ve.ToError())

	ve.Add(newFieldError("server.addr", nil, "cannot be empty", ""))
	assert.Equal(t, "configuration error in server.addr: cannot be empty", ve.Error())

	ve.Add(newFieldError("log.level", "loud", "must be one of: debug info warn error", "oneof"))
	assert.Contains(t, ve.Error(), "validation errors (2):")
	assert.Contains(t, ve.Error(), "2. configuration error in log.level: must be one of: debug info warn error (constraint: oneof, value: loud)")

	var target *ValidationError
	assert.True(t, errors.As(ve.ToError(), &target))
	assert.Nil(t, ve.Field("missing"))
}
