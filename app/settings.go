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
	_ "embed"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/dispatch/config"
)

// Environments accepted by [Settings.Environment].
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

//go:embed settings.schema.json
var settingsSchema []byte

// Settings is the complete application configuration. Field tags name the
// configuration keys; `default` tags fill unset keys.
type Settings struct {
	Name        string `config:"name" default:"dispatchd" validate:"required"`
	Version     string `config:"version" default:"dev"`
	Environment string `config:"environment" default:"production" validate:"oneof=development production test"`
	DevMode     bool   `config:"dev_mode"`
	Banner      bool   `config:"banner" default:"true"`
	// Filters are the global response filters, run before route filters.
	Filters []string `config:"filters" default:"security-headers"`

	Server      ServerSettings      `config:"server"`
	Log         LogSettings         `config:"log"`
	Router      RouterSettings      `config:"router"`
	Output      OutputSettings      `config:"output"`
	Override    OverrideSettings    `config:"override"`
	Session     SessionSettings     `config:"session"`
	ClientIP    ClientIPSettings    `config:"client_ip"`
	Compression CompressionSettings `config:"compression"`
	Middleware  MiddlewareSettings  `config:"middleware"`
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Addr              string        `config:"addr" default:":8080" validate:"required"`
	ReadTimeout       time.Duration `config:"read_timeout" default:"15s" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `config:"read_header_timeout" default:"5s" validate:"gt=0"`
	WriteTimeout      time.Duration `config:"write_timeout" default:"30s" validate:"gt=0"`
	IdleTimeout       time.Duration `config:"idle_timeout" default:"60s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `config:"shutdown_timeout" default:"10s" validate:"gt=0"`
	MaxBody           int64         `config:"max_body" default:"10485760" validate:"gt=0"`
}

// LogSettings configures the application logger.
type LogSettings struct {
	Level  string `config:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `config:"format" default:"json" validate:"oneof=json text console"`
}

// RouterSettings selects the matching strategy.
type RouterSettings struct {
	Strategy string `config:"strategy" default:"tree" validate:"oneof=tree linear"`
}

// OutputSettings configures response negotiation.
type OutputSettings struct {
	JSON bool `config:"json" default:"true"`
	HTML bool `config:"html" default:"true"`
	// Templates is a directory of templates layered over the built-in ones.
	Templates string `config:"templates"`
	Indent    string `config:"indent"`
}

// OverrideSettings configures method override. Only POST requests are
// considered; Allow lists the methods a request may become.
type OverrideSettings struct {
	Header string   `config:"header" default:"X-HTTP-Method-Override"`
	Field  string   `config:"field" default:"_method"`
	Allow  []string `config:"allow" default:"PUT,PATCH" validate:"dive,oneof=PUT PATCH DELETE"`
}

// SessionSettings configures the session cookie.
type SessionSettings struct {
	CookieName string        `config:"cookie_name" default:"dispatch_session" validate:"required"`
	MaxAge     time.Duration `config:"max_age" default:"24h" validate:"gt=0"`
	Secure     bool          `config:"secure"`
}

// ClientIPSettings lists the proxies whose forwarding headers are trusted.
type ClientIPSettings struct {
	TrustedProxies []string `config:"trusted_proxies"`
}

// CompressionSettings configures response compression.
type CompressionSettings struct {
	Enabled     bool `config:"enabled" default:"true"`
	MinSize     int  `config:"min_size" default:"1024" validate:"gte=0"`
	BrotliLevel int  `config:"brotli_level" default:"4" validate:"gte=0,lte=11"`
}

// MiddlewareSettings holds the conditional and per-route middleware.
type MiddlewareSettings struct {
	RequestID RequestIDSettings `config:"request_id"`
	AccessLog AccessLogSettings `config:"access_log"`
	CORS      CORSSettings      `config:"cors"`
	Metrics   MetricsSettings   `config:"metrics"`
	Auth      AuthSettings      `config:"auth"`
	JWT       JWTSettings       `config:"jwt"`
	CSRF      CSRFSettings      `config:"csrf"`
	RateLimit RateLimitSettings `config:"rate_limit"`
	Timeout   TimeoutSettings   `config:"timeout"`
}

// RequestIDSettings configures request-id.
type RequestIDSettings struct {
	Enabled       bool   `config:"enabled" default:"true"`
	Format        string `config:"format" default:"uuid" validate:"oneof=uuid ulid"`
	AllowClientID bool   `config:"allow_client_id" default:"true"`
}

// AccessLogSettings configures access-log.
type AccessLogSettings struct {
	Enabled       bool          `config:"enabled" default:"true"`
	ExcludePaths  []string      `config:"exclude_paths"`
	SlowThreshold time.Duration `config:"slow_threshold"`
}

// CORSSettings configures cors.
type CORSSettings struct {
	Enabled     bool     `config:"enabled"`
	Origins     []string `config:"origins" validate:"required_if=Enabled true"`
	Credentials bool     `config:"credentials"`
	MaxAge      int      `config:"max_age" default:"600" validate:"gte=0"`
}

// MetricsSettings configures metrics and its scrape endpoint.
type MetricsSettings struct {
	Enabled   bool   `config:"enabled" default:"true"`
	Path      string `config:"path" default:"/metrics" validate:"startswith=/"`
	Namespace string `config:"namespace" default:"dispatch"`
}

// AuthSettings configures basic auth. It is always available per route;
// Enabled adds it to every queue.
type AuthSettings struct {
	Enabled bool              `config:"enabled"`
	Realm   string            `config:"realm" default:"Restricted"`
	Users   map[string]string `config:"users" validate:"required_if=Enabled true"`
}

// JWTSettings configures bearer token authentication.
type JWTSettings struct {
	Enabled  bool   `config:"enabled"`
	Secret   string `config:"secret" validate:"required_if=Enabled true"`
	Issuer   string `config:"issuer"`
	Audience string `config:"audience"`
}

// CSRFSettings configures csrf.
type CSRFSettings struct {
	Enabled bool `config:"enabled"`
}

// RateLimitSettings configures the per-route rate-limit factory.
type RateLimitSettings struct {
	IdleTTL time.Duration `config:"idle_ttl" default:"10m" validate:"gt=0"`
}

// TimeoutSettings configures the per-route timeout factory.
type TimeoutSettings struct {
	Default time.Duration `config:"default" default:"30s" validate:"gt=0"`
}

const minJWTSecret = 32

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("config"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks s. A non-nil error is a [*ValidationError].
func (s *Settings) Validate() error {
	ve := &ValidationError{}
	if err := validate.Struct(s); err != nil {
		ve.addValidatorErrors(err)
	}

	if !s.Output.JSON && !s.Output.HTML {
		ve.Add(newFieldError("output", nil, "json or html output must be enabled", "one of json, html"))
	}
	if secret := s.Middleware.JWT.Secret; secret != "" && len(secret) < minJWTSecret {
		ve.Add(newFieldError("middleware.jwt.secret", nil, "must be at least 32 bytes", "min=32"))
	}
	if s.Server.ReadHeaderTimeout > s.Server.ReadTimeout {
		ve.Add(newFieldError("server.read_header_timeout", s.Server.ReadHeaderTimeout,
			"must not exceed server.read_timeout", "read_header_timeout <= read_timeout"))
	}

	return ve.ToError()
}

// Development reports whether s describes a development deployment.
func (s *Settings) Development() bool {
	return s.DevMode || s.Environment == EnvironmentDevelopment
}

// LoadSettings merges sources over the defaults, checks the result against
// the settings schema and validates it. Sources are config options such as
// [config.WithFile] and [config.WithEnv].
func LoadSettings(ctx context.Context, sources ...config.Option) (Settings, error) {
	var s Settings
	opts := append([]config.Option{config.WithJSONSchema(settingsSchema), config.WithBinding(&s)}, sources...)

	cfg, err := config.New(opts...)
	if err != nil {
		return Settings{}, err
	}
	if err := cfg.Load(ctx); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	s, err := LoadSettings(context.Background())
	if err != nil {
		panic("app: invalid default settings: " + err.Error())
	}

	return s
}
