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

package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Option defines functional options for the session middleware.
type Option func(*config)

type config struct {
	store    Store
	name     string
	path     string
	domain   string
	maxAge   time.Duration
	secure   bool
	sameSite http.SameSite
	newID    func() string
	logger   *slog.Logger
}

func defaultConfig() *config {
	return &config{
		name:     "dispatch_session",
		path:     "/",
		maxAge:   24 * time.Hour,
		sameSite: http.SameSiteLaxMode,
		newID:    uuid.NewString,
		logger:   slog.New(slog.DiscardHandler),
	}
}

// WithStore sets the session store.
// Default: a [MemoryStore] whose ttl is the cookie max age.
func WithStore(store Store) Option {
	return func(cfg *config) {
		cfg.store = store
	}
}

// WithCookieName sets the session cookie name.
// Default: "dispatch_session"
func WithCookieName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithCookiePath sets the cookie path.
// Default: "/"
func WithCookiePath(path string) Option {
	return func(cfg *config) {
		cfg.path = path
	}
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) Option {
	return func(cfg *config) {
		cfg.domain = domain
	}
}

// WithMaxAge sets the cookie lifetime.
// Default: 24h
func WithMaxAge(d time.Duration) Option {
	return func(cfg *config) {
		cfg.maxAge = d
	}
}

// WithSecure marks the cookie Secure.
func WithSecure(secure bool) Option {
	return func(cfg *config) {
		cfg.secure = secure
	}
}

// WithSameSite sets the cookie SameSite mode.
// Default: http.SameSiteLaxMode
func WithSameSite(mode http.SameSite) Option {
	return func(cfg *config) {
		cfg.sameSite = mode
	}
}

// WithIDGenerator sets the session id generator.
// Default: random UUIDs
func WithIDGenerator(gen func() string) Option {
	return func(cfg *config) {
		cfg.newID = gen
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
