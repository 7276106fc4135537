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

package basicauth

import "maps"

// Option defines functional options for the basic auth middleware.
type Option func(*config)

type config struct {
	users     map[string]string
	realm     string
	validator func(username, password string) bool
	skipPaths map[string]bool
}

func defaultConfig() *config {
	return &config{
		users:     make(map[string]string),
		realm:     "Restricted",
		skipPaths: make(map[string]bool),
	}
}

// WithUsers sets a static username to password map.
func WithUsers(users map[string]string) Option {
	return func(cfg *config) {
		cfg.users = maps.Clone(users)
	}
}

// WithRealm sets the realm announced in the challenge.
// Default: "Restricted"
func WithRealm(realm string) Option {
	return func(cfg *config) {
		cfg.realm = realm
	}
}

// WithValidator validates credentials with a custom function instead of
// the static user map.
func WithValidator(validator func(username, password string) bool) Option {
	return func(cfg *config) {
		cfg.validator = validator
	}
}

// WithSkipPaths exempts exact paths from authentication.
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.skipPaths[p] = true
		}
	}
}
