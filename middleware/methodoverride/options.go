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

package methodoverride

import "net/http"

// Option defines functional options for the method override step.
type Option func(*config)

type config struct {
	header string
	field  string
	allow  []string
	onlyOn []string
}

func defaultConfig() *config {
	return &config{
		header: "X-HTTP-Method-Override",
		field:  "_method",
		allow:  []string{http.MethodPut, http.MethodPatch},
		onlyOn: []string{http.MethodPost},
	}
}

// WithHeader sets the override header name.
// Default: "X-HTTP-Method-Override"
func WithHeader(header string) Option {
	return func(cfg *config) {
		cfg.header = header
	}
}

// WithField sets the body field holding the override method.
// Default: "_method"
// Set to empty string to disable body lookup.
func WithField(field string) Option {
	return func(cfg *config) {
		cfg.field = field
	}
}

// WithAllow sets the methods a request may be overridden to.
// Default: ["PUT", "PATCH"]
//
// Example:
//
//	methodoverride.New(methodoverride.WithAllow("PUT", "PATCH", "DELETE"))
func WithAllow(methods ...string) Option {
	return func(cfg *config) {
		cfg.allow = methods
	}
}

// WithOnlyOn sets which request methods are inspected for an override.
// Default: ["POST"]
func WithOnlyOn(methods ...string) Option {
	return func(cfg *config) {
		cfg.onlyOn = methods
	}
}
