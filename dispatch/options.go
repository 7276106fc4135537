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

package dispatch

import (
	"log/slog"
	"slices"

	"rivaas.dev/dispatch/middleware/methodoverride"
	"rivaas.dev/dispatch/negotiate"
	"rivaas.dev/dispatch/recovery"
	"rivaas.dev/dispatch/route"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/transport"
)

// Framework lists the middleware ids every queue starts with, in order.
// Each must be registered before [New] is called.
var Framework = []string{"session", "client-ip", "json-body", "form-body"}

// DefaultConditional lists the conditional middleware ids in queue order.
var DefaultConditional = []string{"request-id", "access-log", "cors", "metrics", "auth", "jwt", "csrf"}

// Option configures a [Dispatcher].
type Option func(*config)

type config struct {
	logger      *slog.Logger
	strategy    router.Strategy
	router      router.Router
	negotiator  *negotiate.Negotiator
	normalizer  *recovery.Normalizer
	overrider   *methodoverride.Overrider
	writer      *transport.Writer
	conditional []string
	filters     []route.Ref
	maxBody     int64
}

func defaultConfig() *config {
	return &config{
		logger:      slog.New(slog.DiscardHandler),
		strategy:    router.StrategyTree,
		conditional: slices.Clone(DefaultConditional),
		maxBody:     transport.DefaultMaxBody,
	}
}

// WithLogger sets the logger for boot and emit diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithStrategy selects the router strategy.
// Default: tree
func WithStrategy(s router.Strategy) Option {
	return func(cfg *config) {
		cfg.strategy = s
	}
}

// WithRouter uses r instead of building one from the table. r must have been
// built from the same table.
func WithRouter(r router.Router) Option {
	return func(cfg *config) {
		cfg.router = r
	}
}

// WithNegotiator sets the negotiator. The default has JSON and HTML output
// with the built-in templates.
func WithNegotiator(n *negotiate.Negotiator) Option {
	return func(cfg *config) {
		cfg.negotiator = n
	}
}

// WithNormalizer sets the failure normalizer. The default runs in production
// mode and picks templates the negotiator knows.
func WithNormalizer(n *recovery.Normalizer) Option {
	return func(cfg *config) {
		cfg.normalizer = n
	}
}

// WithOverrider sets the method overrider.
func WithOverrider(o *methodoverride.Overrider) Option {
	return func(cfg *config) {
		cfg.overrider = o
	}
}

// WithWriter sets the response writer used by ServeHTTP.
func WithWriter(w *transport.Writer) Option {
	return func(cfg *config) {
		cfg.writer = w
	}
}

// WithConditional replaces the conditional middleware ids, in queue order.
func WithConditional(ids ...string) Option {
	return func(cfg *config) {
		cfg.conditional = slices.Clone(ids)
	}
}

// WithFilters adds filters applied to every response before the route's own
// filters.
func WithFilters(refs ...route.Ref) Option {
	return func(cfg *config) {
		cfg.filters = append(cfg.filters, refs...)
	}
}

// WithMaxBody sets the request body limit used by ServeHTTP.
// Default: 10 MiB
func WithMaxBody(n int64) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxBody = n
		}
	}
}
