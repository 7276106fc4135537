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

package recovery

import (
	"log/slog"

	riverrors "rivaas.dev/dispatch/errors"
)

// Option defines functional options for the [Normalizer].
type Option func(*config)

// TemplateChecker reports whether a template exists. The negotiate
// package's renderer implements it.
type TemplateChecker interface {
	Has(name string) bool
}

type config struct {
	// logger receives one record per normalized failure
	logger *slog.Logger

	// devMode exposes class, location and setup hints
	devMode bool

	// stackTrace logs the goroutine stack of recovered panics
	stackTrace bool

	// stackSize bounds the logged stack
	stackSize int

	templates       TemplateChecker
	templatePrefix  string
	defaultTemplate string
	setupTemplate   string

	resolve riverrors.StatusResolver
}

func defaultConfig() *config {
	return &config{
		logger:          slog.New(slog.DiscardHandler),
		stackTrace:      true,
		stackSize:       4 << 10, // 4KB
		templatePrefix:  "errors/",
		defaultTemplate: "errors/default",
		setupTemplate:   "errors/setup",
		resolve:         riverrors.DefaultStatus,
	}
}

// WithLogger sets the logger used to report failures.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithDevMode includes internal detail (error class, source location,
// setup hints) in rendered failures.
func WithDevMode(enabled bool) Option {
	return func(cfg *config) { cfg.devMode = enabled }
}

// WithStackTrace toggles logging of panic stacks.
// Default: true
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) { cfg.stackTrace = enabled }
}

// WithStackSize bounds the logged stack in bytes.
// Default: 4KB
func WithStackSize(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithTemplates sets the checker used to pick "errors/<status>" over the
// default error template.
func WithTemplates(t TemplateChecker) Option {
	return func(cfg *config) { cfg.templates = t }
}

// WithDefaultTemplate sets the fallback error template.
// Default: "errors/default"
func WithDefaultTemplate(name string) Option {
	return func(cfg *config) { cfg.defaultTemplate = name }
}

// WithSetupTemplate sets the template used for uninitialized storage.
// Default: "errors/setup"
func WithSetupTemplate(name string) Option {
	return func(cfg *config) { cfg.setupTemplate = name }
}

// WithStatusResolver maps errors without an explicit status.
// Default: errors.DefaultStatus
func WithStatusResolver(fn riverrors.StatusResolver) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.resolve = fn
		}
	}
}
