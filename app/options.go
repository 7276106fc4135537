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
	"io"
	"io/fs"
	"log/slog"
	"os"

	"rivaas.dev/dispatch/middleware/session"
)

// Option configures an [App].
type Option func(*options)

type options struct {
	logger    *slog.Logger
	templates []fs.FS
	output    io.Writer
	store     session.Store
}

func defaultOptions() *options {
	return &options{output: os.Stdout}
}

// WithLogger replaces the logger built from [LogSettings].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTemplates layers fsys over the built-in templates. Later file
// systems win.
func WithTemplates(fsys fs.FS) Option {
	return func(o *options) {
		o.templates = append(o.templates, fsys)
	}
}

// WithOutput sets where the banner and route table are printed.
// Default: os.Stdout
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithSessionStore replaces the in-memory session store.
func WithSessionStore(store session.Store) Option {
	return func(o *options) {
		o.store = store
	}
}
