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
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"rivaas.dev/dispatch/dispatch"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/middleware/methodoverride"
	"rivaas.dev/dispatch/middleware/metrics"
	"rivaas.dev/dispatch/negotiate"
	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/recovery"
	"rivaas.dev/dispatch/registry"
	"rivaas.dev/dispatch/route"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/transport"
)

// App owns the route table, the registry and the dispatcher built from
// them. Routes and hooks are added before the first call to
// [App.Handler], [App.Run] or [App.Serve]; the table is frozen afterwards.
type App struct {
	settings Settings
	opts     *options
	logger   *slog.Logger

	table      *route.Table
	registry   *registry.Registry
	negotiator *negotiate.Negotiator
	normalizer *recovery.Normalizer
	overrider  *methodoverride.Overrider
	writer     *transport.Writer
	metrics    *metrics.Recorder
	filters    []route.Ref
	hooks      hooks

	once       sync.Once
	handler    http.Handler
	dispatcher *dispatch.Dispatcher
	buildErr   error
}

// New validates settings and prepares every component except the
// dispatcher, which is built on first use so routes can still be added.
func New(settings Settings, opts ...Option) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	a := &App{
		settings: settings,
		opts:     o,
		table:    route.NewTable(),
		registry: registry.New(),
	}

	logger, err := a.newLogger()
	if err != nil {
		return nil, err
	}
	a.logger = logger

	if a.negotiator, err = a.newNegotiator(); err != nil {
		return nil, err
	}
	a.normalizer = recovery.New(
		recovery.WithTemplates(a.negotiator),
		recovery.WithDevMode(settings.DevMode),
		recovery.WithLogger(a.logger),
	)
	a.overrider = methodoverride.New(
		methodoverride.WithHeader(settings.Override.Header),
		methodoverride.WithField(settings.Override.Field),
		methodoverride.WithAllow(settings.Override.Allow...),
	)
	a.writer = transport.NewWriter(
		transport.WithLogger(a.logger),
		transport.WithCompression(settings.Compression.Enabled),
		transport.WithMinSize(settings.Compression.MinSize),
		transport.WithBrotliLevel(settings.Compression.BrotliLevel),
	)

	if a.filters, err = route.ParseRefs(settings.Filters); err != nil {
		return nil, newFieldError("filters", settings.Filters, err.Error(), "")
	}
	if err := a.registerMiddleware(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) newLogger() (*slog.Logger, error) {
	if a.opts.logger != nil {
		return a.opts.logger, nil
	}

	level, err := logging.ParseLevel(a.settings.Log.Level)
	if err != nil {
		return nil, newFieldError("log.level", a.settings.Log.Level, err.Error(), "")
	}
	l, err := logging.New(
		logging.WithHandlerType(logging.HandlerType(a.settings.Log.Format)),
		logging.WithLevel(level),
		logging.WithDebugMode(a.settings.DevMode),
		logging.WithServiceName(a.settings.Name),
		logging.WithServiceVersion(a.settings.Version),
		logging.WithEnvironment(a.settings.Environment),
	)
	if err != nil {
		return nil, fmt.Errorf("app: building logger: %w", err)
	}

	return l.Logger(), nil
}

func (a *App) newNegotiator() (*negotiate.Negotiator, error) {
	out := a.settings.Output
	opts := []negotiate.Option{
		negotiate.WithJSON(out.JSON),
		negotiate.WithHTML(out.HTML),
		negotiate.WithIndent(out.Indent),
	}

	if out.HTML {
		layers := []fs.FS{negotiate.DefaultTemplates()}
		if out.Templates != "" {
			info, err := os.Stat(out.Templates)
			if err != nil || !info.IsDir() {
				return nil, newFieldError("output.templates", out.Templates, "must be a readable directory", "")
			}
			layers = append(layers, os.DirFS(out.Templates))
		}
		layers = append(layers, a.opts.templates...)

		renderer, err := negotiate.NewTemplateRenderer(layers...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, negotiate.WithRenderer(renderer))
	}

	return negotiate.New(opts...)
}

// Settings returns the settings the app was built with.
func (a *App) Settings() Settings { return a.settings }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Registry returns the middleware and filter registry. Custom units must be
// registered before the dispatcher is built.
func (a *App) Registry() *registry.Registry { return a.registry }

// Table returns the route table.
func (a *App) Table() *route.Table { return a.table }

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// Handle adds a route.
func (a *App) Handle(method, path string, h pipeline.Handler, opts ...route.Option) error {
	return a.table.Handle(method, path, h, opts...)
}

func (a *App) mustHandle(method, path string, h pipeline.Handler, opts []route.Option) {
	if err := a.Handle(method, path, h, opts...); err != nil {
		panic(err)
	}
}

// GET adds a GET route. It panics on an invalid route. A later route
// with the same method and path replaces an earlier one.
func (a *App) GET(path string, h pipeline.Handler, opts ...route.Option) {
	a.mustHandle(http.MethodGet, path, h, opts)
}

// POST adds a POST route. It panics on an invalid route. A later route
// with the same method and path replaces an earlier one.
func (a *App) POST(path string, h pipeline.Handler, opts ...route.Option) {
	a.mustHandle(http.MethodPost, path, h, opts)
}

// PUT adds a PUT route. It panics on an invalid route. A later route
// with the same method and path replaces an earlier one.
func (a *App) PUT(path string, h pipeline.Handler, opts ...route.Option) {
	a.mustHandle(http.MethodPut, path, h, opts)
}

// PATCH adds a PATCH route. It panics on an invalid route. A later route
// with the same method and path replaces an earlier one.
func (a *App) PATCH(path string, h pipeline.Handler, opts ...route.Option) {
	a.mustHandle(http.MethodPatch, path, h, opts)
}

// DELETE adds a DELETE route. It panics on an invalid route. A later route
// with the same method and path replaces an earlier one.
func (a *App) DELETE(path string, h pipeline.Handler, opts ...route.Option) {
	a.mustHandle(http.MethodDelete, path, h, opts)
}

// Handler builds the dispatcher once and returns the HTTP handler serving
// it, with the metrics endpoint mounted when enabled. A boot failure is
// returned on every call.
func (a *App) Handler() (http.Handler, error) {
	a.once.Do(func() {
		a.dispatcher, a.buildErr = dispatch.New(a.table, a.registry,
			dispatch.WithLogger(a.logger),
			dispatch.WithStrategy(router.Strategy(a.settings.Router.Strategy)),
			dispatch.WithNegotiator(a.negotiator),
			dispatch.WithNormalizer(a.normalizer),
			dispatch.WithOverrider(a.overrider),
			dispatch.WithWriter(a.writer),
			dispatch.WithFilters(a.filters...),
			dispatch.WithMaxBody(a.settings.Server.MaxBody),
		)
		if a.buildErr != nil {
			a.buildErr = fmt.Errorf("app: building dispatcher: %w", a.buildErr)
			return
		}

		mux := http.NewServeMux()
		if a.metrics != nil {
			mux.Handle("GET "+a.settings.Middleware.Metrics.Path, a.metrics.Handler())
		}
		mux.Handle("/", a.dispatcher)
		a.handler = mux
	})

	return a.handler, a.buildErr
}

// Dispatcher returns the built dispatcher.
func (a *App) Dispatcher() (*dispatch.Dispatcher, error) {
	if _, err := a.Handler(); err != nil {
		return nil, err
	}

	return a.dispatcher, nil
}
