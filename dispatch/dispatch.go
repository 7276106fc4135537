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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"rivaas.dev/dispatch/filter"
	"rivaas.dev/dispatch/middleware/methodoverride"
	"rivaas.dev/dispatch/negotiate"
	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/recovery"
	"rivaas.dev/dispatch/registry"
	"rivaas.dev/dispatch/relay"
	"rivaas.dev/dispatch/route"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/transport"
)

// Boot errors returned by [New].
var (
	ErrMissingFramework  = errors.New("dispatch: framework middleware not registered")
	ErrUnknownMiddleware = errors.New("dispatch: route references unknown middleware")
	ErrUnknownFilter     = errors.New("dispatch: route references unknown filter")
)

// Dispatcher runs the request pipeline. It is safe for concurrent use.
type Dispatcher struct {
	cfg         *config
	table       *route.Table
	router      router.Router
	registry    *registry.Registry
	negotiator  *negotiate.Negotiator
	normalizer  *recovery.Normalizer
	overrider   *methodoverride.Overrider
	writer      *transport.Writer
	framework   []pipeline.Middleware
	conditional []pipeline.Middleware
	active      []string
	filters     []pipeline.Filter
}

// New validates the table against the registry, freezes it and resolves the
// framework and conditional middleware.
func New(table *route.Table, reg *registry.Registry, opts ...Option) (*Dispatcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	d := &Dispatcher{
		cfg:        cfg,
		table:      table,
		registry:   reg,
		negotiator: cfg.negotiator,
		normalizer: cfg.normalizer,
		overrider:  cfg.overrider,
		writer:     cfg.writer,
	}

	if d.negotiator == nil {
		n, err := negotiate.New()
		if err != nil {
			return nil, err
		}
		d.negotiator = n
	}
	if d.normalizer == nil {
		d.normalizer = recovery.New(recovery.WithTemplates(d.negotiator), recovery.WithLogger(cfg.logger))
	}
	if d.overrider == nil {
		d.overrider = methodoverride.New()
	}
	if d.writer == nil {
		d.writer = transport.NewWriter(transport.WithLogger(cfg.logger))
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	table.Freeze()

	d.router = cfg.router
	if d.router == nil {
		r, err := router.New(cfg.strategy, table)
		if err != nil {
			return nil, err
		}
		d.router = r
	}

	for _, id := range Framework {
		if !reg.HasMiddleware(id) {
			return nil, fmt.Errorf("%w: %q", ErrMissingFramework, id)
		}
		mw, err := reg.Middleware(route.R(id))
		if err != nil {
			return nil, err
		}
		d.framework = append(d.framework, mw)
	}

	for _, id := range cfg.conditional {
		if !reg.Enabled(id) {
			continue
		}
		mw, err := reg.Middleware(route.R(id))
		if err != nil {
			return nil, err
		}
		d.conditional = append(d.conditional, mw)
		d.active = append(d.active, id)
	}

	for _, ref := range cfg.filters {
		f, err := reg.Filter(ref)
		if err != nil {
			return nil, err
		}
		d.filters = append(d.filters, f)
	}

	cfg.logger.Info("dispatcher ready",
		slog.Int("routes", table.Len()),
		slog.String("strategy", string(cfg.strategy)),
		slog.Any("conditional", d.active),
	)

	return d, nil
}

// validate checks that every reference in the table and the global filter
// list names a registered factory.
func (d *Dispatcher) validate() error {
	var errs []error
	for _, def := range d.table.All() {
		for _, ref := range def.Middlewares {
			if !d.registry.HasMiddleware(ref.ID) {
				errs = append(errs, fmt.Errorf("%w: %s %s uses %q", ErrUnknownMiddleware, def.Method, def.Path, ref.ID))
			}
		}
		for _, ref := range def.Filters {
			if !d.registry.HasFilter(ref.ID) {
				errs = append(errs, fmt.Errorf("%w: %s %s uses %q", ErrUnknownFilter, def.Method, def.Path, ref.ID))
			}
		}
	}
	for _, ref := range d.cfg.filters {
		if !d.registry.HasFilter(ref.ID) {
			errs = append(errs, fmt.Errorf("%w: global filter %q", ErrUnknownFilter, ref.ID))
		}
	}

	return errors.Join(errs...)
}

// Table returns the frozen route table.
func (d *Dispatcher) Table() *route.Table { return d.table }

// Negotiator returns the negotiator.
func (d *Dispatcher) Negotiator() *negotiate.Negotiator { return d.negotiator }

// Normalizer returns the failure normalizer.
func (d *Dispatcher) Normalizer() *recovery.Normalizer { return d.normalizer }

// Conditional returns the ids of the conditional middleware in every queue.
func (d *Dispatcher) Conditional() []string {
	return append([]string(nil), d.active...)
}

// Dispatch runs req through the pipeline. It always returns a response.
func (d *Dispatcher) Dispatch(req pipeline.Request) pipeline.Response {
	return d.normalizer.Guard(req, func(req pipeline.Request) (pipeline.Response, error) {
		req = d.overrider.Apply(req)
		m := d.router.Match(req.Method(), req.Path())

		var (
			terminal pipeline.Handler
			perRoute []route.Ref
			filters  []route.Ref
		)
		switch m.Kind {
		case router.Found:
			req = req.WithAttribute(pipeline.AttrRoute, m.Route.Path)
			terminal = bindParams(m.Route.Handler, m.Params)
			perRoute, filters = m.Route.Middlewares, m.Route.Filters
		case router.MethodNotAllowed:
			req = req.WithAttribute(pipeline.AttrRoute, "")
			terminal = d.methodNotAllowed(m.Allowed)
		default:
			req = req.WithAttribute(pipeline.AttrRoute, "")
			terminal = d.notFound
		}

		queue, err := d.queue(terminal, perRoute)
		if err != nil {
			return pipeline.Response{}, err
		}
		chain, err := d.chain(filters)
		if err != nil {
			return pipeline.Response{}, err
		}

		resp, err := relay.Handle(req, queue)
		if err != nil {
			return pipeline.Response{}, err
		}

		return chain.Run(resp, req)
	})
}

// bindParams makes path variables visible to the route handler only.
func bindParams(h pipeline.Handler, params map[string]string) pipeline.Handler {
	return func(req pipeline.Request) (pipeline.Response, error) {
		return h(req.WithParams(params))
	}
}

func (d *Dispatcher) queue(terminal pipeline.Handler, refs []route.Ref) (relay.Queue, error) {
	mws := make([]pipeline.Middleware, 0, len(d.framework)+len(d.conditional)+len(refs))
	mws = append(mws, d.framework...)
	mws = append(mws, d.conditional...)
	for _, ref := range refs {
		mw, err := d.registry.Middleware(ref)
		if err != nil {
			return relay.Queue{}, err
		}
		mws = append(mws, mw)
	}

	return relay.NewQueue(terminal, mws...), nil
}

func (d *Dispatcher) chain(refs []route.Ref) (filter.Chain, error) {
	if len(refs) == 0 {
		return filter.NewChain(d.filters...), nil
	}

	filters := make([]pipeline.Filter, 0, len(d.filters)+len(refs))
	filters = append(filters, d.filters...)
	for _, ref := range refs {
		f, err := d.registry.Filter(ref)
		if err != nil {
			return filter.Chain{}, err
		}
		filters = append(filters, f)
	}

	return filter.NewChain(filters...), nil
}

// ServeHTTP reads r, dispatches it, negotiates the output and writes it.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := transport.FromHTTP(r, d.cfg.maxBody)

	var resp pipeline.Response
	if err != nil {
		req = pipeline.NewRequest(r.Method, "/").
			WithContext(r.Context()).
			WithPath(r.URL.Path).
			WithHeaders(r.Header)
		resp = d.normalizer.Normalize(req, err)
	} else {
		resp = d.Dispatch(req)
	}

	out := d.build(resp, req)
	if err := d.writer.Emit(w, r, out); err != nil {
		d.cfg.logger.DebugContext(r.Context(), "writing response failed", slog.String("error", err.Error()))
	}
}

// build negotiates resp. A negotiation failure is normalized and negotiated
// once more; if that fails too the static fallback is sent.
func (d *Dispatcher) build(resp pipeline.Response, req pipeline.Request) negotiate.Output {
	out, err := d.negotiator.Build(resp, req)
	if err == nil {
		return out
	}

	out, err = d.negotiator.Build(d.normalizer.Normalize(req, err), req)
	if err == nil {
		return out
	}
	d.cfg.logger.ErrorContext(req.Context(), "negotiating error response failed", slog.String("error", err.Error()))

	out, err = d.negotiator.Build(recovery.Fallback(), req)
	if err != nil {
		return negotiate.Output{Status: http.StatusInternalServerError, Header: http.Header{}}
	}

	return out
}
