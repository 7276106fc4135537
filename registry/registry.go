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

// Package registry maps middleware and filter ids to the factories that
// build them.
//
// Factories are registered at boot and invoked lazily, once per dispatch, so
// a unit may hold per-request state. A factory that fails or panics yields a
// [*ConstructionError].
package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/route"
)

// ErrUnknown is returned when resolving an id that was never registered.
var ErrUnknown = errors.New("registry: unknown id")

// MiddlewareFactory builds a middleware from reference arguments.
type MiddlewareFactory func(args ...any) (pipeline.Middleware, error)

// FilterFactory builds a response filter from reference arguments.
type FilterFactory func(args ...any) (pipeline.Filter, error)

// ConstructionError reports a factory failure.
type ConstructionError struct {
	Kind string // "middleware" or "filter"
	ID   string
	Err  error
}

// Error implements error.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("registry: building %s %q: %v", e.Kind, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConstructionError) Unwrap() error { return e.Err }

// Registry holds the factories. It is written at boot and read concurrently
// afterwards.
type Registry struct {
	mu          sync.RWMutex
	middlewares map[string]MiddlewareFactory
	filters     map[string]FilterFactory
	disabled    map[string]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		middlewares: make(map[string]MiddlewareFactory),
		filters:     make(map[string]FilterFactory),
		disabled:    make(map[string]bool),
	}
}

// RegisterMiddleware binds id to f, replacing any previous factory.
func (r *Registry) RegisterMiddleware(id string, f MiddlewareFactory) {
	r.mu.Lock()
	r.middlewares[id] = f
	r.mu.Unlock()
}

// RegisterFilter binds id to f, replacing any previous factory.
func (r *Registry) RegisterFilter(id string, f FilterFactory) {
	r.mu.Lock()
	r.filters[id] = f
	r.mu.Unlock()
}

// Use registers a middleware that needs no arguments and no per-request state.
func (r *Registry) Use(id string, mw pipeline.Middleware) {
	r.RegisterMiddleware(id, func(...any) (pipeline.Middleware, error) { return mw, nil })
}

// HasMiddleware reports whether a middleware factory is registered for id.
func (r *Registry) HasMiddleware(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.middlewares[id]

	return ok
}

// HasFilter reports whether a filter factory is registered for id.
func (r *Registry) HasFilter(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.filters[id]

	return ok
}

// SetEnabled toggles an id. Ids are enabled unless disabled explicitly.
func (r *Registry) SetEnabled(id string, enabled bool) {
	r.mu.Lock()
	r.disabled[id] = !enabled
	r.mu.Unlock()
}

// Enabled reports whether id is registered as a middleware and not disabled.
func (r *Registry) Enabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.middlewares[id]

	return ok && !r.disabled[id]
}

// MiddlewareIDs returns the registered middleware ids, sorted.
func (r *Registry) MiddlewareIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.middlewares))
}

// FilterIDs returns the registered filter ids, sorted.
func (r *Registry) FilterIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.filters))
}

// Middleware builds the middleware named by ref.
func (r *Registry) Middleware(ref route.Ref) (mw pipeline.Middleware, err error) {
	r.mu.RLock()
	f, ok := r.middlewares[ref.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: middleware %q", ErrUnknown, ref.ID)
	}

	defer func() {
		if rec := recover(); rec != nil {
			mw, err = nil, &ConstructionError{Kind: "middleware", ID: ref.ID, Err: panicError(rec)}
		}
	}()

	mw, err = f(ref.Args...)
	if err != nil {
		return nil, &ConstructionError{Kind: "middleware", ID: ref.ID, Err: err}
	}
	if mw == nil {
		return nil, &ConstructionError{Kind: "middleware", ID: ref.ID, Err: errors.New("factory returned nil")}
	}

	return mw, nil
}

// Filter builds the filter named by ref.
func (r *Registry) Filter(ref route.Ref) (flt pipeline.Filter, err error) {
	r.mu.RLock()
	f, ok := r.filters[ref.ID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: filter %q", ErrUnknown, ref.ID)
	}

	defer func() {
		if rec := recover(); rec != nil {
			flt, err = nil, &ConstructionError{Kind: "filter", ID: ref.ID, Err: panicError(rec)}
		}
	}()

	flt, err = f(ref.Args...)
	if err != nil {
		return nil, &ConstructionError{Kind: "filter", ID: ref.ID, Err: err}
	}
	if flt == nil {
		return nil, &ConstructionError{Kind: "filter", ID: ref.ID, Err: errors.New("factory returned nil")}
	}

	return flt, nil
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}

	return fmt.Errorf("panic: %v", rec)
}
