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

package route

import (
	"errors"
	"fmt"
	"strings"

	"rivaas.dev/dispatch/pipeline"
)

var (
	// ErrInvalidPattern is returned for malformed route paths.
	ErrInvalidPattern = errors.New("route: invalid pattern")

	// ErrInvalidRoute is returned for definitions missing a method or handler.
	ErrInvalidRoute = errors.New("route: invalid definition")

	// ErrTableFrozen is returned when adding to a frozen table.
	ErrTableFrozen = errors.New("route: table is frozen")

	// ErrRouteNotFound is returned by [Table.Get] for unknown keys.
	ErrRouteNotFound = errors.New("route: not found")
)

// Ref names a registered middleware or filter factory together with the
// arguments passed to it when the unit is built.
type Ref struct {
	ID   string
	Args []any
}

// R is shorthand for Ref{ID: id, Args: args}.
func R(id string, args ...any) Ref {
	return Ref{ID: id, Args: args}
}

// String returns "id" or "id(arg, ...)".
func (r Ref) String() string {
	if len(r.Args) == 0 {
		return r.ID
	}
	parts := make([]string, len(r.Args))
	for i, a := range r.Args {
		parts[i] = fmt.Sprint(a)
	}

	return r.ID + "(" + strings.Join(parts, ", ") + ")"
}

// Definition is one routable entry: a method and path pattern bound to a
// terminal handler, plus the middleware and filters applied to it.
type Definition struct {
	Method      string
	Path        string
	Name        string
	Handler     pipeline.Handler
	Middlewares []Ref
	Filters     []Ref

	pattern Pattern
}

// Pattern returns the parsed path. It is populated once the definition has
// been added to a [Table].
func (d Definition) Pattern() Pattern { return d.pattern }

// Key returns the identity of the definition: upper-cased method and the
// canonical path.
func (d Definition) Key() string {
	return Key(d.Method, d.pattern.String())
}

// Key builds a route identity from a method and a path.
func Key(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Option configures a definition built by [Table.Handle].
type Option func(*Definition)

// WithName sets the route name.
func WithName(name string) Option {
	return func(d *Definition) { d.Name = name }
}

// WithMiddleware appends per-route middleware references.
func WithMiddleware(refs ...Ref) Option {
	return func(d *Definition) { d.Middlewares = append(d.Middlewares, refs...) }
}

// WithFilters appends per-route response filter references.
func WithFilters(refs ...Ref) Option {
	return func(d *Definition) { d.Filters = append(d.Filters, refs...) }
}
