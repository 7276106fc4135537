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
	"fmt"
	"slices"
	"strings"
	"sync"

	"rivaas.dev/dispatch/pipeline"
)

// Table is the ordered set of route definitions.
//
// Definitions are keyed by method and canonical path. Adding a definition
// whose key already exists replaces the earlier one in place, so the last
// registration wins while the original position is kept.
//
// A table is built at boot and frozen before routers are compiled from it.
// All methods are safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries []Definition
	index   map[string]int
	frozen  bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add validates and stores a definition.
func (t *Table) Add(def Definition) error {
	method := strings.ToUpper(strings.TrimSpace(def.Method))
	if method == "" {
		return fmt.Errorf("%w: empty method for %q", ErrInvalidRoute, def.Path)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: nil handler for %s %s", ErrInvalidRoute, method, def.Path)
	}

	p, err := ParsePattern(def.Path)
	if err != nil {
		return err
	}

	def.Method = method
	def.pattern = p
	def.Middlewares = slices.Clone(def.Middlewares)
	def.Filters = slices.Clone(def.Filters)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return fmt.Errorf("%w: cannot add %s %s", ErrTableFrozen, method, def.Path)
	}

	key := def.Key()
	if i, ok := t.index[key]; ok {
		t.entries[i] = def
		return nil
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, def)

	return nil
}

// MustAdd is like [Table.Add] but panics on error.
func (t *Table) MustAdd(def Definition) {
	if err := t.Add(def); err != nil {
		panic(err)
	}
}

// Handle adds a definition built from a method, a path, a handler and options.
//
//	table.Handle(http.MethodGet, "/users/{id:int}", showUser,
//	    route.WithName("users.show"),
//	    route.WithMiddleware(route.R("auth")),
//	)
func (t *Table) Handle(method, path string, h pipeline.Handler, opts ...Option) error {
	def := Definition{Method: method, Path: path, Handler: h}
	for _, opt := range opts {
		opt(&def)
	}

	return t.Add(def)
}

// Get returns the definition registered for method and path. The path may
// use either parameter spelling.
func (t *Table) Get(method, path string) (Definition, error) {
	p, err := ParsePattern(path)
	if err != nil {
		return Definition{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.index[Key(method, p.String())]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s %s", ErrRouteNotFound, strings.ToUpper(method), path)
	}

	return t.entries[i], nil
}

// Has reports whether a definition exists for method and path.
func (t *Table) Has(method, path string) bool {
	_, err := t.Get(method, path)
	return err == nil
}

// All returns the definitions in registration order.
func (t *Table) All() []Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(t.entries)
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Frozen reports whether [Table.Freeze] has been called.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.frozen
}
