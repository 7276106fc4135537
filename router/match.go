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

package router

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"rivaas.dev/dispatch/route"
)

// ErrUnknownStrategy is returned by [New] for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("router: unknown strategy")

// Kind is the outcome of a route match.
type Kind uint8

const (
	// NotFound means no route pattern matches the path.
	NotFound Kind = iota

	// Found means a route matches both path and method.
	Found

	// MethodNotAllowed means at least one pattern matches the path but none
	// is registered for the method.
	MethodNotAllowed
)

// String returns the outcome name.
func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case MethodNotAllowed:
		return "method_not_allowed"
	default:
		return "not_found"
	}
}

// Match is the result of resolving a method and path.
//
// Route and Params are set only for [Found]; Allowed only for
// [MethodNotAllowed], sorted and de-duplicated.
type Match struct {
	Kind    Kind
	Route   route.Definition
	Params  map[string]string
	Allowed []string
}

// Router resolves a method and a request path against a route table.
//
// Every implementation must produce the same [Match] for the same table and
// input. A router is built once and is safe for concurrent use.
type Router interface {
	Match(method, path string) Match
}

// Strategy selects a [Router] implementation.
type Strategy string

const (
	// StrategyTree selects the prefix-tree router.
	StrategyTree Strategy = "tree"

	// StrategyLinear selects the compiled regular-expression router.
	StrategyLinear Strategy = "linear"
)

// Strategies lists the supported strategies.
func Strategies() []Strategy {
	return []Strategy{StrategyTree, StrategyLinear}
}

// New builds a router of the given strategy from the table's current
// definitions.
func New(strategy Strategy, table *route.Table) (Router, error) {
	switch Strategy(strings.ToLower(string(strategy))) {
	case StrategyTree, "":
		return NewTree(table), nil
	case StrategyLinear:
		return NewLinear(table), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// candidate is a route together with the order key shared by both routers.
type candidate struct {
	def      route.Definition
	segments []route.Segment
	index    int
}

// bind extracts path variables for c from the request path segments and
// checks parameter constraints. It assumes the structure already matched.
func (c *candidate) bind(parts []string) (map[string]string, bool) {
	var params map[string]string
	for i, seg := range c.segments {
		var value string
		switch seg.Kind {
		case route.SegmentParam:
			value = parts[i]
			if !seg.Accepts(value) {
				return nil, false
			}
		case route.SegmentWildcard:
			value = strings.Join(parts[i:], "/")
		default:
			continue
		}
		if params == nil {
			params = make(map[string]string, len(c.segments))
		}
		params[seg.Value] = value
	}

	return params, true
}

// collector accumulates the outcome while candidates are visited in
// specificity order.
type collector struct {
	method  string
	found   *candidate
	params  map[string]string
	allowed []string
}

// offer considers one structurally matching candidate and reports whether
// the search can stop.
func (col *collector) offer(c *candidate, parts []string) bool {
	params, ok := c.bind(parts)
	if !ok {
		return false
	}
	if c.def.Method == col.method {
		col.found = c
		col.params = params

		return true
	}
	col.allowed = append(col.allowed, c.def.Method)

	return false
}

func (col *collector) result() Match {
	if col.found != nil {
		return Match{Kind: Found, Route: col.found.def, Params: col.params}
	}
	if len(col.allowed) == 0 {
		return Match{Kind: NotFound}
	}
	slices.Sort(col.allowed)

	return Match{Kind: MethodNotAllowed, Allowed: slices.Compact(col.allowed)}
}

func newCandidates(table *route.Table) []*candidate {
	defs := table.All()
	out := make([]*candidate, len(defs))
	for i, def := range defs {
		out[i] = &candidate{def: def, segments: def.Pattern().Segments(), index: i}
	}

	return out
}
