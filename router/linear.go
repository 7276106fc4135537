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
	"regexp"
	"slices"
	"strings"

	"rivaas.dev/dispatch/route"
)

// compiledRoute pairs a candidate with its anchored path expression.
type compiledRoute struct {
	*candidate
	re *regexp.Regexp
}

// Linear is a [Router] that tries every route's compiled regular expression
// in specificity order.
//
// Routes are sorted once at build time by comparing their segment kinds
// position by position (static before parameter before wildcard) and then
// by registration order, which is the same order the prefix tree visits.
type Linear struct {
	routes []compiledRoute
}

// NewLinear compiles the table's definitions into a sorted route list.
func NewLinear(table *route.Table) *Linear {
	cands := newCandidates(table)
	routes := make([]compiledRoute, len(cands))
	for i, c := range cands {
		routes[i] = compiledRoute{candidate: c, re: compilePattern(c.segments)}
	}
	sortRoutesBySpecificity(routes)

	return &Linear{routes: routes}
}

// compilePattern turns segments into an anchored expression. Constraints are
// checked after the structural match, on the extracted value.
func compilePattern(segments []route.Segment) *regexp.Regexp {
	if len(segments) == 0 {
		return regexp.MustCompile(`^/$`)
	}

	var b strings.Builder
	b.WriteByte('^')
	for _, seg := range segments {
		b.WriteByte('/')
		switch seg.Kind {
		case route.SegmentParam:
			b.WriteString(`[^/]+`)
		case route.SegmentWildcard:
			b.WriteString(`.+`)
		default:
			b.WriteString(regexp.QuoteMeta(seg.Value))
		}
	}
	b.WriteByte('$')

	return regexp.MustCompile(b.String())
}

// sortRoutesBySpecificity orders routes by segment kind rank, then by
// registration order.
func sortRoutesBySpecificity(routes []compiledRoute) {
	slices.SortStableFunc(routes, func(a, b compiledRoute) int {
		if c := compareRank(a.def.Pattern().Rank(), b.def.Pattern().Rank()); c != 0 {
			return c
		}

		return a.index - b.index
	})
}

func compareRank(a, b []route.SegmentKind) int {
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}

	return len(a) - len(b)
}

// Match implements [Router].
func (l *Linear) Match(method, path string) Match {
	path = route.NormalizePath(path)
	col := &collector{method: strings.ToUpper(method)}
	parts := route.SplitPath(path)

	for i := range l.routes {
		r := &l.routes[i]
		if !r.re.MatchString(path) {
			continue
		}
		if col.offer(r.candidate, parts) {
			break
		}
	}

	return col.result()
}
