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
	"strings"

	"rivaas.dev/dispatch/route"
)

// edge is a per-segment static child (linear scan, no map hashing).
type edge struct {
	label string
	node  *node
}

// node is one level of the prefix tree.
//
// Every node has any number of static children, at most one parameter child
// and at most one wildcard child. Parameter names and constraints live on the
// routes, not on the node, so "/u/{id:int}" and "/u/{name}" share a node and
// are tried in registration order.
type node struct {
	edges    []edge
	param    *node
	wildcard *node
	routes   []*candidate
}

func (n *node) findChild(segment string) *node {
	for i := range n.edges {
		if n.edges[i].label == segment {
			return n.edges[i].node
		}
	}

	return nil
}

func (n *node) findOrCreateChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{}
	n.edges = append(n.edges, edge{label: segment, node: child})

	return child
}

// Tree is a prefix-tree [Router].
//
// Lookup walks the tree depth first, trying static children, then the
// parameter child, then the wildcard child at every level. That visiting
// order is the specificity order, so the first route found for the request
// method is the most specific one. When no route accepts the method the walk
// completes and every visited route contributes to the allowed set.
//
// Fully static routes are also indexed by path so the common case needs a
// single map lookup.
type Tree struct {
	root        *node
	staticPaths map[string][]*candidate
}

// NewTree builds a prefix tree from the table's definitions.
func NewTree(table *route.Table) *Tree {
	t := &Tree{root: &node{}, staticPaths: make(map[string][]*candidate)}
	for _, c := range newCandidates(table) {
		t.add(c)
	}

	return t
}

func (t *Tree) add(c *candidate) {
	current := t.root
	for _, seg := range c.segments {
		switch seg.Kind {
		case route.SegmentParam:
			if current.param == nil {
				current.param = &node{}
			}
			current = current.param
		case route.SegmentWildcard:
			if current.wildcard == nil {
				current.wildcard = &node{}
			}
			current = current.wildcard
		default:
			current = current.findOrCreateChild(seg.Value)
		}
	}
	current.routes = append(current.routes, c)

	if c.def.Pattern().IsStatic() {
		key := c.def.Pattern().String()
		t.staticPaths[key] = append(t.staticPaths[key], c)
	}
}

// Match implements [Router].
func (t *Tree) Match(method, path string) Match {
	path = route.NormalizePath(path)
	col := &collector{method: strings.ToUpper(method)}

	// A fully static route is the most specific candidate for its path.
	for _, c := range t.staticPaths[path] {
		if c.def.Method == col.method {
			return Match{Kind: Found, Route: c.def}
		}
	}

	parts := route.SplitPath(path)
	t.walk(t.root, parts, 0, col)

	return col.result()
}

// walk visits matching routes in specificity order and reports whether the
// search is complete.
func (t *Tree) walk(n *node, parts []string, depth int, col *collector) bool {
	if depth == len(parts) {
		for _, c := range n.routes {
			if col.offer(c, parts) {
				return true
			}
		}

		return false
	}

	segment := parts[depth]

	if child := n.findChild(segment); child != nil {
		if t.walk(child, parts, depth+1, col) {
			return true
		}
	}

	if n.param != nil {
		if t.walk(n.param, parts, depth+1, col) {
			return true
		}
	}

	if n.wildcard != nil {
		for _, c := range n.wildcard.routes {
			if col.offer(c, parts) {
				return true
			}
		}
	}

	return false
}
