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
	"regexp"
	"slices"
	"strings"
)

// SegmentKind classifies one path segment of a route pattern.
// The numeric order is the specificity rank used by the routers: lower is
// more specific.
type SegmentKind uint8

const (
	SegmentStatic SegmentKind = iota
	SegmentParam
	SegmentWildcard
)

// DefaultWildcardName is the path variable name of an unnamed wildcard.
const DefaultWildcardName = "filepath"

// Named constraint shortcuts usable as {name:int}, {name:uuid}, ...
var constraintAliases = map[string]string{
	"int":      `\d+`,
	"float":    `-?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`,
	"uuid":     `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"alpha":    `[A-Za-z]+`,
	"slug":     `[a-z0-9]+(?:-[a-z0-9]+)*`,
	"date":     `\d{4}-\d{2}-\d{2}`,
	"datetime": `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})`,
}

var paramNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Segment is one element of a parsed pattern.
type Segment struct {
	Kind SegmentKind

	// Value is the literal text of a static segment, or the variable name of
	// a param or wildcard segment.
	Value string

	// Constraint restricts the values a param segment accepts. Nil means any
	// non-empty segment.
	Constraint *regexp.Regexp

	expr string
}

// Accepts reports whether value satisfies the segment's constraint.
func (s Segment) Accepts(value string) bool {
	return s.Constraint == nil || s.Constraint.MatchString(value)
}

func (s Segment) canonical() string {
	switch s.Kind {
	case SegmentParam:
		if s.expr != "" {
			return "{" + s.Value + ":" + s.expr + "}"
		}
		return "{" + s.Value + "}"
	case SegmentWildcard:
		return "{" + s.Value + "...}"
	default:
		return s.Value
	}
}

// Pattern is a parsed route path.
//
// Supported syntax:
//
//	/users                 static
//	/users/{id}            param (also written /users/:id)
//	/users/{id:[0-9]+}     param with a regular expression constraint
//	/users/{id:int}        param with a named constraint
//	/files/*               wildcard bound to "filepath"
//	/files/{path...}       named wildcard (also written /files/*path)
//
// A wildcard must be the last segment and matches one or more segments.
type Pattern struct {
	canonical string
	segments  []Segment
}

// ParsePattern parses and validates a route path.
func ParsePattern(path string) (Pattern, error) {
	if !strings.HasPrefix(path, "/") {
		return Pattern{}, fmt.Errorf("%w: %q must start with '/'", ErrInvalidPattern, path)
	}

	raw := SplitPath(NormalizePath(path))
	segments := make([]Segment, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, s := range raw {
		seg, err := parseSegment(s)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, path, err)
		}
		if seg.Kind == SegmentWildcard && i != len(raw)-1 {
			return Pattern{}, fmt.Errorf("%w: %q: wildcard must be the last segment", ErrInvalidPattern, path)
		}
		if seg.Kind != SegmentStatic {
			if seen[seg.Value] {
				return Pattern{}, fmt.Errorf("%w: %q: duplicate variable %q", ErrInvalidPattern, path, seg.Value)
			}
			seen[seg.Value] = true
		}
		segments = append(segments, seg)
	}

	p := Pattern{segments: segments}
	var b strings.Builder
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(seg.canonical())
	}
	p.canonical = b.String()
	if p.canonical == "" {
		p.canonical = "/"
	}

	return p, nil
}

func parseSegment(s string) (Segment, error) {
	switch {
	case s == "*":
		return Segment{Kind: SegmentWildcard, Value: DefaultWildcardName}, nil

	case strings.HasPrefix(s, "*"):
		name := s[1:]
		if !paramNameRe.MatchString(name) {
			return Segment{}, fmt.Errorf("invalid wildcard name %q", name)
		}
		return Segment{Kind: SegmentWildcard, Value: name}, nil

	case strings.HasPrefix(s, ":"):
		name := s[1:]
		if !paramNameRe.MatchString(name) {
			return Segment{}, fmt.Errorf("invalid parameter name %q", name)
		}
		return Segment{Kind: SegmentParam, Value: name}, nil

	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		inner := s[1 : len(s)-1]
		if name, ok := strings.CutSuffix(inner, "..."); ok {
			if !paramNameRe.MatchString(name) {
				return Segment{}, fmt.Errorf("invalid wildcard name %q", name)
			}
			return Segment{Kind: SegmentWildcard, Value: name}, nil
		}

		name, expr, hasExpr := strings.Cut(inner, ":")
		if !paramNameRe.MatchString(name) {
			return Segment{}, fmt.Errorf("invalid parameter name %q", name)
		}
		seg := Segment{Kind: SegmentParam, Value: name}
		if hasExpr {
			if expr == "" {
				return Segment{}, fmt.Errorf("empty constraint for %q", name)
			}
			body := expr
			if alias, ok := constraintAliases[expr]; ok {
				body = alias
			}
			re, err := regexp.Compile("^(?:" + body + ")$")
			if err != nil {
				return Segment{}, fmt.Errorf("constraint for %q: %w", name, err)
			}
			seg.Constraint = re
			seg.expr = expr
		}
		return seg, nil

	case strings.ContainsAny(s, "{}"):
		return Segment{}, fmt.Errorf("malformed segment %q", s)

	default:
		return Segment{Kind: SegmentStatic, Value: s}, nil
	}
}

// String returns the canonical form of the pattern. Two paths that differ
// only in parameter spelling (":id" versus "{id}") or trailing slash share
// the same canonical form.
func (p Pattern) String() string {
	if p.canonical == "" {
		return "/"
	}

	return p.canonical
}

// Segments returns a copy of the parsed segments.
func (p Pattern) Segments() []Segment { return slices.Clone(p.segments) }

// Len returns the number of segments.
func (p Pattern) Len() int { return len(p.segments) }

// Params returns the variable names in declaration order.
func (p Pattern) Params() []string {
	var names []string
	for _, s := range p.segments {
		if s.Kind != SegmentStatic {
			names = append(names, s.Value)
		}
	}

	return names
}

// IsStatic reports whether the pattern has no variables.
func (p Pattern) IsStatic() bool {
	for _, s := range p.segments {
		if s.Kind != SegmentStatic {
			return false
		}
	}

	return true
}

// Rank returns the per-segment specificity of the pattern.
func (p Pattern) Rank() []SegmentKind {
	rank := make([]SegmentKind, len(p.segments))
	for i, s := range p.segments {
		rank[i] = s.Kind
	}

	return rank
}

// NormalizePath cleans a request or route path: it guarantees a leading
// slash, collapses repeated slashes and strips a trailing slash except on
// the root path.
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	return path
}

// SplitPath splits a normalized path into segments. The root path has none.
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}
