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
)

// ErrInvalidRef is returned by [ParseRef] for malformed references.
var ErrInvalidRef = errors.New("route: invalid reference")

// ParseRef parses the textual form of a reference as written in
// configuration: "id" or "id(arg1, arg2)". Arguments are kept as trimmed
// strings; factories coerce them.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if s == "" || strings.ContainsAny(s, ") ,") {
			return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
		}
		return Ref{ID: s}, nil
	}

	if !strings.HasSuffix(s, ")") || open == 0 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}

	ref := Ref{ID: strings.TrimSpace(s[:open])}
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner == "" {
		return ref, nil
	}
	for arg := range strings.SplitSeq(inner, ",") {
		ref.Args = append(ref.Args, strings.TrimSpace(arg))
	}

	return ref, nil
}

// ParseRefs parses a list of references.
func ParseRefs(items []string) ([]Ref, error) {
	refs := make([]Ref, 0, len(items))
	for _, item := range items {
		ref, err := ParseRef(item)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	return refs, nil
}
