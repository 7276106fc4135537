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

package filter

import (
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/dispatch/pipeline"
)

// SetHeader returns a filter that sets a response header, replacing any
// previous value.
func SetHeader(key, value string) pipeline.Filter {
	return pipeline.FilterFunc(func(resp pipeline.Response, _ pipeline.Request) (pipeline.Response, error) {
		return resp.WithHeader(key, value), nil
	})
}

// AppendHeader returns a filter that adds a value to a response header.
func AppendHeader(key, value string) pipeline.Filter {
	return pipeline.FilterFunc(func(resp pipeline.Response, _ pipeline.Request) (pipeline.Response, error) {
		return resp.WithAddedHeader(key, value), nil
	})
}

// Vary returns a filter that merges fields into the Vary header without
// duplicating existing entries.
func Vary(fields ...string) pipeline.Filter {
	return pipeline.FilterFunc(func(resp pipeline.Response, _ pipeline.Request) (pipeline.Response, error) {
		current := resp.Headers().Values("Vary")
		var existing []string
		for _, v := range current {
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					existing = append(existing, http.CanonicalHeaderKey(part))
				}
			}
		}
		for _, f := range fields {
			f = http.CanonicalHeaderKey(strings.TrimSpace(f))
			if f != "" && !slices.Contains(existing, f) {
				existing = append(existing, f)
			}
		}
		if len(existing) == 0 {
			return resp, nil
		}

		return resp.WithHeader("Vary", strings.Join(existing, ", ")), nil
	})
}
