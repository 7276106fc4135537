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

// Package filter post-processes responses produced by the middleware queue.
//
// A [Chain] folds a response through its filters in registration order; the
// output of one filter is the input of the next. An empty chain returns the
// response unchanged.
package filter

import (
	"fmt"
	"slices"

	"rivaas.dev/dispatch/pipeline"
)

// Chain is an immutable ordered list of filters.
type Chain struct {
	filters []pipeline.Filter
}

// NewChain returns a chain over a copy of filters.
func NewChain(filters ...pipeline.Filter) Chain {
	return Chain{filters: slices.Clone(filters)}
}

// Len returns the number of filters.
func (c Chain) Len() int { return len(c.filters) }

// Run applies every filter in order. It stops at the first error.
func (c Chain) Run(resp pipeline.Response, req pipeline.Request) (pipeline.Response, error) {
	for i, f := range c.filters {
		out, err := f.Process(resp, req)
		if err != nil {
			return pipeline.Response{}, fmt.Errorf("filter %d: %w", i, err)
		}
		resp = out
	}

	return resp, nil
}
