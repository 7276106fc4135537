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

// Package relay runs a middleware queue in the onion model.
//
// The first middleware sees the request first and the response last. Each
// middleware receives a continuation that runs the rest of the queue; it may
// skip the continuation to short-circuit. The queue itself is an immutable
// slice and continuations are closures over an index, so no cursor is shared
// between calls.
package relay

import (
	"errors"
	"slices"
	"sync/atomic"

	"rivaas.dev/dispatch/pipeline"
)

// ErrContinuationReused is returned when a middleware calls its continuation
// more than once.
var ErrContinuationReused = errors.New("relay: continuation called more than once")

// ErrNoTerminal is returned by [Handle] for a queue without a terminal handler.
var ErrNoTerminal = errors.New("relay: queue has no terminal handler")

// Queue is an ordered list of middleware followed by exactly one terminal
// handler.
type Queue struct {
	middleware []pipeline.Middleware
	terminal   pipeline.Handler
}

// NewQueue returns a queue over a copy of mws ending in terminal.
func NewQueue(terminal pipeline.Handler, mws ...pipeline.Middleware) Queue {
	return Queue{middleware: slices.Clone(mws), terminal: terminal}
}

// Len returns the number of middleware, excluding the terminal handler.
func (q Queue) Len() int { return len(q.middleware) }

// Handle runs req through q and returns the response produced by the first
// unit that does not delegate, or by the terminal handler.
func Handle(req pipeline.Request, q Queue) (pipeline.Response, error) {
	if q.terminal == nil {
		return pipeline.Response{}, ErrNoTerminal
	}

	return q.handler(0)(req)
}

// handler returns the continuation that runs the queue from position i.
func (q Queue) handler(i int) pipeline.Handler {
	if i >= len(q.middleware) {
		return q.terminal
	}

	mw := q.middleware[i]

	return func(req pipeline.Request) (pipeline.Response, error) {
		return mw.Process(req, once(q.handler(i+1)))
	}
}

// once guards a continuation against repeated invocation.
func once(next pipeline.Handler) pipeline.Handler {
	var called atomic.Bool

	return func(req pipeline.Request) (pipeline.Response, error) {
		if !called.CompareAndSwap(false, true) {
			return pipeline.Response{}, ErrContinuationReused
		}

		return next(req)
	}
}
