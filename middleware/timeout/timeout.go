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

package timeout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/registry"
)

// ID is the registry id of the timeout middleware.
const ID = "timeout"

// ErrTimeout is returned when the deadline passes before the queue answers.
var ErrTimeout = errors.New("request timed out")

type result struct {
	resp  pipeline.Response
	err   error
	panic any
}

// New creates the timeout middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		if cfg.skip(req) || cfg.duration <= 0 {
			return next(req)
		}

		ctx, cancel := context.WithTimeout(req.Context(), cfg.duration)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			var r result
			defer func() {
				if p := recover(); p != nil {
					r.panic = p
				}
				done <- r
			}()
			r.resp, r.err = next(req.WithContext(ctx))
		}()

		select {
		case r := <-done:
			if r.panic != nil {
				panic(r.panic)
			}
			return r.resp, r.err

		case <-ctx.Done():
			cause := ctx.Err()
			if errors.Is(cause, context.DeadlineExceeded) {
				cfg.logger.WarnContext(req.Context(), "request timeout",
					slog.String("method", req.Method()),
					slog.String("path", req.Path()),
					slog.Duration("timeout", cfg.duration),
				)
			}
			go cfg.drain(req, done)

			return pipeline.Response{}, fmt.Errorf("%w after %s: %w", ErrTimeout, cfg.duration, cause)
		}
	})
}

// drain waits for an abandoned queue so a late panic is logged, not lost.
func (cfg *config) drain(req pipeline.Request, done <-chan result) {
	if r := <-done; r.panic != nil {
		cfg.logger.ErrorContext(req.Context(), "panic after request timeout",
			slog.Any("panic", r.panic),
			slog.String("path", req.Path()),
		)
	}
}

func (cfg *config) skip(req pipeline.Request) bool {
	path := req.Path()
	if cfg.skipPaths[path] {
		return true
	}
	for _, prefix := range cfg.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return cfg.skipFunc != nil && cfg.skipFunc(req)
}

// Factory returns a registry factory for timeout(duration). Durations use
// time.ParseDuration syntax; without an argument the options' duration
// applies.
func Factory(opts ...Option) registry.MiddlewareFactory {
	base := defaultConfig()
	for _, opt := range opts {
		opt(base)
	}

	return func(args ...any) (pipeline.Middleware, error) {
		d, err := registry.Args(args).Duration(0, base.duration)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("timeout: duration must be positive, got %s", d)
		}

		return New(append(append([]Option(nil), opts...), WithDuration(d))...), nil
	}
}
