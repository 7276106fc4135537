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

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrFrozen is returned when hooks are added after the app was built.
var ErrFrozen = errors.New("app: cannot add hooks after the routes are frozen")

type hooks struct {
	mu         sync.Mutex
	onStart    []func(context.Context) error
	onShutdown []func(context.Context)
}

// OnStart registers a hook run before the server accepts connections.
// Hooks run in order; the first error aborts startup.
func (a *App) OnStart(fn func(context.Context) error) error {
	if a.table.Frozen() {
		return ErrFrozen
	}
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStart = append(a.hooks.onStart, fn)

	return nil
}

// OnShutdown registers a hook run during graceful shutdown, before the
// server stops accepting requests. Hooks run in reverse order.
func (a *App) OnShutdown(fn func(context.Context)) error {
	if a.table.Frozen() {
		return ErrFrozen
	}
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onShutdown = append(a.hooks.onShutdown, fn)

	return nil
}

func (a *App) runStartHooks(ctx context.Context) error {
	a.hooks.mu.Lock()
	start := append([]func(context.Context) error(nil), a.hooks.onStart...)
	a.hooks.mu.Unlock()

	for i, fn := range start {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("app: start hook %d: %w", i, err)
		}
	}

	return nil
}

func (a *App) runShutdownHooks(ctx context.Context) {
	a.hooks.mu.Lock()
	shutdown := append(([]func(context.Context))(nil), a.hooks.onShutdown...)
	a.hooks.mu.Unlock()

	for i := len(shutdown) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.ErrorContext(ctx, "shutdown hook panicked", slog.Int("hook", i), slog.Any("panic", r))
				}
			}()
			shutdown[i](ctx)
		}()
	}
}
