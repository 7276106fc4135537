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
	"net"
	"net/http"
)

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully within the shutdown timeout. Callers handle
// signals, typically with signal.NotifyContext.
func (a *App) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", a.settings.Server.Addr)
	if err != nil {
		return fmt.Errorf("app: listening on %s: %w", a.settings.Server.Addr, err)
	}

	return a.Serve(ctx, ln)
}

// Serve is [App.Run] on an existing listener, which it closes.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	handler, err := a.Handler()
	if err != nil {
		_ = ln.Close()
		return err
	}
	if err := a.runStartHooks(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	srv := a.settings.Server
	server := &http.Server{
		Handler:           handler,
		ReadTimeout:       srv.ReadTimeout,
		ReadHeaderTimeout: srv.ReadHeaderTimeout,
		WriteTimeout:      srv.WriteTimeout,
		IdleTimeout:       srv.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}

	if a.settings.Banner {
		a.printBanner(ln.Addr().String())
	}
	a.logger.InfoContext(ctx, "server starting",
		slog.String("addr", ln.Addr().String()),
		slog.String("strategy", a.settings.Router.Strategy),
		slog.Int("routes", a.table.Len()),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("app: server failed: %w", err)
	case <-ctx.Done():
		a.logger.Info("server shutting down", slog.Any("reason", context.Cause(ctx)))
	}

	// ctx is already done; the shutdown deadline needs a fresh parent.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout)
	defer cancel()

	a.runShutdownHooks(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: forced shutdown: %w", err)
	}
	a.logger.Info("server exited")

	return nil
}
