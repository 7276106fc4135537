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

// Package recovery is the single place where failures become responses.
//
// [Normalizer.Guard] runs a unit of work (the middleware queue followed by
// the response filters), recovers panics and turns any error into a
// response. Uninitialized storage is answered with a 503 "setup required"
// view; everything else is flattened into an error view chosen by status.
// Internal detail is rendered only in development mode.
package recovery

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// Normalizer maps failures to responses.
type Normalizer struct {
	cfg *config
}

// New returns a Normalizer.
func New(opts ...Option) *Normalizer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Normalizer{cfg: cfg}
}

// DevMode reports whether internal detail is rendered.
func (n *Normalizer) DevMode() bool { return n.cfg.devMode }

// Guard runs unit and always returns a response: the unit's own, or the
// normalized form of its error or panic.
func (n *Normalizer) Guard(req pipeline.Request, unit pipeline.Handler) (resp pipeline.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = n.Normalize(req, n.recovered(req, rec))
		}
	}()

	out, err := unit(req)
	if err != nil {
		return n.Normalize(req, err)
	}

	return out
}

// recovered records a panic on the active span and in the log, and turns it
// into an error that carries the panicking frame.
func (n *Normalizer) recovered(req pipeline.Request, rec any) error {
	err := pkgerrors.WithStack(&PanicError{Value: rec})

	if span := trace.SpanFromContext(req.Context()); span.SpanContext().IsValid() {
		span.SetAttributes(
			attribute.Bool("exception.escaped", true),
			attribute.String("exception.type", fmt.Sprintf("%T", rec)),
			attribute.String("exception.message", fmt.Sprintf("%v", rec)),
		)
	}

	attrs := []any{
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
		slog.Any("panic", rec),
	}
	if n.cfg.stackTrace {
		stack := debug.Stack()
		if len(stack) > n.cfg.stackSize {
			stack = stack[:n.cfg.stackSize]
		}
		attrs = append(attrs, slog.String("stack", string(stack)))
	}
	n.cfg.logger.ErrorContext(req.Context(), "panic recovered", attrs...)

	return err
}

// Normalize turns err into a response. It never panics: a failure while
// normalizing yields [Fallback].
func (n *Normalizer) Normalize(req pipeline.Request, err error) (resp pipeline.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			n.cfg.logger.ErrorContext(req.Context(), "failure normalization panicked", slog.Any("panic", rec))
			resp = Fallback()
		}
	}()

	if span := trace.SpanFromContext(req.Context()); span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if se, ok := riverrors.AsStorageError(err); ok {
		return n.setup(req, se, err)
	}

	return n.unhandled(req, err)
}

func (n *Normalizer) setup(req pipeline.Request, se *riverrors.StorageError, err error) pipeline.Response {
	n.cfg.logger.WarnContext(req.Context(), "storage not initialized",
		slog.String("resource", se.Resource),
		slog.String("error", err.Error()),
		slog.String("request_id", req.AttributeString(pipeline.AttrRequestID)),
	)

	data := map[string]any{
		"statusCode": http.StatusServiceUnavailable,
		"statusText": http.StatusText(http.StatusServiceUnavailable),
	}
	if n.cfg.devMode {
		data["resource"] = se.Resource
		data["hints"] = se.Hints
		data["message"] = err.Error()
	}

	return pipeline.NewResponse(http.StatusServiceUnavailable, data).
		WithTemplate(n.cfg.setupTemplate).
		WithMessage("setup required").
		WithHeader("Retry-After", "60")
}

func (n *Normalizer) unhandled(req pipeline.Request, err error) pipeline.Response {
	f := riverrors.Flatten(err, n.cfg.resolve)

	level := slog.LevelWarn
	if f.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	n.cfg.logger.Log(req.Context(), level, "request failed",
		slog.Int("status", f.StatusCode),
		slog.String("error_id", f.ErrorID),
		slog.String("class", f.Class),
		slog.String("error", f.Message),
		slog.String("file", f.File),
		slog.Int("line", f.Line),
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
		slog.String("request_id", req.AttributeString(pipeline.AttrRequestID)),
	)

	if !n.cfg.devMode {
		f = f.Public()
	}

	resp := pipeline.NewResponse(f.StatusCode, f.Map()).
		WithTemplate(n.template(f.StatusCode)).
		WithMessage(f.Message)
	for k, vs := range riverrors.HeadersOf(err) {
		for _, v := range vs {
			resp = resp.WithAddedHeader(k, v)
		}
	}

	return resp
}

// template picks "errors/<status>" when it exists, else the default.
func (n *Normalizer) template(status int) string {
	name := fmt.Sprintf("%s%d", n.cfg.templatePrefix, status)
	if n.cfg.templates != nil && n.cfg.templates.Has(name) {
		return name
	}

	return n.cfg.defaultTemplate
}

// Fallback is the static response used when normalization itself fails.
func Fallback() pipeline.Response {
	return pipeline.Raw(http.StatusInternalServerError, "text/plain; charset=utf-8",
		[]byte(http.StatusText(http.StatusInternalServerError)))
}
