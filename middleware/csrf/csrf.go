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

// Package csrf rejects state-changing requests that do not echo the
// session's CSRF token.
//
// Safe methods (GET, HEAD, OPTIONS, TRACE) pass. Other requests must carry
// the token from [session.Session.Token] in the X-CSRF-Token header or the
// _csrf form field; otherwise the queue ends with a 403 error. The session
// middleware must run first.
package csrf

import (
	"errors"
	"net/http"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/middleware/session"
	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the CSRF middleware.
const ID = "csrf"

var (
	// ErrTokenMismatch is returned when the token is missing or wrong.
	ErrTokenMismatch = errors.New("csrf token missing or invalid")

	// ErrNoSession is returned when no session is attached to the request.
	ErrNoSession = errors.New("csrf: session middleware has not run")
)

// Option defines functional options for the CSRF middleware.
type Option func(*config)

type config struct {
	header string
	field  string
}

// WithHeader sets the request header carrying the token.
// Default: "X-CSRF-Token"
func WithHeader(name string) Option {
	return func(cfg *config) {
		cfg.header = name
	}
}

// WithField sets the form field carrying the token.
// Default: "_csrf"
func WithField(name string) Option {
	return func(cfg *config) {
		cfg.field = name
	}
}

func safe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}

	return false
}

// New creates the CSRF middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := &config{header: "X-CSRF-Token", field: "_csrf"}
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		if safe(req.Method()) {
			return next(req)
		}

		sess, ok := session.FromRequest(req)
		if !ok {
			return pipeline.Response{}, ErrNoSession
		}

		// The query string is never consulted.
		token := req.Header(cfg.header)
		if token == "" {
			if v, ok := req.ParsedValue(cfg.field); ok {
				token, _ = v.(string)
			}
		}
		if !sess.VerifyToken(token) {
			return pipeline.Response{}, riverrors.WithStatus(ErrTokenMismatch, http.StatusForbidden)
		}

		return next(req)
	})
}
