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

package basicauth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/registry"
)

// ID is the registry id of the basic auth middleware.
const ID = "auth"

// ErrUnauthorized is returned when credentials are missing or wrong.
var ErrUnauthorized = errors.New("authentication required")

// New creates the basic auth middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	challenge := http.Header{"Www-Authenticate": {`Basic realm="` + strings.ReplaceAll(cfg.realm, `"`, `'`) + `", charset="UTF-8"`}}

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		if cfg.skipPaths[req.Path()] {
			return next(req)
		}

		username, password, ok := parse(req.Header("Authorization"))
		if !ok || !cfg.authenticate(username, password) {
			return pipeline.Response{}, riverrors.WithHeaders(ErrUnauthorized, http.StatusUnauthorized, challenge)
		}

		return next(req.WithAttribute(pipeline.AttrUser, username))
	})
}

func parse(auth string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", false
	}

	return strings.Cut(string(decoded), ":")
}

func (cfg *config) authenticate(username, password string) bool {
	if cfg.validator != nil {
		return cfg.validator(username, password)
	}
	expected, exists := cfg.users[username]
	if !exists {
		// Compare anyway so unknown users take as long as known ones.
		subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return false
	}

	return subtle.ConstantTimeCompare([]byte(password), []byte(expected)) == 1
}

// Factory returns a registry factory. The optional first argument
// overrides the realm, so routes can reference auth or auth(Admin).
func Factory(opts ...Option) registry.MiddlewareFactory {
	return func(args ...any) (pipeline.Middleware, error) {
		realm, err := registry.Args(args).String(0, "")
		if err != nil {
			return nil, err
		}
		if realm == "" {
			return New(opts...), nil
		}

		return New(append(append([]Option(nil), opts...), WithRealm(realm))...), nil
	}
}

// Username returns the authenticated user, or "".
func Username(req pipeline.Request) string {
	return req.AttributeString(pipeline.AttrUser)
}
