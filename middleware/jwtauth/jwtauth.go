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

// Package jwtauth authenticates requests carrying an HMAC-signed JSON Web
// Token, either as "Authorization: Bearer <token>" or in a cookie.
//
// Verified claims are stored in the [pipeline.AttrClaims] attribute and the
// subject in [pipeline.AttrUser]. Missing or invalid tokens end the queue
// with a 401 error and a Bearer challenge.
//
//	mw, err := jwtauth.New(
//	    jwtauth.WithSecret([]byte(os.Getenv("JWT_SECRET"))),
//	    jwtauth.WithIssuer("dispatch"),
//	)
package jwtauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the JWT middleware.
const ID = "jwt"

var (
	// ErrNoSecret is returned by [New] without a signing secret.
	ErrNoSecret = errors.New("jwtauth: signing secret is required")

	// ErrMissingToken is returned when the request carries no token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken wraps every verification failure.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Option defines functional options for the JWT middleware.
type Option func(*config)

type config struct {
	secret     []byte
	algorithms []string
	issuer     string
	audience   string
	leeway     time.Duration
	cookie     string
}

// WithSecret sets the HMAC secret.
func WithSecret(secret []byte) Option {
	return func(cfg *config) {
		cfg.secret = secret
	}
}

// WithAlgorithms restricts the accepted signing methods.
// Default: HS256
func WithAlgorithms(algs ...string) Option {
	return func(cfg *config) {
		cfg.algorithms = algs
	}
}

// WithIssuer requires the iss claim.
func WithIssuer(iss string) Option {
	return func(cfg *config) {
		cfg.issuer = iss
	}
}

// WithAudience requires the aud claim to contain aud.
func WithAudience(aud string) Option {
	return func(cfg *config) {
		cfg.audience = aud
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(cfg *config) {
		cfg.leeway = d
	}
}

// WithCookie also accepts the token from the named cookie.
func WithCookie(name string) Option {
	return func(cfg *config) {
		cfg.cookie = name
	}
}

// New creates the JWT middleware.
func New(opts ...Option) (pipeline.Middleware, error) {
	cfg := &config{algorithms: []string{jwt.SigningMethodHS256.Alg()}}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.secret) == 0 {
		return nil, ErrNoSecret
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(cfg.algorithms),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.leeway),
	}
	if cfg.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.issuer))
	}
	if cfg.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.audience))
	}
	parser := jwt.NewParser(parserOpts...)
	keyFunc := func(*jwt.Token) (any, error) { return cfg.secret, nil }

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		raw := cfg.token(req)
		if raw == "" {
			return pipeline.Response{}, unauthorized(ErrMissingToken, `Bearer`)
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
			return pipeline.Response{}, unauthorized(fmt.Errorf("%w: %w", ErrInvalidToken, err), `Bearer error="invalid_token"`)
		}

		sub, _ := claims.GetSubject()

		return next(req.WithAttribute(pipeline.AttrClaims, claims).WithAttribute(pipeline.AttrUser, sub))
	}), nil
}

func (cfg *config) token(req pipeline.Request) string {
	if auth := req.Header("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if cfg.cookie != "" {
		if c, err := req.Cookie(cfg.cookie); err == nil {
			return c.Value
		}
	}

	return ""
}

func unauthorized(err error, challenge string) error {
	return riverrors.WithHeaders(err, http.StatusUnauthorized, http.Header{"Www-Authenticate": {challenge}})
}

// Claims returns the verified claims, or nil.
func Claims(req pipeline.Request) jwt.MapClaims {
	v, _ := req.Attribute(pipeline.AttrClaims)
	claims, _ := v.(jwt.MapClaims)

	return claims
}
