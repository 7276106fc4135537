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
	"slices"

	"rivaas.dev/dispatch/filter"
	"rivaas.dev/dispatch/middleware/accesslog"
	"rivaas.dev/dispatch/middleware/basicauth"
	"rivaas.dev/dispatch/middleware/bodyparser"
	"rivaas.dev/dispatch/middleware/clientip"
	"rivaas.dev/dispatch/middleware/cors"
	"rivaas.dev/dispatch/middleware/csrf"
	"rivaas.dev/dispatch/middleware/jwtauth"
	"rivaas.dev/dispatch/middleware/metrics"
	"rivaas.dev/dispatch/middleware/ratelimit"
	"rivaas.dev/dispatch/middleware/requestid"
	"rivaas.dev/dispatch/middleware/session"
	"rivaas.dev/dispatch/middleware/timeout"
	"rivaas.dev/dispatch/pipeline"
)

// registerMiddleware binds every built-in id. Conditional units that are
// switched off stay registered so routes can still reference them.
func (a *App) registerMiddleware() error {
	s := a.settings
	mw := s.Middleware
	reg := a.registry

	sessionOpts := []session.Option{
		session.WithCookieName(s.Session.CookieName),
		session.WithMaxAge(s.Session.MaxAge),
		session.WithSecure(s.Session.Secure),
		session.WithLogger(a.logger),
	}
	if a.opts.store != nil {
		sessionOpts = append(sessionOpts, session.WithStore(a.opts.store))
	}
	reg.Use(session.ID, session.New(sessionOpts...))

	resolver, err := clientip.New(clientip.WithTrustedProxies(s.ClientIP.TrustedProxies...))
	if err != nil {
		return newFieldError("client_ip.trusted_proxies", s.ClientIP.TrustedProxies, err.Error(), "")
	}
	reg.Use(clientip.ID, resolver)
	reg.Use(bodyparser.JSONID, bodyparser.JSON())
	reg.Use(bodyparser.FormID, bodyparser.Form())

	idOpts := []requestid.Option{requestid.WithAllowClientID(mw.RequestID.AllowClientID)}
	if mw.RequestID.Format == "ulid" {
		idOpts = append(idOpts, requestid.WithULID())
	}
	reg.Use(requestid.ID, requestid.New(idOpts...))
	reg.SetEnabled(requestid.ID, mw.RequestID.Enabled)

	logExcludes := slices.Clone(mw.AccessLog.ExcludePaths)
	if mw.Metrics.Enabled {
		logExcludes = append(logExcludes, mw.Metrics.Path)
	}
	reg.Use(accesslog.ID, accesslog.New(
		accesslog.WithLogger(a.logger),
		accesslog.WithExcludePaths(logExcludes...),
		accesslog.WithSlowThreshold(mw.AccessLog.SlowThreshold),
	))
	reg.SetEnabled(accesslog.ID, mw.AccessLog.Enabled)

	reg.Use(cors.ID, cors.New(
		cors.WithAllowedOrigins(mw.CORS.Origins...),
		cors.WithAllowCredentials(mw.CORS.Credentials),
		cors.WithMaxAge(mw.CORS.MaxAge),
	))
	reg.SetEnabled(cors.ID, mw.CORS.Enabled)

	if mw.Metrics.Enabled {
		recorder, err := metrics.New(
			metrics.WithNamespace(mw.Metrics.Namespace),
			metrics.WithServiceName(s.Name),
			metrics.WithExcludePaths(mw.Metrics.Path),
		)
		if err != nil {
			return err
		}
		a.metrics = recorder
		reg.Use(metrics.ID, recorder)
	}

	reg.RegisterMiddleware(basicauth.ID, basicauth.Factory(
		basicauth.WithUsers(mw.Auth.Users),
		basicauth.WithRealm(mw.Auth.Realm),
	))
	reg.SetEnabled(basicauth.ID, mw.Auth.Enabled)

	reg.RegisterMiddleware(jwtauth.ID, a.jwtFactory())
	reg.SetEnabled(jwtauth.ID, mw.JWT.Enabled)

	reg.Use(csrf.ID, csrf.New())
	reg.SetEnabled(csrf.ID, mw.CSRF.Enabled)

	reg.RegisterMiddleware(ratelimit.ID, ratelimit.Factory(ratelimit.WithIdleTTL(mw.RateLimit.IdleTTL)))
	reg.RegisterMiddleware(timeout.ID, timeout.Factory(
		timeout.WithDuration(mw.Timeout.Default),
		timeout.WithLogger(a.logger),
	))

	filter.Register(reg)

	return nil
}

// jwtFactory builds the verifier once. Without a secret every reference
// fails to construct, which surfaces as a 500 on the routes using it.
func (a *App) jwtFactory() func(...any) (pipeline.Middleware, error) {
	cfg := a.settings.Middleware.JWT
	if cfg.Secret == "" {
		return func(...any) (pipeline.Middleware, error) { return nil, jwtauth.ErrNoSecret }
	}

	m, err := jwtauth.New(
		jwtauth.WithSecret([]byte(cfg.Secret)),
		jwtauth.WithIssuer(cfg.Issuer),
		jwtauth.WithAudience(cfg.Audience),
	)

	return func(...any) (pipeline.Middleware, error) { return m, err }
}
