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

package cors

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the CORS middleware.
const ID = "cors"

// New creates the CORS middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	allowedMethods := strings.Join(cfg.allowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.allowedHeaders, ", ")
	exposedHeaders := strings.Join(cfg.exposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.maxAge)

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		origin := req.Header("Origin")
		if origin == "" {
			return next(req)
		}

		allowed := cfg.allowedOrigin(origin)
		if allowed == "" {
			return next(req)
		}

		decorate := func(resp pipeline.Response) pipeline.Response {
			resp = resp.WithHeader("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				resp = resp.WithAddedHeader("Vary", "Origin")
			}
			if cfg.allowCredentials {
				resp = resp.WithHeader("Access-Control-Allow-Credentials", "true")
			}
			if exposedHeaders != "" {
				resp = resp.WithHeader("Access-Control-Expose-Headers", exposedHeaders)
			}

			return resp
		}

		if req.Method() == http.MethodOptions && req.Header("Access-Control-Request-Method") != "" {
			resp := pipeline.Raw(http.StatusNoContent, "", nil).
				WithHeader("Access-Control-Allow-Methods", allowedMethods).
				WithHeader("Access-Control-Allow-Headers", allowedHeaders).
				WithHeader("Access-Control-Max-Age", maxAge)

			return decorate(resp), nil
		}

		resp, err := next(req)
		if err != nil {
			return resp, err
		}

		return decorate(resp), nil
	})
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not allowed.
func (cfg *config) allowedOrigin(origin string) string {
	switch {
	case cfg.allowAllOrigins:
		if cfg.allowCredentials {
			return origin
		}
		return "*"
	case cfg.allowOriginFunc != nil:
		if cfg.allowOriginFunc(origin) {
			return origin
		}
	case slices.Contains(cfg.allowedOrigins, origin):
		return origin
	}

	return ""
}
