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

package requestid

import (
	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the request id middleware.
const ID = "request-id"

const maxClientIDLen = 128

// New creates the request id middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		var id string
		if cfg.allowClientID {
			if v := req.Header(cfg.headerName); validClientID(v) {
				id = v
			}
		}
		if id == "" {
			id = cfg.generator()
		}

		resp, err := next(req.WithAttribute(pipeline.AttrRequestID, id))
		if err != nil {
			return resp, err
		}

		return resp.WithHeader(cfg.headerName, id), nil
	})
}

func validClientID(id string) bool {
	if id == "" || len(id) > maxClientIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

// Get returns the request id, or "" when the middleware has not run.
func Get(req pipeline.Request) string {
	return req.AttributeString(pipeline.AttrRequestID)
}
