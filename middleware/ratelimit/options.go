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

package ratelimit

import (
	"time"

	"rivaas.dev/dispatch/middleware/clientip"
	"rivaas.dev/dispatch/pipeline"
)

// KeyFunc derives the bucket key of a request.
type KeyFunc func(req pipeline.Request) string

// Option defines functional options for the rate limiter.
type Option func(*config)

type config struct {
	keyFunc KeyFunc
	idleTTL time.Duration
	headers bool
	now     func() time.Time
}

func defaultConfig() *config {
	return &config{
		keyFunc: defaultKey,
		idleTTL: 5 * time.Minute,
		headers: true,
		now:     time.Now,
	}
}

func defaultKey(req pipeline.Request) string {
	return clientip.FromRequest(req) + " " + req.AttributeString(pipeline.AttrRoute)
}

// WithKeyFunc sets how requests are grouped into buckets.
// Default: client address and matched route
func WithKeyFunc(fn KeyFunc) Option {
	return func(cfg *config) {
		cfg.keyFunc = fn
	}
}

// WithIdleTTL sets how long an unused bucket is kept.
// Default: 5m
func WithIdleTTL(d time.Duration) Option {
	return func(cfg *config) {
		cfg.idleTTL = d
	}
}

// WithHeaders toggles the RateLimit-* response headers.
// Default: true
func WithHeaders(enabled bool) Option {
	return func(cfg *config) {
		cfg.headers = enabled
	}
}
