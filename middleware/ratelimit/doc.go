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

// Package ratelimit throttles requests per client with token buckets.
//
// Each key (by default the client address plus the matched route) owns a
// bucket refilled at rps tokens per second up to burst. A request without a
// token ends the queue with a 429 error carrying Retry-After; allowed
// responses carry RateLimit-Limit and RateLimit-Remaining.
//
// As a per-route middleware it takes the rate and burst as arguments:
//
//	route.WithMiddleware(route.R("rate-limit", 5, 10))
//
// Routes referencing the same arguments share one limiter, so buckets
// survive across requests even though factories run per dispatch.
package ratelimit
