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

package filter

import (
	"fmt"
	"strings"
	"time"

	"rivaas.dev/dispatch/pipeline"
)

// CacheOption configures [CacheControl].
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	public               bool
	private              bool
	noStore              bool
	noCache              bool
	maxAge               time.Duration
	staleWhileRevalidate time.Duration
	staleIfError         time.Duration
	onlySuccess          bool
}

// WithPublic allows shared caches to store the response.
func WithPublic() CacheOption {
	return func(cfg *cacheConfig) { cfg.public = true }
}

// WithPrivate restricts caching to the client.
func WithPrivate() CacheOption {
	return func(cfg *cacheConfig) { cfg.private = true }
}

// WithNoStore forbids caching.
func WithNoStore() CacheOption {
	return func(cfg *cacheConfig) { cfg.noStore = true }
}

// WithNoCache requires revalidation before reuse.
func WithNoCache() CacheOption {
	return func(cfg *cacheConfig) { cfg.noCache = true }
}

// WithMaxAge sets max-age. Non-positive durations are ignored.
func WithMaxAge(d time.Duration) CacheOption {
	return func(cfg *cacheConfig) {
		if d > 0 {
			cfg.maxAge = d
		}
	}
}

// WithStaleWhileRevalidate sets stale-while-revalidate.
func WithStaleWhileRevalidate(d time.Duration) CacheOption {
	return func(cfg *cacheConfig) {
		if d > 0 {
			cfg.staleWhileRevalidate = d
		}
	}
}

// WithStaleIfError sets stale-if-error.
func WithStaleIfError(d time.Duration) CacheOption {
	return func(cfg *cacheConfig) {
		if d > 0 {
			cfg.staleIfError = d
		}
	}
}

// WithAnyStatus applies the header to error responses too. By default only
// 2xx and 3xx responses get it.
func WithAnyStatus() CacheOption {
	return func(cfg *cacheConfig) { cfg.onlySuccess = false }
}

func (cfg *cacheConfig) directive() string {
	parts := make([]string, 0, 7)
	if cfg.public {
		parts = append(parts, "public")
	}
	if cfg.private {
		parts = append(parts, "private")
	}
	if cfg.noStore {
		parts = append(parts, "no-store")
	}
	if cfg.noCache {
		parts = append(parts, "no-cache")
	}
	if cfg.maxAge > 0 {
		parts = append(parts, fmt.Sprintf("max-age=%d", int(cfg.maxAge.Seconds())))
	}
	if cfg.staleWhileRevalidate > 0 {
		parts = append(parts, fmt.Sprintf("stale-while-revalidate=%d", int(cfg.staleWhileRevalidate.Seconds())))
	}
	if cfg.staleIfError > 0 {
		parts = append(parts, fmt.Sprintf("stale-if-error=%d", int(cfg.staleIfError.Seconds())))
	}

	return strings.Join(parts, ", ")
}

// CacheControl returns a filter that sets the Cache-Control header.
//
//	filter.CacheControl(filter.WithPublic(), filter.WithMaxAge(time.Minute))
func CacheControl(opts ...CacheOption) pipeline.Filter {
	cfg := &cacheConfig{onlySuccess: true}
	for _, opt := range opts {
		opt(cfg)
	}

	return cacheControlValue(cfg.directive(), cfg.onlySuccess)
}

func cacheControlValue(value string, onlySuccess bool) pipeline.Filter {
	return pipeline.FilterFunc(func(resp pipeline.Response, _ pipeline.Request) (pipeline.Response, error) {
		if value == "" {
			return resp, nil
		}
		if onlySuccess && resp.Status() >= 400 {
			return resp, nil
		}

		return resp.WithHeader("Cache-Control", value), nil
	})
}
