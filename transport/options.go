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

package transport

import (
	"compress/gzip"
	"log/slog"
	"strings"
)

// Option configures a [Writer].
type Option func(*config)

type config struct {
	logger              *slog.Logger
	compress            bool
	gzipLevel           int
	brotliLevel         int
	minSize             int
	excludeContentTypes []string
}

func defaultConfig() *config {
	return &config{
		logger:      slog.New(slog.DiscardHandler),
		compress:    true,
		gzipLevel:   gzip.DefaultCompression,
		brotliLevel: 4,
		minSize:     1024,
		excludeContentTypes: []string{
			"image/", "video/", "audio/",
			"application/zip", "application/gzip", "application/x-gzip",
			"application/octet-stream", "font/woff",
		},
	}
}

// WithLogger logs compression failures.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithCompression toggles response compression.
// Default: true
func WithCompression(enabled bool) Option {
	return func(cfg *config) {
		cfg.compress = enabled
	}
}

// WithGzipLevel sets the gzip level (1-9, or -1 for the library default).
// Out of range values are ignored.
func WithGzipLevel(level int) Option {
	return func(cfg *config) {
		if level == gzip.DefaultCompression || (level >= gzip.BestSpeed && level <= gzip.BestCompression) {
			cfg.gzipLevel = level
		}
	}
}

// WithBrotliLevel sets the Brotli level (0-11). Levels above 5 are slow for
// dynamic content.
// Default: 4
func WithBrotliLevel(level int) Option {
	return func(cfg *config) {
		if level >= 0 && level <= 11 {
			cfg.brotliLevel = level
		}
	}
}

// WithMinSize sets the smallest body that is compressed.
// Default: 1024
func WithMinSize(size int) Option {
	return func(cfg *config) {
		cfg.minSize = max(size, 0)
	}
}

// WithExcludeContentTypes adds content type prefixes that are never
// compressed.
func WithExcludeContentTypes(types ...string) Option {
	return func(cfg *config) {
		for _, t := range types {
			cfg.excludeContentTypes = append(cfg.excludeContentTypes, strings.ToLower(t))
		}
	}
}
