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

package metrics

import (
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Option defines functional options for the metrics middleware.
type Option func(*config)

type config struct {
	namespace  string
	registry   *prometheus.Registry
	buckets    []float64
	constLabel prometheus.Labels
	filter     *pathFilter
}

func defaultConfig() *config {
	return &config{
		buckets: prometheus.DefBuckets,
		filter:  newPathFilter(),
	}
}

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) Option {
	return func(cfg *config) {
		cfg.namespace = ns
	}
}

// WithRegistry registers the collectors on reg instead of a private
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(cfg *config) {
		cfg.registry = reg
	}
}

// WithBuckets sets the duration histogram buckets in seconds.
// Default: prometheus.DefBuckets
func WithBuckets(buckets ...float64) Option {
	return func(cfg *config) {
		cfg.buckets = buckets
	}
}

// WithServiceName adds a constant service label.
func WithServiceName(name string) Option {
	return func(cfg *config) {
		cfg.constLabel = prometheus.Labels{"service": name}
	}
}

// WithExcludePaths skips exact request paths.
func WithExcludePaths(paths ...string) Option {
	return func(cfg *config) {
		cfg.filter.addPaths(paths...)
	}
}

// WithExcludePrefixes skips request paths with a prefix.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.filter.addPrefixes(prefixes...)
	}
}

// WithExcludePatterns skips request paths matching a pattern.
func WithExcludePatterns(patterns ...*regexp.Regexp) Option {
	return func(cfg *config) {
		cfg.filter.addPatterns(patterns...)
	}
}

// pathFilter excludes paths by exact match, prefix or pattern.
type pathFilter struct {
	paths    map[string]bool
	prefixes []string
	patterns []*regexp.Regexp
}

func newPathFilter() *pathFilter {
	return &pathFilter{paths: make(map[string]bool)}
}

func (pf *pathFilter) addPaths(paths ...string) {
	for _, p := range paths {
		pf.paths[p] = true
	}
}

func (pf *pathFilter) addPrefixes(prefixes ...string) {
	pf.prefixes = append(pf.prefixes, prefixes...)
}

func (pf *pathFilter) addPatterns(patterns ...*regexp.Regexp) {
	pf.patterns = append(pf.patterns, patterns...)
}

func (pf *pathFilter) shouldExclude(path string) bool {
	if pf.paths[path] {
		return true
	}
	for _, prefix := range pf.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, pattern := range pf.patterns {
		if pattern.MatchString(path) {
			return true
		}
	}

	return false
}
