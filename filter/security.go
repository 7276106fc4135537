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
	"maps"

	"rivaas.dev/dispatch/pipeline"
)

// SecurityOption configures [SecurityHeaders].
type SecurityOption func(*securityConfig)

type securityConfig struct {
	frameOptions          string
	contentTypeNosniff    bool
	hstsMaxAge            int
	hstsIncludeSubdomains bool
	hstsPreload           bool
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string
	customHeaders         map[string]string
}

func defaultSecurityConfig() *securityConfig {
	return &securityConfig{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		hstsMaxAge:            31536000, // 1 year
		hstsIncludeSubdomains: true,
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
		customHeaders:         make(map[string]string),
	}
}

// WithFrameOptions sets X-Frame-Options. Empty disables it.
// Default: "DENY"
func WithFrameOptions(value string) SecurityOption {
	return func(cfg *securityConfig) { cfg.frameOptions = value }
}

// WithContentTypeNosniff toggles X-Content-Type-Options: nosniff.
func WithContentTypeNosniff(enabled bool) SecurityOption {
	return func(cfg *securityConfig) { cfg.contentTypeNosniff = enabled }
}

// WithHSTS configures Strict-Transport-Security. A maxAge of 0 disables it.
// The header is only sent for requests that arrived over HTTPS.
func WithHSTS(maxAge int, includeSubdomains, preload bool) SecurityOption {
	return func(cfg *securityConfig) {
		cfg.hstsMaxAge = maxAge
		cfg.hstsIncludeSubdomains = includeSubdomains
		cfg.hstsPreload = preload
	}
}

// WithContentSecurityPolicy sets Content-Security-Policy. Empty disables it.
// Default: "default-src 'self'"
func WithContentSecurityPolicy(policy string) SecurityOption {
	return func(cfg *securityConfig) { cfg.contentSecurityPolicy = policy }
}

// WithReferrerPolicy sets Referrer-Policy.
func WithReferrerPolicy(policy string) SecurityOption {
	return func(cfg *securityConfig) { cfg.referrerPolicy = policy }
}

// WithPermissionsPolicy sets Permissions-Policy.
func WithPermissionsPolicy(policy string) SecurityOption {
	return func(cfg *securityConfig) { cfg.permissionsPolicy = policy }
}

// WithCustomHeader adds an arbitrary header.
func WithCustomHeader(name, value string) SecurityOption {
	return func(cfg *securityConfig) { cfg.customHeaders[name] = value }
}

// SecurityHeaders returns a filter that sets the usual browser hardening
// headers. Headers already present on the response are left alone.
func SecurityHeaders(opts ...SecurityOption) pipeline.Filter {
	cfg := defaultSecurityConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	headers := map[string]string{}
	if cfg.frameOptions != "" {
		headers["X-Frame-Options"] = cfg.frameOptions
	}
	if cfg.contentTypeNosniff {
		headers["X-Content-Type-Options"] = "nosniff"
	}
	if cfg.contentSecurityPolicy != "" {
		headers["Content-Security-Policy"] = cfg.contentSecurityPolicy
	}
	if cfg.referrerPolicy != "" {
		headers["Referrer-Policy"] = cfg.referrerPolicy
	}
	if cfg.permissionsPolicy != "" {
		headers["Permissions-Policy"] = cfg.permissionsPolicy
	}
	maps.Copy(headers, cfg.customHeaders)

	var hsts string
	if cfg.hstsMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.hstsPreload {
			hsts += "; preload"
		}
	}

	return pipeline.FilterFunc(func(resp pipeline.Response, req pipeline.Request) (pipeline.Response, error) {
		for name, value := range headers {
			if resp.Header(name) == "" {
				resp = resp.WithHeader(name, value)
			}
		}
		if hsts != "" && req.AttributeString(pipeline.AttrScheme) == "https" {
			resp = resp.WithHeader("Strict-Transport-Security", hsts)
		}

		return resp, nil
	})
}
