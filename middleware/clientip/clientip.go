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

// Package clientip resolves the client address of a request and stores it in
// the [pipeline.AttrClientIP] attribute.
//
// Forwarding headers are honoured only when the direct peer is a trusted
// proxy. Without explicit proxies, private and link-local peers are trusted,
// which is safe only behind a reverse proxy.
package clientip

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the client-ip middleware.
const ID = "client-ip"

var privatePrefixes = mustPrefixes(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"fc00::/7",
	"fe80::/10",
	"::1/128",
)

func mustPrefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, netip.MustParsePrefix(c))
	}

	return out
}

// Option defines functional options for the client-ip middleware.
type Option func(*config)

type config struct {
	proxies []string
	headers []string
	maxHops int
}

// WithTrustedProxies sets the proxies, as CIDRs or single addresses, whose
// forwarding headers are believed.
func WithTrustedProxies(proxies ...string) Option {
	return func(cfg *config) {
		cfg.proxies = proxies
	}
}

// WithHeaders sets the forwarding headers consulted, in order.
// Default: X-Forwarded-For, X-Real-IP
func WithHeaders(headers ...string) Option {
	return func(cfg *config) {
		cfg.headers = headers
	}
}

// WithMaxHops bounds how many trusted proxies are skipped in
// X-Forwarded-For.
// Default: 5
func WithMaxHops(n int) Option {
	return func(cfg *config) {
		cfg.maxHops = n
	}
}

// Resolver extracts client addresses.
type Resolver struct {
	trusted []netip.Prefix
	headers []string
	maxHops int
}

// New returns a Resolver. It fails on a malformed proxy entry.
func New(opts ...Option) (*Resolver, error) {
	cfg := &config{headers: []string{"X-Forwarded-For", "X-Real-IP"}, maxHops: 5}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Resolver{headers: cfg.headers, maxHops: cfg.maxHops, trusted: privatePrefixes}
	if len(cfg.proxies) > 0 {
		r.trusted = make([]netip.Prefix, 0, len(cfg.proxies))
		for _, p := range cfg.proxies {
			prefix, err := parseProxy(p)
			if err != nil {
				return nil, err
			}
			r.trusted = append(r.trusted, prefix)
		}
	}

	return r, nil
}

func parseProxy(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("clientip: invalid CIDR %q: %w", s, err)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("clientip: invalid proxy address %q: %w", s, err)
	}

	return netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()), nil
}

func (r *Resolver) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range r.trusted {
		if p.Contains(addr) {
			return true
		}
	}

	return false
}

// Resolve returns the client address for req.
func (r *Resolver) Resolve(req pipeline.Request) string {
	remote := hostOnly(req.RemoteAddr())
	peer, err := netip.ParseAddr(remote)
	if err != nil || !r.isTrusted(peer) {
		return remote
	}

	for _, h := range r.headers {
		value := req.Header(h)
		if value == "" {
			continue
		}
		if strings.EqualFold(h, "X-Forwarded-For") {
			if ip := r.fromForwardedFor(value); ip != "" {
				return ip
			}
			continue
		}
		if addr, err := netip.ParseAddr(strings.TrimSpace(value)); err == nil {
			return addr.Unmap().String()
		}
	}

	return remote
}

// fromForwardedFor walks the chain right to left and returns the first
// address not belonging to a trusted proxy.
func (r *Resolver) fromForwardedFor(xff string) string {
	parts := strings.Split(xff, ",")
	hops := 0
	last := ""
	for i := len(parts) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(parts[i]))
		if err != nil {
			continue
		}
		last = addr.Unmap().String()
		if !r.isTrusted(addr) {
			return last
		}
		hops++
		if hops >= r.maxHops {
			break
		}
	}

	return last
}

func hostOnly(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}

// Process implements [pipeline.Middleware].
func (r *Resolver) Process(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
	return next(req.WithAttribute(pipeline.AttrClientIP, r.Resolve(req)))
}

// FromRequest returns the resolved client address, falling back to the
// peer address when the middleware has not run.
func FromRequest(req pipeline.Request) string {
	if ip := req.AttributeString(pipeline.AttrClientIP); ip != "" {
		return ip
	}

	return hostOnly(req.RemoteAddr())
}
