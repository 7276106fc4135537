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

package clientip

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/pipeline"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "direct public peer ignores headers", remote: "203.0.113.9:5000", headers: map[string]string{"X-Forwarded-For": "1.2.3.4"}, want: "203.0.113.9"},
		{name: "private peer trusts xff", remote: "10.0.0.2:80", headers: map[string]string{"X-Forwarded-For": "198.51.100.7"}, want: "198.51.100.7"},
		{name: "rightmost untrusted wins", remote: "10.0.0.2:80", headers: map[string]string{"X-Forwarded-For": "6.6.6.6, 198.51.100.7, 10.0.0.3"}, want: "198.51.100.7"},
		{name: "x-real-ip fallback", remote: "10.0.0.2:80", headers: map[string]string{"X-Real-IP": "198.51.100.8"}, want: "198.51.100.8"},
		{name: "garbage header ignored", remote: "10.0.0.2:80", headers: map[string]string{"X-Real-IP": "nope"}, want: "10.0.0.2"},
		{name: "explicit proxy list", opts: []Option{WithTrustedProxies("203.0.113.0/24")}, remote: "203.0.113.9:1", headers: map[string]string{"X-Forwarded-For": "198.51.100.7"}, want: "198.51.100.7"},
		{name: "private peer untrusted with explicit list", opts: []Option{WithTrustedProxies("203.0.113.1")}, remote: "10.0.0.2:1", headers: map[string]string{"X-Forwarded-For": "198.51.100.7"}, want: "10.0.0.2"},
		{name: "all hops trusted returns leftmost seen", remote: "10.0.0.2:80", headers: map[string]string{"X-Forwarded-For": "10.0.0.5, 10.0.0.4"}, want: "10.0.0.5"},
		{name: "ipv6 peer", remote: "[::1]:8080", headers: map[string]string{"X-Forwarded-For": "2001:db8::1"}, want: "2001:db8::1"},
		{name: "remote without port", remote: "198.51.100.1", want: "198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := New(tt.opts...)
			require.NoError(t, err)

			req := pipeline.NewRequest(http.MethodGet, "/").WithRemoteAddr(tt.remote)
			for k, v := range tt.headers {
				req = req.WithHeader(k, v)
			}
			assert.Equal(t, tt.want, r.Resolve(req))
		})
	}
}

func TestNewRejectsBadProxy(t *testing.T) {
	t.Parallel()

	_, err := New(WithTrustedProxies("10.0.0.0/99"))
	require.Error(t, err)
	_, err = New(WithTrustedProxies("proxy.local"))
	require.Error(t, err)
}

func TestProcessSetsAttribute(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	req := pipeline.NewRequest(http.MethodGet, "/").WithRemoteAddr("127.0.0.1:9").WithHeader("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "127.0.0.1", FromRequest(req), "falls back to the peer")

	_, err = r.Process(req, func(req pipeline.Request) (pipeline.Response, error) {
		assert.Equal(t, "198.51.100.2", FromRequest(req))
		return pipeline.Response{}, nil
	})
	require.NoError(t, err)
}
