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

package csrf

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/middleware/session"
	"rivaas.dev/dispatch/pipeline"
)

func ok(pipeline.Request) (pipeline.Response, error) {
	return pipeline.NewResponse(http.StatusOK, nil), nil
}

// withSession runs mw behind the session middleware and hands the token of
// the new session to build, which returns the request to check.
func withSession(t *testing.T, mw pipeline.Middleware, method string, build func(req pipeline.Request, token string) pipeline.Request) error {
	t.Helper()

	_, err := session.New().Process(pipeline.NewRequest(method, "/widgets"), func(req pipeline.Request) (pipeline.Response, error) {
		sess, found := session.FromRequest(req)
		require.True(t, found)
		return mw.Process(build(req, sess.Token()), ok)
	})

	return err
}

func TestCSRF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  string
		build   func(req pipeline.Request, token string) pipeline.Request
		wantErr bool
	}{
		{name: "safe method", method: http.MethodGet, build: func(r pipeline.Request, _ string) pipeline.Request { return r }},
		{name: "header token", method: http.MethodPost, build: func(r pipeline.Request, tok string) pipeline.Request {
			return r.WithHeader("X-CSRF-Token", tok)
		}},
		{name: "form token", method: http.MethodPut, build: func(r pipeline.Request, tok string) pipeline.Request {
			return r.WithParsed(map[string]any{"_csrf": tok})
		}},
		{name: "query token is ignored", method: http.MethodPost, build: func(r pipeline.Request, tok string) pipeline.Request {
			return r.WithQuery(url.Values{"_csrf": {tok}})
		}, wantErr: true},
		{name: "non-string form token", method: http.MethodPatch, build: func(r pipeline.Request, _ string) pipeline.Request {
			return r.WithParsed(map[string]any{"_csrf": []string{"a", "b"}})
		}, wantErr: true},
		{name: "missing token", method: http.MethodPost, build: func(r pipeline.Request, _ string) pipeline.Request { return r }, wantErr: true},
		{name: "wrong token", method: http.MethodDelete, build: func(r pipeline.Request, _ string) pipeline.Request {
			return r.WithHeader("X-CSRF-Token", "forged")
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := withSession(t, New(), tt.method, tt.build)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrTokenMismatch)
			status, _ := riverrors.StatusOf(err)
			assert.Equal(t, http.StatusForbidden, status)
		})
	}
}

func TestCSRFWithoutSession(t *testing.T) {
	t.Parallel()

	_, err := New().Process(pipeline.NewRequest(http.MethodPost, "/"), ok)
	require.ErrorIs(t, err, ErrNoSession)
}
