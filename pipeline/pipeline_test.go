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

package pipeline

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		target     string
		wantMethod string
		wantPath   string
		wantQuery  map[string]string
	}{
		{name: "plain path", method: "get", target: "/users", wantMethod: "GET", wantPath: "/users"},
		{name: "with query", method: "POST", target: "/users?page=2&sort=name", wantMethod: "POST", wantPath: "/users", wantQuery: map[string]string{"page": "2", "sort": "name"}},
		{name: "empty target", method: "delete", target: "", wantMethod: "DELETE", wantPath: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := NewRequest(tt.method, tt.target)
			assert.Equal(t, tt.wantMethod, req.Method())
			assert.Equal(t, tt.wantPath, req.Path())
			for k, v := range tt.wantQuery {
				assert.Equal(t, v, req.Query(k))
			}
			assert.NotNil(t, req.Context())
		})
	}
}

func TestRequestWithIsCopyOnWrite(t *testing.T) {
	t.Parallel()

	base := NewRequest(http.MethodGet, "/").
		WithHeader("Accept", "text/html").
		WithAttribute("a", 1).
		WithParsed(map[string]any{"name": "ada"})

	derived := base.
		WithHeader("Accept", "application/json").
		WithAttribute("b", 2).
		WithParams(map[string]string{"id": "7"})

	assert.Equal(t, "text/html", base.Header("Accept"))
	assert.Equal(t, "application/json", derived.Header("Accept"))

	_, ok := base.Attribute("b")
	assert.False(t, ok, "base request must not see attributes added later")
	v, ok := derived.Attribute("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	assert.Empty(t, base.Param("id"))
	assert.Equal(t, "7", derived.Param("id"))
}

func TestRequestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	req := NewRequest(http.MethodPost, "/").
		WithBody([]byte("payload")).
		WithParsed(map[string]any{"k": "v"}).
		WithHeader("X-Test", "1")

	body := req.Body()
	body[0] = 'P'
	assert.Equal(t, "payload", string(req.Body()))

	parsed := req.Parsed()
	parsed["k"] = "changed"
	v, _ := req.ParsedValue("k")
	assert.Equal(t, "v", v)

	h := req.Headers()
	h.Set("X-Test", "2")
	assert.Equal(t, "1", req.Header("X-Test"))
}

func TestRequestInput(t *testing.T) {
	t.Parallel()

	req := NewRequest(http.MethodPost, "/?q=query&n=1").
		WithParsed(map[string]any{"n": 42, "name": "ada"})

	assert.Equal(t, "42", req.Input("n"), "body wins over query")
	assert.Equal(t, "ada", req.Input("name"))
	assert.Equal(t, "query", req.Input("q"))
	assert.Empty(t, req.Input("missing"))
}

func TestRequestContentTypeAndCookie(t *testing.T) {
	t.Parallel()

	req := NewRequest(http.MethodPost, "/").
		WithHeader("Content-Type", "Application/JSON; charset=utf-8").
		WithHeader("Cookie", "sid=abc; theme=dark")

	assert.Equal(t, "application/json", req.ContentType())

	c, err := req.Cookie("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", c.Value)

	_, err = req.Cookie("nope")
	assert.ErrorIs(t, err, http.ErrNoCookie)
}

func TestResponse(t *testing.T) {
	t.Parallel()

	t.Run("zero status reads as 200", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, http.StatusOK, Response{}.Status())
	})

	t.Run("redirect clamps status", func(t *testing.T) {
		t.Parallel()
		r := Redirect("/login", http.StatusOK)
		assert.True(t, r.IsRedirect())
		assert.Equal(t, http.StatusFound, r.Status())
		assert.Equal(t, "/login", r.Location())

		r = Redirect("/moved", http.StatusMovedPermanently)
		assert.Equal(t, http.StatusMovedPermanently, r.Status())
	})

	t.Run("raw keeps content type and body", func(t *testing.T) {
		t.Parallel()
		r := Raw(http.StatusCreated, "text/plain", []byte("hi"))
		assert.True(t, r.IsRaw())
		assert.Equal(t, "text/plain", r.Header("Content-Type"))
		assert.Equal(t, "hi", string(r.Body()))
	})

	t.Run("with header does not mutate the receiver", func(t *testing.T) {
		t.Parallel()
		base := NewResponse(http.StatusOK, nil).WithHeader("X-A", "1")
		derived := base.WithHeader("X-A", "2").WithAddedHeader("Vary", "Accept")
		assert.Equal(t, "1", base.Header("X-A"))
		assert.Equal(t, "2", derived.Header("X-A"))
		assert.Empty(t, base.Header("Vary"))
		assert.Empty(t, derived.WithoutHeader("Vary").Header("Vary"))
	})

	t.Run("view", func(t *testing.T) {
		t.Parallel()
		r := View("home", map[string]any{"title": "x"}).WithMessage("ok")
		assert.Equal(t, "home", r.Template())
		assert.Equal(t, "ok", r.Message())
		assert.False(t, r.IsRaw())
	})
}

func TestFuncAdapters(t *testing.T) {
	t.Parallel()

	mw := MiddlewareFunc(func(req Request, next Handler) (Response, error) {
		return next(req.WithAttribute("seen", true))
	})
	resp, err := mw.Process(NewRequest(http.MethodGet, "/"), func(req Request) (Response, error) {
		_, ok := req.Attribute("seen")
		return NewResponse(http.StatusOK, ok), nil
	})
	require.NoError(t, err)
	assert.Equal(t, true, resp.Data())

	f := FilterFunc(func(resp Response, _ Request) (Response, error) {
		return resp.WithStatus(http.StatusAccepted), nil
	})
	out, err := f.Process(Response{}, Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, out.Status())
}
