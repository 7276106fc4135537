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

package negotiate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/pipeline"
)

func TestAccepts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		offers []string
		want   string
	}{
		{name: "empty header takes first offer", header: "", offers: []string{"text/html", "application/json"}, want: "text/html"},
		{name: "exact match", header: "application/json", offers: []string{"text/html", "application/json"}, want: "application/json"},
		{name: "quality wins", header: "text/html;q=0.5, application/json", offers: []string{"text/html", "application/json"}, want: "application/json"},
		{name: "browser header", header: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", offers: []string{"text/html", "application/json"}, want: "text/html"},
		{name: "wildcard subtype", header: "application/*", offers: []string{"text/html", "application/json"}, want: "application/json"},
		{name: "specific beats wildcard at same quality", header: "*/*, application/json", offers: []string{"text/html", "application/json"}, want: "application/json"},
		{name: "short names", header: "application/json", offers: []string{"html", "json"}, want: "json"},
		{name: "q=0 rejects", header: "application/json;q=0, text/html;q=0", offers: []string{"text/html", "application/json"}, want: ""},
		{name: "malformed q is skipped", header: "application/json;q=2, text/html", offers: []string{"application/json", "text/html"}, want: "text/html"},
		{name: "no offers", header: "*/*", offers: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Accepts(tt.header, tt.offers...))
		})
	}
}

func TestAcceptsToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "br", AcceptsToken("gzip, deflate, br", "br", "gzip"))
	assert.Equal(t, "gzip", AcceptsToken("gzip;q=1.0, br;q=0.5", "br", "gzip"))
	assert.Equal(t, "gzip", AcceptsToken("br;q=0, *", "br", "gzip"))
	assert.Empty(t, AcceptsToken("", "br", "gzip"))
	assert.Empty(t, AcceptsToken("identity", "br", "gzip"))
}

func TestParseQuality(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"1": 1000, "1.0": 1000, "1.000": 1000, "0": 0, "0.5": 500, "0.25": 250, "0.001": 1,
		"": -1, "1.5": -1, "2": -1, "0.": -1, "01": -1, "0.1234": -1, "0.x": -1,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseQuality(in), "parseQuality(%q)", in)
	}
}

func TestNewRequiresAFormat(t *testing.T) {
	t.Parallel()

	_, err := New(WithJSON(false), WithHTML(false))
	require.ErrorIs(t, err, ErrNoOutputFormat)

	n, err := New(WithHTML(false))
	require.NoError(t, err)
	assert.Nil(t, n.Renderer())
	assert.False(t, n.Has("errors/default"))

	n, err = New()
	require.NoError(t, err)
	assert.True(t, n.Has("errors/default"))
}

func jsonRequest() pipeline.Request {
	return pipeline.NewRequest(http.MethodGet, "/").WithHeader("Accept", "application/json")
}

func htmlRequest() pipeline.Request {
	return pipeline.NewRequest(http.MethodGet, "/").WithHeader("Accept", "text/html")
}

func TestBuildJSONEnvelope(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)

	resp := pipeline.NewResponse(http.StatusCreated, map[string]any{"id": 7}).WithMessage("created").WithHeader("X-Id", "7")
	out, err := n.Build(resp, jsonRequest())
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, out.Status)
	assert.Equal(t, "application/json; charset=utf-8", out.Header.Get("Content-Type"))
	assert.Equal(t, "7", out.Header.Get("X-Id"))
	assert.Equal(t, "Accept", out.Header.Get("Vary"))

	var env map[string]any
	require.NoError(t, json.Unmarshal(out.Body, &env))
	assert.InDelta(t, 201, env["status"], 0)
	assert.Equal(t, "created", env["message"])
	assert.Equal(t, map[string]any{"id": float64(7)}, env["data"])
}

func TestBuildXHRPrefersJSON(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)

	req := htmlRequest().WithHeader("X-Requested-With", "XMLHttpRequest")
	assert.True(t, n.WantsJSON(req))
	assert.False(t, n.WantsJSON(htmlRequest()))
}

func TestBuildHTML(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)

	data := map[string]any{"statusCode": 500, "statusText": "Internal Server Error", "message": "<b>boom</b>", "errorId": "err-1"}
	out, err := n.Build(pipeline.NewResponse(http.StatusInternalServerError, data).WithTemplate("errors/default"), htmlRequest())
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, out.Status)
	assert.Equal(t, "text/html; charset=utf-8", out.Header.Get("Content-Type"))
	body := string(out.Body)
	assert.Contains(t, body, "<title>500 Internal Server Error</title>")
	assert.Contains(t, body, "&lt;b&gt;boom&lt;/b&gt;", "html is escaped")
	assert.Contains(t, body, "err-1")
}

func TestBuildWithoutTemplateFallsBackToJSON(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)
	out, err := n.Build(pipeline.NewResponse(http.StatusOK, "x"), htmlRequest())
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", out.Header.Get("Content-Type"))

	htmlOnly, err := New(WithJSON(false))
	require.NoError(t, err)
	_, err = htmlOnly.Build(pipeline.NewResponse(http.StatusOK, "x"), jsonRequest())
	require.ErrorIs(t, err, ErrNoTemplate)
}

func TestBuildRedirectShortCircuits(t *testing.T) {
	t.Parallel()

	n, err := New(WithHTML(false))
	require.NoError(t, err)

	out, err := n.Build(pipeline.Redirect("/login", http.StatusSeeOther), jsonRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, out.Status)
	assert.Equal(t, "/login", out.Header.Get("Location"))
	assert.Empty(t, out.Body)
}

func TestBuildRaw(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)

	out, err := n.Build(pipeline.Raw(http.StatusOK, "text/csv", []byte("a,b\n")), jsonRequest())
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.Header.Get("Content-Type"))
	assert.Equal(t, "a,b\n", string(out.Body))
	assert.Equal(t, "4", out.Header.Get("Content-Length"))
}

func TestBuildUnknownTemplate(t *testing.T) {
	t.Parallel()

	n, err := New()
	require.NoError(t, err)
	_, err = n.Build(pipeline.View("nope", nil), htmlRequest())
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestBuildUnencodableJSON(t *testing.T) {
	t.Parallel()

	n, err := New(WithHTML(false))
	require.NoError(t, err)
	_, err = n.Build(pipeline.NewResponse(http.StatusOK, make(chan int)), jsonRequest())
	require.Error(t, err)
}

func TestTemplateRendererOverrides(t *testing.T) {
	t.Parallel()

	user := fstest.MapFS{
		"errors/404.html":     {Data: []byte(`{{define "content"}}custom missing {{.message}}{{end}}{{template "layouts/base" .}}`)},
		"home.html":           {Data: []byte(`{{template "partials/greet" .}}`)},
		"partials/greet.tmpl": {Data: []byte(`hello {{.}}`)},
		"README.md":           {Data: []byte(`ignored`)},
	}

	r, err := NewTemplateRenderer(DefaultTemplates(), user)
	require.NoError(t, err)

	assert.True(t, r.Has("home"))
	assert.True(t, r.Has("errors/setup"))
	assert.False(t, r.Has("README"))
	assert.False(t, r.Has("layouts/base"), "layouts are not pages")
	assert.Contains(t, r.Names(), "errors/404")

	var b strings.Builder
	require.NoError(t, r.Render(&b, "errors/404", map[string]any{"message": "gone"}))
	assert.Contains(t, b.String(), "custom missing gone")

	b.Reset()
	require.NoError(t, r.Render(&b, "home", "ada"))
	assert.Equal(t, "hello ada", b.String())

	// Pages do not leak blocks into each other.
	b.Reset()
	require.NoError(t, r.Render(&b, "errors/405", map[string]any{"message": "use GET", "allowed": []string{"GET"}}))
	assert.NotContains(t, b.String(), "custom missing")
	assert.Contains(t, b.String(), "Allowed: GET")

	err = r.Render(io.Discard, "missing", nil)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestTemplateRendererParseError(t *testing.T) {
	t.Parallel()

	_, err := NewTemplateRenderer(fstest.MapFS{"bad.html": {Data: []byte(`{{ if }}`)}})
	require.Error(t, err)
}
