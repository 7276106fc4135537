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

// Package negotiate turns a [pipeline.Response] into bytes at exit.
//
// Redirects short-circuit. Raw bodies pass through. Otherwise the response
// is encoded as a JSON envelope when the client prefers JSON and JSON output
// is enabled:
//
//	{"status": 200, "data": {...}, "message": "..."}
//
// and rendered through the response's template when HTML output is enabled.
// A negotiator with neither format enabled cannot be constructed.
package negotiate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"rivaas.dev/dispatch/pipeline"
)

var (
	// ErrNoOutputFormat is returned by [New] when neither JSON nor HTML
	// output is enabled.
	ErrNoOutputFormat = errors.New("negotiate: no output format enabled")

	// ErrNoRenderer is returned by [New] when HTML output is enabled
	// without a renderer.
	ErrNoRenderer = errors.New("negotiate: html output requires a renderer")

	// ErrNoTemplate is returned by [Negotiator.Build] when an HTML response
	// has no template and JSON output is disabled.
	ErrNoTemplate = errors.New("negotiate: response has no template")
)

const (
	mimeJSON = "application/json"
	mimeHTML = "text/html"
)

// Output is the encoded response handed to the transport.
type Output struct {
	Status int
	Header http.Header
	Body   []byte
}

// Envelope is the JSON body shape.
type Envelope struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// Option configures a [Negotiator].
type Option func(*config)

type config struct {
	json     bool
	html     bool
	renderer Renderer
	indent   string
}

// WithJSON toggles JSON output.
// Default: true
func WithJSON(enabled bool) Option {
	return func(cfg *config) { cfg.json = enabled }
}

// WithHTML toggles HTML output.
// Default: true
func WithHTML(enabled bool) Option {
	return func(cfg *config) { cfg.html = enabled }
}

// WithRenderer sets the HTML renderer.
func WithRenderer(r Renderer) Option {
	return func(cfg *config) { cfg.renderer = r }
}

// WithIndent pretty-prints JSON with the given indent.
func WithIndent(indent string) Option {
	return func(cfg *config) { cfg.indent = indent }
}

// Negotiator picks the output format per request.
type Negotiator struct {
	cfg *config
}

// New returns a Negotiator. HTML output defaults to the built-in templates
// when no renderer is given.
func New(opts ...Option) (*Negotiator, error) {
	cfg := &config{json: true, html: true}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.json && !cfg.html {
		return nil, ErrNoOutputFormat
	}
	if cfg.html && cfg.renderer == nil {
		r, err := NewTemplateRenderer(DefaultTemplates())
		if err != nil {
			return nil, errors.Join(ErrNoRenderer, err)
		}
		cfg.renderer = r
	}

	return &Negotiator{cfg: cfg}, nil
}

// Renderer returns the HTML renderer, or nil when HTML is disabled.
func (n *Negotiator) Renderer() Renderer {
	if !n.cfg.html {
		return nil
	}

	return n.cfg.renderer
}

// Has reports whether the HTML renderer knows a template.
func (n *Negotiator) Has(name string) bool {
	return n.cfg.html && n.cfg.renderer.Has(name)
}

// WantsJSON reports whether req should be answered with JSON.
func (n *Negotiator) WantsJSON(req pipeline.Request) bool {
	switch {
	case !n.cfg.html:
		return true
	case !n.cfg.json:
		return false
	case req.Header("X-Requested-With") == "XMLHttpRequest":
		return true
	}

	return Accepts(req.Header("Accept"), mimeHTML, mimeJSON) == mimeJSON
}

// Build encodes resp for req.
func (n *Negotiator) Build(resp pipeline.Response, req pipeline.Request) (Output, error) {
	out := Output{Status: resp.Status(), Header: resp.Headers()}

	if resp.IsRedirect() {
		out.Header.Set("Location", resp.Location())
		return out, nil
	}

	if resp.IsRaw() {
		out.Body = resp.Body()
		return n.finish(out), nil
	}

	if n.cfg.json && n.cfg.html {
		out.Header.Add("Vary", "Accept")
	}

	if n.WantsJSON(req) || (resp.Template() == "" && n.cfg.json) {
		body, err := n.encodeJSON(resp)
		if err != nil {
			return Output{}, err
		}
		out.Header.Set("Content-Type", mimeJSON+"; charset=utf-8")
		out.Body = body

		return n.finish(out), nil
	}

	if resp.Template() == "" {
		return Output{}, ErrNoTemplate
	}

	var buf bytes.Buffer
	if err := n.cfg.renderer.Render(&buf, resp.Template(), resp.Data()); err != nil {
		return Output{}, fmt.Errorf("negotiate: rendering %q: %w", resp.Template(), err)
	}
	out.Header.Set("Content-Type", mimeHTML+"; charset=utf-8")
	out.Body = buf.Bytes()

	return n.finish(out), nil
}

func (n *Negotiator) encodeJSON(resp pipeline.Response) ([]byte, error) {
	env := Envelope{Status: resp.Status(), Data: resp.Data(), Message: resp.Message()}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if n.cfg.indent != "" {
		enc.SetIndent("", n.cfg.indent)
	}
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("negotiate: encoding json: %w", err)
	}

	return buf.Bytes(), nil
}

func (n *Negotiator) finish(out Output) Output {
	out.Header.Set("Content-Length", strconv.Itoa(len(out.Body)))
	return out
}
