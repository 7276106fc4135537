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

// Package bodyparser decodes request bodies into [pipeline.Request.Parsed]
// fields. JSON() handles application/json; Form() handles url-encoded and
// multipart forms, including uploaded files. Requests of other content types
// pass through untouched.
package bodyparser

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// Registry ids of the body parsers.
const (
	JSONID = "json-body"
	FormID = "form-body"
)

// ValueKey holds a JSON body that is not an object.
const ValueKey = "json"

var (
	// ErrMalformedJSON is returned for bodies that are not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON body")

	// ErrMalformedForm is returned for form bodies that cannot be decoded.
	ErrMalformedForm = errors.New("malformed form body")
)

// Option defines functional options for the body parsers.
type Option func(*config)

type config struct {
	maxMemory int64
}

// WithMaxMemory bounds the multipart bytes held in memory; larger files are
// spooled to disk.
// Default: 32 MiB
func WithMaxMemory(n int64) Option {
	return func(cfg *config) {
		cfg.maxMemory = n
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{maxMemory: 32 << 20}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func isJSON(ct string) bool {
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// JSON returns the JSON body parser. Object members become parsed fields;
// any other JSON value is stored under [ValueKey].
func JSON() pipeline.Middleware {
	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		if !isJSON(req.ContentType()) || req.BodyLen() == 0 {
			return next(req)
		}

		body := req.Body()
		if !gjson.ValidBytes(body) {
			return pipeline.Response{}, riverrors.WithStatus(ErrMalformedJSON, http.StatusBadRequest)
		}

		parsed := gjson.ParseBytes(body)
		fields, ok := parsed.Value().(map[string]any)
		if !ok {
			fields = map[string]any{ValueKey: parsed.Value()}
		}

		return next(req.WithParsed(fields))
	})
}

// Form returns the form body parser. Single-valued fields are strings,
// repeated fields are []string.
func Form(opts ...Option) pipeline.Middleware {
	cfg := newConfig(opts)

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		if req.BodyLen() == 0 {
			return next(req)
		}

		switch req.ContentType() {
		case "application/x-www-form-urlencoded":
			values, err := url.ParseQuery(string(req.Body()))
			if err != nil {
				return pipeline.Response{}, riverrors.WithStatus(fmt.Errorf("%w: %w", ErrMalformedForm, err), http.StatusBadRequest)
			}
			return next(req.WithParsed(flatten(values)))

		case "multipart/form-data":
			form, err := readMultipart(req, cfg.maxMemory)
			if err != nil {
				return pipeline.Response{}, riverrors.WithStatus(fmt.Errorf("%w: %w", ErrMalformedForm, err), http.StatusBadRequest)
			}
			// Spooled files live only as long as the queue below.
			defer func() { _ = form.RemoveAll() }()

			return next(req.WithParsed(flatten(form.Value)).WithFiles(form.File))
		}

		return next(req)
	})
}

func readMultipart(req pipeline.Request, maxMemory int64) (*multipart.Form, error) {
	_, params, err := mime.ParseMediaType(req.Header("Content-Type"))
	if err != nil {
		return nil, err
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, http.ErrMissingBoundary
	}

	return multipart.NewReader(bytes.NewReader(req.Body()), boundary).ReadForm(maxMemory)
}

func flatten(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = vs
	}

	return out
}
