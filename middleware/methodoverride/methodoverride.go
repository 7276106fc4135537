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

package methodoverride

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"rivaas.dev/dispatch/pipeline"
)

// Overrider rewrites the method of tunnelled requests.
type Overrider struct {
	header string
	field  string
	allow  map[string]bool
	onlyOn map[string]bool
}

// New creates an Overrider.
//
//	o := methodoverride.New()
//	req = o.Apply(req) // POST + "_method=PATCH" becomes PATCH
func New(opts ...Option) *Overrider {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	o := &Overrider{
		header: cfg.header,
		field:  cfg.field,
		allow:  make(map[string]bool, len(cfg.allow)),
		onlyOn: make(map[string]bool, len(cfg.onlyOn)),
	}
	for _, m := range cfg.allow {
		o.allow[strings.ToUpper(m)] = true
	}
	for _, m := range cfg.onlyOn {
		o.onlyOn[strings.ToUpper(m)] = true
	}

	return o
}

// Allowed reports whether method may be the target of an override.
func (o *Overrider) Allowed(method string) bool {
	return o.allow[strings.ToUpper(method)]
}

// Apply returns req with its method replaced by the requested override, or
// req unchanged when there is none or it is not allowed.
func (o *Overrider) Apply(req pipeline.Request) pipeline.Request {
	original := req.Method()
	if !o.onlyOn[strings.ToUpper(original)] {
		return req
	}

	method := req.Header(o.header)
	if method == "" {
		method = o.bodyField(req)
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" || !o.allow[method] {
		return req
	}

	return req.WithMethod(method).WithAttribute(pipeline.AttrOriginalMethod, original)
}

func (o *Overrider) bodyField(req pipeline.Request) string {
	if o.field == "" {
		return ""
	}
	if v, ok := req.ParsedValue(o.field); ok {
		return cast.ToString(v)
	}
	if req.BodyLen() == 0 {
		return ""
	}

	ct := req.ContentType()
	switch {
	case ct == "application/json" || strings.HasSuffix(ct, "+json"):
		return gjson.GetBytes(req.Body(), o.field).String()
	case ct == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(req.Body()))
		if err != nil {
			return ""
		}
		return values.Get(o.field)
	case ct == "multipart/form-data":
		return multipartField(req, o.field)
	}

	return ""
}

// multipartField scans the parts for a plain form field without buffering
// uploaded files.
func multipartField(req pipeline.Request, field string) string {
	_, params, err := mime.ParseMediaType(req.Header("Content-Type"))
	if err != nil || params["boundary"] == "" {
		return ""
	}

	mr := multipart.NewReader(bytes.NewReader(req.Body()), params["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return ""
		}
		if part.FormName() != field || part.FileName() != "" {
			continue
		}
		b, err := io.ReadAll(io.LimitReader(part, 64))
		if err != nil {
			return ""
		}

		return string(b)
	}
}

// OriginalMethod returns the method before override, or the current method
// when no override happened.
func OriginalMethod(req pipeline.Request) string {
	if m := req.AttributeString(pipeline.AttrOriginalMethod); m != "" {
		return m
	}

	return req.Method()
}
