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
	"bytes"
	"context"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// Request is an immutable view of an incoming HTTP request.
//
// The zero value is an empty request. Use [NewRequest] to build one from a
// method and target.
type Request struct {
	ctx        context.Context
	method     string
	path       string
	host       string
	remoteAddr string
	header     http.Header
	query      url.Values
	body       []byte
	parsed     map[string]any
	files      map[string][]*multipart.FileHeader
	attrs      map[string]any
	params     map[string]string
}

// NewRequest builds a request from a method and a request target such as
// "/users/7?expand=team". The method is upper-cased.
func NewRequest(method, target string) Request {
	path, rawQuery, _ := strings.Cut(target, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	if path == "" {
		path = "/"
	}

	return Request{
		ctx:    context.Background(),
		method: strings.ToUpper(method),
		path:   path,
		header: http.Header{},
		query:  query,
	}
}

// Context returns the request context. It is never nil.
func (r Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}

	return r.ctx
}

// Method returns the effective request method.
func (r Request) Method() string { return r.method }

// Path returns the request path without the query string.
func (r Request) Path() string { return r.path }

// Host returns the Host header value as received by the server.
func (r Request) Host() string { return r.host }

// RemoteAddr returns the network address of the peer ("ip:port").
func (r Request) RemoteAddr() string { return r.remoteAddr }

// Header returns the first value of the named header.
func (r Request) Header(key string) string { return r.header.Get(key) }

// Headers returns a copy of all request headers.
func (r Request) Headers() http.Header { return r.header.Clone() }

// Query returns the first value of the named query parameter.
func (r Request) Query(key string) string { return r.query.Get(key) }

// QueryValues returns a copy of the parsed query string.
func (r Request) QueryValues() url.Values {
	return url.Values(http.Header(r.query).Clone())
}

// ContentType returns the media type of the body without parameters,
// lower-cased.
func (r Request) ContentType() string {
	ct := r.header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}

	return strings.ToLower(strings.TrimSpace(ct))
}

// Body returns a copy of the raw request body.
func (r Request) Body() []byte { return bytes.Clone(r.body) }

// BodyLen returns the size of the raw body in bytes.
func (r Request) BodyLen() int { return len(r.body) }

// Parsed returns a copy of the decoded body fields, or nil when no body
// parser has run.
func (r Request) Parsed() map[string]any { return maps.Clone(r.parsed) }

// ParsedValue returns one decoded body field.
func (r Request) ParsedValue(key string) (any, bool) {
	v, ok := r.parsed[key]
	return v, ok
}

// Input returns a decoded body field as a string, falling back to the query
// string when the body has no such field.
func (r Request) Input(key string) string {
	if v, ok := r.parsed[key]; ok {
		return cast.ToString(v)
	}

	return r.query.Get(key)
}

// Files returns a copy of the uploaded files, keyed by form field name.
func (r Request) Files() map[string][]*multipart.FileHeader { return maps.Clone(r.files) }

// File returns the first uploaded file for the form field.
func (r Request) File(key string) (*multipart.FileHeader, bool) {
	fhs := r.files[key]
	if len(fhs) == 0 {
		return nil, false
	}

	return fhs[0], true
}

// Attribute returns a request attribute set by middleware.
func (r Request) Attribute(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// AttributeString returns a request attribute as a string, or "" if unset.
func (r Request) AttributeString(key string) string {
	v, ok := r.attrs[key]
	if !ok {
		return ""
	}

	return cast.ToString(v)
}

// Attributes returns a copy of all request attributes.
func (r Request) Attributes() map[string]any { return maps.Clone(r.attrs) }

// Param returns a path variable captured by the router.
func (r Request) Param(key string) string { return r.params[key] }

// Params returns a copy of the path variables.
func (r Request) Params() map[string]string { return maps.Clone(r.params) }

// Cookie returns the named cookie.
func (r Request) Cookie(name string) (*http.Cookie, error) {
	return (&http.Request{Header: r.header}).Cookie(name)
}

// WithContext returns a copy of r using ctx.
func (r Request) WithContext(ctx context.Context) Request {
	r.ctx = ctx
	return r
}

// WithMethod returns a copy of r with an upper-cased method.
func (r Request) WithMethod(method string) Request {
	r.method = strings.ToUpper(method)
	return r
}

// WithPath returns a copy of r with another path.
func (r Request) WithPath(path string) Request {
	r.path = path
	return r
}

// WithHost returns a copy of r with another host.
func (r Request) WithHost(host string) Request {
	r.host = host
	return r
}

// WithRemoteAddr returns a copy of r with another peer address.
func (r Request) WithRemoteAddr(addr string) Request {
	r.remoteAddr = addr
	return r
}

// WithHeader returns a copy of r with the header key set to value.
func (r Request) WithHeader(key, value string) Request {
	h := r.header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	r.header = h

	return r
}

// WithHeaders returns a copy of r with its headers replaced by a copy of h.
func (r Request) WithHeaders(h http.Header) Request {
	r.header = h.Clone()
	if r.header == nil {
		r.header = http.Header{}
	}

	return r
}

// WithQuery returns a copy of r with its query replaced by a copy of q.
func (r Request) WithQuery(q url.Values) Request {
	r.query = url.Values(http.Header(q).Clone())
	return r
}

// WithBody returns a copy of r with another raw body.
func (r Request) WithBody(body []byte) Request {
	r.body = bytes.Clone(body)
	return r
}

// WithParsed returns a copy of r with the decoded body fields replaced.
func (r Request) WithParsed(fields map[string]any) Request {
	r.parsed = maps.Clone(fields)
	return r
}

// WithFiles returns a copy of r with the uploaded files replaced.
func (r Request) WithFiles(files map[string][]*multipart.FileHeader) Request {
	r.files = maps.Clone(files)
	return r
}

// WithAttribute returns a copy of r with one attribute set.
func (r Request) WithAttribute(key string, value any) Request {
	attrs := make(map[string]any, len(r.attrs)+1)
	maps.Copy(attrs, r.attrs)
	attrs[key] = value
	r.attrs = attrs

	return r
}

// WithParams returns a copy of r with the path variables replaced.
func (r Request) WithParams(params map[string]string) Request {
	r.params = maps.Clone(params)
	return r
}
