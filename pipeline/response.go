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
	"net/http"
)

// Response is an immutable description of what should be sent back to the
// client. It is turned into bytes only at exit, by content negotiation.
//
// A response carries one of three payload kinds:
//   - a redirect target (see [Redirect]),
//   - a raw body emitted as is (see [Raw]),
//   - data plus an optional template name and message, rendered as a JSON
//     envelope or an HTML view depending on the client.
type Response struct {
	status   int
	header   http.Header
	body     []byte
	raw      bool
	data     any
	template string
	message  string
	location string
}

// NewResponse returns a response with the given status and data.
func NewResponse(status int, data any) Response {
	return Response{status: status, data: data}
}

// View returns a 200 response rendered with the named template.
func View(template string, data any) Response {
	return Response{status: http.StatusOK, template: template, data: data}
}

// Redirect returns a redirect response. A status outside 300-399 becomes
// 302 Found.
func Redirect(location string, status int) Response {
	if status < 300 || status > 399 {
		status = http.StatusFound
	}

	return Response{status: status, location: location}
}

// Raw returns a response whose body is written verbatim.
func Raw(status int, contentType string, body []byte) Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	return Response{status: status, header: h, body: bytes.Clone(body), raw: true}
}

// Status returns the status code. An unset status reads as 200.
func (r Response) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

// Header returns the first value of the named response header.
func (r Response) Header(key string) string { return r.header.Get(key) }

// Headers returns a copy of the response headers.
func (r Response) Headers() http.Header {
	if r.header == nil {
		return http.Header{}
	}

	return r.header.Clone()
}

// Data returns the payload rendered by content negotiation.
func (r Response) Data() any { return r.data }

// Template returns the template name, or "" when none was chosen.
func (r Response) Template() string { return r.template }

// Message returns the human-readable message of the JSON envelope.
func (r Response) Message() string { return r.message }

// Location returns the redirect target.
func (r Response) Location() string { return r.location }

// IsRedirect reports whether r is a redirect.
func (r Response) IsRedirect() bool { return r.location != "" }

// IsRaw reports whether r carries a pre-encoded body.
func (r Response) IsRaw() bool { return r.raw }

// Body returns a copy of the raw body.
func (r Response) Body() []byte { return bytes.Clone(r.body) }

// WithStatus returns a copy of r with another status.
func (r Response) WithStatus(status int) Response {
	r.status = status
	return r
}

// WithHeader returns a copy of r with the header key set to value.
func (r Response) WithHeader(key, value string) Response {
	h := r.Headers()
	h.Set(key, value)
	r.header = h

	return r
}

// WithAddedHeader returns a copy of r with value appended to the header key.
func (r Response) WithAddedHeader(key, value string) Response {
	h := r.Headers()
	h.Add(key, value)
	r.header = h

	return r
}

// WithoutHeader returns a copy of r without the header key.
func (r Response) WithoutHeader(key string) Response {
	h := r.Headers()
	h.Del(key)
	r.header = h

	return r
}

// WithData returns a copy of r with another payload.
func (r Response) WithData(data any) Response {
	r.data = data
	return r
}

// WithTemplate returns a copy of r rendered with the named template.
func (r Response) WithTemplate(name string) Response {
	r.template = name
	return r
}

// WithMessage returns a copy of r with another message.
func (r Response) WithMessage(msg string) Response {
	r.message = msg
	return r
}

// WithBody returns a copy of r carrying a raw body.
func (r Response) WithBody(body []byte) Response {
	r.body = bytes.Clone(body)
	r.raw = true

	return r
}
