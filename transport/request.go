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

package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// DefaultMaxBody is the request body limit used when none is configured.
const DefaultMaxBody int64 = 10 << 20

// ErrBodyTooLarge is returned by [FromHTTP] when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// FromHTTP reads r into a pipeline request. The body is read fully, up to
// maxBody bytes; maxBody <= 0 uses [DefaultMaxBody]. A larger body yields an
// error carrying status 413.
func FromHTTP(r *http.Request, maxBody int64) (pipeline.Request, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}

	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return pipeline.Request{}, riverrors.WithStatus(
					fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBody),
					http.StatusRequestEntityTooLarge)
			}

			return pipeline.Request{}, fmt.Errorf("transport: reading body: %w", err)
		}
	}

	req := pipeline.NewRequest(r.Method, "/").
		WithContext(r.Context()).
		WithPath(r.URL.Path).
		WithQuery(r.URL.Query()).
		WithHost(r.Host).
		WithRemoteAddr(r.RemoteAddr).
		WithHeaders(r.Header).
		WithBody(body).
		WithAttribute(pipeline.AttrScheme, scheme(r))

	return req, nil
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); proto == "https" || proto == "http" {
		return proto
	}

	return "http"
}
