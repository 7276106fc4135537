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

// Well-known request attribute keys set by the framework middleware.
const (
	// AttrSession holds the request's session (see middleware/session).
	AttrSession = "session"

	// AttrClientIP holds the resolved client IP address as a string.
	AttrClientIP = "client_ip"

	// AttrOriginalMethod holds the request method before method override.
	AttrOriginalMethod = "original_method"

	// AttrRequestID holds the request id assigned by middleware/requestid.
	AttrRequestID = "request_id"

	// AttrUser holds the authenticated principal (username or JWT subject).
	AttrUser = "user"

	// AttrClaims holds verified JWT claims.
	AttrClaims = "claims"

	// AttrScheme holds "http" or "https" as seen by the transport.
	AttrScheme = "scheme"

	// AttrRoute holds the matched route pattern, or "" when nothing matched.
	AttrRoute = "route"
)

// Handler is the terminal application handler of a route, and the shape of
// every continuation passed to a [Middleware].
type Handler func(req Request) (Response, error)

// Middleware is a unit of request processing. It either returns a response
// without calling next (short-circuit) or calls next with a possibly modified
// request and returns a possibly modified response.
//
// A middleware must call next at most once.
type Middleware interface {
	Process(req Request, next Handler) (Response, error)
}

// MiddlewareFunc adapts an ordinary function to the [Middleware] interface.
type MiddlewareFunc func(req Request, next Handler) (Response, error)

// Process calls f(req, next).
func (f MiddlewareFunc) Process(req Request, next Handler) (Response, error) {
	return f(req, next)
}

// Filter transforms a response after the middleware queue has produced it.
type Filter interface {
	Process(resp Response, req Request) (Response, error)
}

// FilterFunc adapts an ordinary function to the [Filter] interface.
type FilterFunc func(resp Response, req Request) (Response, error)

// Process calls f(resp, req).
func (f FilterFunc) Process(resp Response, req Request) (Response, error) {
	return f(resp, req)
}
