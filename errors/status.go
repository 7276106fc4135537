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

package errors

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
)

// ErrorType is implemented by errors that carry an HTTP status.
//
// Example:
//
//	type NotFoundError struct{ ID string }
//	func (e NotFoundError) Error() string   { return "not found: " + e.ID }
//	func (e NotFoundError) HTTPStatus() int { return http.StatusNotFound }
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails is implemented by errors that carry structured details, such
// as per-field validation messages.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode is implemented by errors that carry a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// ErrorHeaders is implemented by errors whose response carries extra
// headers, such as WWW-Authenticate on a 401 or Retry-After on a 429.
type ErrorHeaders interface {
	error
	Headers() http.Header
}

// StatusResolver maps an error without a usable HTTP status to one.
type StatusResolver func(err error) int

// WithStatus wraps err with an explicit HTTP status.
//
//	return errors.WithStatus(fmt.Errorf("widget %s: %w", id, errGone), http.StatusGone)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

// WithHeaders wraps err with an HTTP status and response headers.
//
//	return errors.WithHeaders(errUnauthorized, http.StatusUnauthorized,
//		http.Header{"WWW-Authenticate": {`Basic realm="admin"`}})
func WithHeaders(err error, status int, header http.Header) error {
	return &statusError{err: err, status: status, header: header.Clone()}
}

type statusError struct {
	err    error
	status int
	header http.Header
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}

	return e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

func (e *statusError) HTTPStatus() int { return e.status }

func (e *statusError) Headers() http.Header { return e.header.Clone() }

// HeadersOf collects the headers carried by every [ErrorHeaders] in err's
// chain. Outer errors win over inner ones.
func HeadersOf(err error) http.Header {
	out := http.Header{}
	for err != nil {
		if eh, ok := err.(ErrorHeaders); ok {
			for k, v := range eh.Headers() {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
		err = errors.Unwrap(err)
	}

	return out
}

// ValidStatus reports whether code is a valid HTTP status (100-599).
func ValidStatus(code int) bool {
	return code >= 100 && code <= 599
}

// StatusOf returns the status carried by err through [ErrorType], if it is
// a valid HTTP status.
func StatusOf(err error) (int, bool) {
	var typed ErrorType
	if errors.As(err, &typed) {
		if s := typed.HTTPStatus(); ValidStatus(s) {
			return s, true
		}
	}

	return 0, false
}

// DefaultStatus maps well-known standard library errors to statuses and
// everything else to 500.
func DefaultStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
