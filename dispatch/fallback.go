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

package dispatch

import (
	"net/http"
	"strconv"
	"strings"

	"rivaas.dev/dispatch/pipeline"
)

// errorTemplate picks "errors/<status>" when the negotiator has it.
func (d *Dispatcher) errorTemplate(status int) string {
	if name := "errors/" + strconv.Itoa(status); d.negotiator.Has(name) {
		return name
	}

	return "errors/default"
}

func (d *Dispatcher) notFound(req pipeline.Request) (pipeline.Response, error) {
	data := map[string]any{
		"statusCode": http.StatusNotFound,
		"statusText": http.StatusText(http.StatusNotFound),
		"message":    "no route matches " + req.Path(),
		"path":       req.Path(),
	}

	return pipeline.NewResponse(http.StatusNotFound, data).
		WithTemplate(d.errorTemplate(http.StatusNotFound)).
		WithMessage(http.StatusText(http.StatusNotFound)), nil
}

func (d *Dispatcher) methodNotAllowed(allowed []string) pipeline.Handler {
	allow := strings.Join(allowed, ", ")

	return func(req pipeline.Request) (pipeline.Response, error) {
		data := map[string]any{
			"statusCode": http.StatusMethodNotAllowed,
			"statusText": http.StatusText(http.StatusMethodNotAllowed),
			"message":    req.Method() + " is not allowed for " + req.Path(),
			"path":       req.Path(),
			"allowed":    allowed,
		}

		return pipeline.NewResponse(http.StatusMethodNotAllowed, data).
			WithTemplate(d.errorTemplate(http.StatusMethodNotAllowed)).
			WithMessage(http.StatusText(http.StatusMethodNotAllowed)).
			WithHeader("Allow", allow), nil
	}
}
