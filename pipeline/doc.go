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

// Package pipeline defines the values and contracts that flow through the
// dispatcher: the immutable [Request] and [Response] values, the terminal
// [Handler], and the [Middleware] and [Filter] contracts.
//
// Request and Response are value types. Every With* method returns a new
// value and never mutates the receiver, so a middleware can hand a modified
// request downstream without affecting what earlier middleware observed:
//
//	req = req.WithAttribute(pipeline.AttrClientIP, "203.0.113.7")
//	resp, err := next(req)
//	if err != nil {
//	    return pipeline.Response{}, err
//	}
//	return resp.WithHeader("X-Served-By", "edge-1"), nil
//
// Maps held by a value are cloned on write. Accessors that return maps or
// slices return copies.
package pipeline
