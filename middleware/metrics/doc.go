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

// Package metrics records Prometheus request metrics and serves them.
//
// Requests are labelled by method, matched route pattern (never the raw
// path, to bound cardinality), status code and status class:
//
//	http_requests_total{method,route,status,status_class}
//	http_request_duration_seconds{method,route,status_class}
//	http_requests_active
//
// Unmatched requests use the route label "unmatched".
//
//	m, err := metrics.New(metrics.WithExcludePaths("/metrics"))
//	reg.Use(metrics.ID, m)
//	mux.Handle("/metrics", m.Handler())
package metrics
