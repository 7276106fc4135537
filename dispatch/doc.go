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

// Package dispatch turns requests into responses.
//
// A [Dispatcher] owns the frozen route table, the router, the middleware
// registry, the failure normalizer and the negotiator. For every request it:
//
//  1. applies method override (POST only, before matching),
//  2. matches the effective method and path,
//  3. builds the queue: framework middleware (session, client-ip, json-body,
//     form-body), the conditional middleware that are registered and
//     enabled, the route's own middleware and finally the route handler,
//  4. runs the queue and the route's filters as one guarded unit,
//  5. negotiates the output format and emits it.
//
// Unmatched paths and methods get a 404 or 405 terminal instead of a route
// handler. They still pass through the framework and conditional middleware.
//
// Framework and conditional middleware are built once by [New]; per-route
// middleware and filters are built for each request from their factories.
package dispatch
