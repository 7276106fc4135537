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

// Package timeout bounds how long the rest of the queue may run.
//
// The middleware puts a deadline on the request context and runs the
// remaining queue on its own goroutine. When the deadline passes first, the
// queue's eventual result is discarded and the middleware fails with an
// error wrapping [context.DeadlineExceeded], which the failure normalizer
// maps to 504 Gateway Timeout. Handlers should watch req.Context() to stop
// work early.
//
// A panic in the queue is re-raised on the caller's goroutine so the
// failure normalizer still sees it.
//
//	route.WithMiddleware(route.R("timeout", "2s"))
package timeout
