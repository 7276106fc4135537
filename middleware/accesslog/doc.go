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

// Package accesslog writes one structured log record per request.
//
// Records are emitted after the rest of the queue has run, so the status is
// known: 5xx logs at Error, 4xx and slow requests at Warn, the rest at Info.
// Successful fast requests may be sampled deterministically by request id.
//
//	reg.Use(accesslog.ID, accesslog.New(
//	    accesslog.WithLogger(logger),
//	    accesslog.WithExcludePrefixes("/metrics"),
//	    accesslog.WithSlowThreshold(500*time.Millisecond),
//	))
package accesslog
