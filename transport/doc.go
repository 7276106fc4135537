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

// Package transport connects net/http to the dispatch pipeline.
//
// [FromHTTP] reads an [http.Request] into an immutable [pipeline.Request],
// enforcing a body size limit. [Writer.Emit] writes a negotiated
// [negotiate.Output] to an [http.ResponseWriter], compressing the body with
// Brotli or gzip when the client accepts it and the body is large enough.
package transport
