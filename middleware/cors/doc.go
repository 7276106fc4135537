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

// Package cors answers CORS preflight requests and decorates cross-origin
// responses with Access-Control-* headers.
//
// Requests without an Origin header, or from origins that are not allowed,
// pass through untouched. Preflight requests (OPTIONS) from allowed origins
// are answered with 204 No Content and never reach the route.
//
//	reg.Use(cors.ID, cors.New(
//	    cors.WithAllowedOrigins("https://app.example.com"),
//	    cors.WithAllowCredentials(true),
//	))
package cors
