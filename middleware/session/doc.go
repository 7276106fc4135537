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

// Package session provides cookie-identified server-side sessions with flash
// messages and a per-session CSRF token.
//
// The middleware loads the session named by the cookie (or starts a new one),
// exposes it as the [pipeline.AttrSession] request attribute and writes it
// back to the [Store] once the rest of the queue has produced a response.
// When the queue returns an error nothing is written, and a consumed flash
// survives for the next request.
//
//	sess, _ := session.FromRequest(req)
//	sess.AddFlash("notice", "Widget saved")
//	return pipeline.Redirect("/widgets", http.StatusSeeOther), nil
package session
