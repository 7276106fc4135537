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

// Package methodoverride lets HTML forms and limited clients tunnel PUT and
// PATCH through POST.
//
// Unlike the other middleware packages, the override is not a queue entry:
// it runs before route matching so the effective method is the one routed.
//
// # Override Sources
//
// Only requests whose method is in the trigger list (POST by default) are
// inspected, in this order:
//
//   - the X-HTTP-Method-Override header
//   - the _method body field (JSON bodies and url-encoded or multipart forms)
//
// The body is read without being consumed; body parsers later in the
// pipeline see it unchanged.
//
// # Allow List
//
// Only methods in the allow list are honoured. The default is PUT and PATCH;
// DELETE must be enabled explicitly:
//
//	o := methodoverride.New(methodoverride.WithAllow("PUT", "PATCH", "DELETE"))
//
// The method before override is kept in the [pipeline.AttrOriginalMethod]
// request attribute.
package methodoverride
