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

// Package basicauth provides HTTP Basic Authentication (RFC 7617).
//
// Failed authentication ends the queue with a 401 error carrying a
// WWW-Authenticate challenge; the failure normalizer renders it like any
// other error. The authenticated username is stored in the
// [pipeline.AttrUser] attribute.
//
// # Basic Usage
//
//	reg.Use(basicauth.ID, basicauth.New(
//	    basicauth.WithUsers(map[string]string{"admin": "secret"}),
//	    basicauth.WithRealm("Admin"),
//	))
//
// Credentials are compared in constant time.
package basicauth
