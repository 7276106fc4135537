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

// Package requestid assigns every request an id, exposes it as the
// [pipeline.AttrRequestID] attribute and echoes it in the X-Request-ID
// response header.
//
// # Basic Usage
//
//	reg.Use(requestid.ID, requestid.New())
//
// # Generators
//
// IDs are UUID v7 by default, which sort by creation time. ULIDs are
// available for shorter, also sortable ids:
//
//	requestid.New(requestid.WithULID())
//
// # Client-Provided IDs
//
// An incoming X-Request-ID is reused when it looks safe (printable ASCII,
// at most 128 bytes). Disable with WithAllowClientID(false) when clients are
// untrusted.
package requestid
