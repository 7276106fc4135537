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

// Package router resolves a method and path against a frozen
// [route.Table].
//
// Two strategies share one contract and must agree on every input:
//
//   - [StrategyTree] walks a prefix tree of path segments, trying static
//     children before parameters and parameters before wildcards.
//   - [StrategyLinear] tests anchored regular expressions compiled from
//     each pattern, ordered by the same specificity rank.
//
// A path that matches some pattern but not the method yields
// [MethodNotAllowed] with the allowed methods; no match at all yields
// [NotFound]. Routing failures are outcomes, never errors.
package router
