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

// Package errors defines the failure shapes understood by the dispatcher.
//
// Domain errors opt into richer responses by implementing small interfaces:
//   - [ErrorType] supplies an HTTP status,
//   - [ErrorCode] supplies a machine-readable code,
//   - [ErrorDetails] supplies structured details.
//
// Two failure paths exist. An uninitialized storage condition
// ([ErrUninitializedStorage], [*StorageError]) is answered with a dedicated
// "setup required" page. Anything else is flattened by [Flatten] into a
// [Failure]:
//
//	f := errors.Flatten(err, nil)
//	if !devMode {
//	    f = f.Public()
//	}
//
// The package is usually imported as riverrors to keep the standard library
// errors package in scope.
package errors
