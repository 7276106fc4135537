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

package errors

import (
	"errors"
	"net/http"
	"slices"
)

// ErrUninitializedStorage marks a required persistent resource that does not
// exist yet, for example before the first migration ran. It is answered with
// a "setup required" page instead of a generic failure.
var ErrUninitializedStorage = errors.New("storage is not initialized")

// StorageError describes an uninitialized storage condition together with
// operator-facing remediation hints.
type StorageError struct {
	// Resource names what is missing, e.g. "accounts table".
	Resource string

	// Hints are shown to operators in development mode only.
	Hints []string

	// Err is the underlying driver error, if any.
	Err error
}

// Uninitialized returns a [*StorageError] for resource.
//
//	if errors.Is(err, sql.ErrNoRows) && firstBoot {
//	    return pipeline.Response{}, riverrors.Uninitialized("account types",
//	        "run `dispatchd migrate`", "seed the default account type")
//	}
func Uninitialized(resource string, hints ...string) *StorageError {
	return &StorageError{Resource: resource, Hints: hints}
}

// Error implements error.
func (e *StorageError) Error() string {
	msg := ErrUninitializedStorage.Error()
	if e.Resource != "" {
		msg += ": " + e.Resource
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUninitializedStorage) true.
func (e *StorageError) Is(target error) bool { return target == ErrUninitializedStorage }

// HTTPStatus implements [ErrorType].
func (e *StorageError) HTTPStatus() int { return http.StatusServiceUnavailable }

// AsStorageError reports whether err signals uninitialized storage and
// returns its description. A bare [ErrUninitializedStorage] yields a
// description without resource or hints.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return &StorageError{Resource: se.Resource, Hints: slices.Clone(se.Hints), Err: se.Err}, true
	}
	if errors.Is(err, ErrUninitializedStorage) {
		return &StorageError{}, true
	}

	return nil, false
}
