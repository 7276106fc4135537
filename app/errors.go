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

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ConfigError describes one invalid setting.
type ConfigError struct {
	// Field is the dotted settings path, e.g. "server.addr".
	Field string
	// Value is the offending value; nil for missing values.
	Value any
	// Message explains the failure.
	Message string
	// Constraint names the violated rule, if any.
	Constraint string
}

// Error implements error.
func (e *ConfigError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("configuration error in %s: %s (constraint: %s, value: %v)",
			e.Field, e.Message, e.Constraint, e.Value)
	}
	if e.Value != nil {
		return fmt.Sprintf("configuration error in %s: %s (value: %v)", e.Field, e.Message, e.Value)
	}

	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Message)
}

// ValidationError collects every [ConfigError] found in one pass.
type ValidationError struct {
	Errors []*ConfigError
}

// Error implements error.
func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation errors: (no errors)"
	case 1:
		return ve.Errors[0].Error()
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "validation errors (%d):", len(ve.Errors))
	for i, err := range ve.Errors {
		fmt.Fprintf(&msg, "\n  %d. %s", i+1, err.Error())
	}

	return msg.String()
}

// Add appends err.
func (ve *ValidationError) Add(err *ConfigError) {
	ve.Errors = append(ve.Errors, err)
}

// Field returns the first error for field, or nil.
func (ve *ValidationError) Field(field string) *ConfigError {
	for _, err := range ve.Errors {
		if err.Field == field {
			return err
		}
	}

	return nil
}

// ToError returns nil when no errors were collected.
func (ve *ValidationError) ToError() error {
	if len(ve.Errors) == 0 {
		return nil
	}

	return ve
}

func newFieldError(field string, value any, message, constraint string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Message: message, Constraint: constraint}
}

// addValidatorErrors converts validator failures. Namespaces start with the
// root struct name, which is dropped.
func (ve *ValidationError) addValidatorErrors(err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add(newFieldError("settings", nil, err.Error(), ""))
		return
	}

	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		constraint := fe.Tag()
		if fe.Param() != "" {
			constraint += "=" + fe.Param()
		}
		ve.Add(newFieldError(field, fe.Value(), message(fe), constraint))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "cannot be empty"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "startswith":
		return "must start with " + fe.Param()
	}

	return "failed " + fe.Tag() + " validation"
}
