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

package filter

import (
	"errors"
	"strings"

	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/registry"
)

// Registry ids of the built-in filters.
const (
	IDSetHeader       = "set-header"
	IDAppendHeader    = "append-header"
	IDSecurityHeaders = "security-headers"
	IDCacheControl    = "cache-control"
	IDVary            = "vary"
)

var errHeaderArgs = errors.New("expected header name and value")

// Register adds the built-in filter factories to reg.
//
//	set-header(name, value)
//	append-header(name, value)
//	security-headers
//	cache-control(directive, ...)   e.g. cache-control(public, max-age=60)
//	vary(field, ...)
func Register(reg *registry.Registry) {
	reg.RegisterFilter(IDSetHeader, headerFactory(SetHeader))
	reg.RegisterFilter(IDAppendHeader, headerFactory(AppendHeader))

	reg.RegisterFilter(IDSecurityHeaders, func(...any) (pipeline.Filter, error) {
		return SecurityHeaders(), nil
	})

	reg.RegisterFilter(IDCacheControl, func(args ...any) (pipeline.Filter, error) {
		parts, err := registry.Args(args).Strings(0)
		if err != nil {
			return nil, err
		}

		return cacheControlValue(strings.Join(parts, ", "), true), nil
	})

	reg.RegisterFilter(IDVary, func(args ...any) (pipeline.Filter, error) {
		fields, err := registry.Args(args).Strings(0)
		if err != nil {
			return nil, err
		}

		return Vary(fields...), nil
	})
}

func headerFactory(build func(key, value string) pipeline.Filter) registry.FilterFactory {
	return func(args ...any) (pipeline.Filter, error) {
		a := registry.Args(args)
		if a.Len() != 2 {
			return nil, errHeaderArgs
		}
		key, err := a.String(0, "")
		if err != nil {
			return nil, err
		}
		value, err := a.String(1, "")
		if err != nil {
			return nil, err
		}

		return build(key, value), nil
	}
}
