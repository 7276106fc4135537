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

package registry

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Args reads factory arguments positionally with type coercion, so that
// references written in configuration ("rate-limit(5, 10)") and in code
// (route.R("rate-limit", 5.0, 10)) resolve the same way.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// String returns argument i as a string, or def when absent.
func (a Args) String(i int, def string) (string, error) {
	if i >= len(a) {
		return def, nil
	}
	s, err := cast.ToStringE(a[i])
	if err != nil {
		return "", fmt.Errorf("argument %d: %w", i, err)
	}

	return s, nil
}

// Int returns argument i as an int, or def when absent.
func (a Args) Int(i, def int) (int, error) {
	if i >= len(a) {
		return def, nil
	}
	n, err := cast.ToIntE(a[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i, err)
	}

	return n, nil
}

// Float returns argument i as a float64, or def when absent.
func (a Args) Float(i int, def float64) (float64, error) {
	if i >= len(a) {
		return def, nil
	}
	f, err := cast.ToFloat64E(a[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i, err)
	}

	return f, nil
}

// Duration returns argument i as a duration, or def when absent. Strings
// use time.ParseDuration syntax; numbers are nanoseconds.
func (a Args) Duration(i int, def time.Duration) (time.Duration, error) {
	if i >= len(a) {
		return def, nil
	}
	d, err := cast.ToDurationE(a[i])
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", i, err)
	}

	return d, nil
}

// Strings returns arguments from i onwards as strings.
func (a Args) Strings(i int) ([]string, error) {
	if i >= len(a) {
		return nil, nil
	}
	out := make([]string, 0, len(a)-i)
	for j := i; j < len(a); j++ {
		s, err := cast.ToStringE(a[j])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", j, err)
		}
		out = append(out, s)
	}

	return out, nil
}
