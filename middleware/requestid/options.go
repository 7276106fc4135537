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

package requestid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Option defines functional options for the request id middleware.
type Option func(*config)

type config struct {
	headerName    string
	generator     func() string
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    "X-Request-ID",
		generator:     uuidV7,
		allowClientID: true,
	}
}

func uuidV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

// WithHeader sets the header carrying the id.
// Default: "X-Request-ID"
func WithHeader(headerName string) Option {
	return func(cfg *config) {
		cfg.headerName = headerName
	}
}

// WithGenerator sets a custom id generator.
func WithGenerator(gen func() string) Option {
	return func(cfg *config) {
		cfg.generator = gen
	}
}

// WithULID generates monotonic ULIDs instead of UUIDs.
func WithULID() Option {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)

	return WithGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()

		return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
	})
}

// WithAllowClientID controls whether a client-supplied id is reused.
// Default: true
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) {
		cfg.allowClientID = allow
	}
}
