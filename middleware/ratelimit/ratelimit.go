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

package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
	"rivaas.dev/dispatch/registry"
)

// ID is the registry id of the rate limiter.
const ID = "rate-limit"

var (
	// ErrLimited is returned when a request exceeds its budget.
	ErrLimited = errors.New("rate limit exceeded")

	// ErrInvalidLimit is returned for a non-positive rate or burst.
	ErrInvalidLimit = errors.New("ratelimit: rate and burst must be positive")
)

// Limiter is a keyed token bucket middleware.
type Limiter struct {
	cfg       *config
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing rps requests per second per key with the
// given burst.
func New(rps float64, burst int, opts ...Option) (*Limiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("%w: rps=%v burst=%d", ErrInvalidLimit, rps, burst)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Limiter{
		cfg:       cfg,
		limit:     rate.Limit(rps),
		burst:     burst,
		buckets:   make(map[string]*bucket),
		lastSweep: cfg.now(),
	}, nil
}

func (l *Limiter) bucket(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.cfg.idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.lim
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}

// Process implements [pipeline.Middleware].
func (l *Limiter) Process(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
	now := l.cfg.now()
	lim := l.bucket(l.cfg.keyFunc(req), now)

	res := lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		retry := strconv.Itoa(int(math.Ceil(delay.Seconds())))
		header := http.Header{"Retry-After": {retry}}
		if l.cfg.headers {
			header.Set("RateLimit-Limit", strconv.Itoa(l.burst))
			header.Set("RateLimit-Remaining", "0")
		}

		return pipeline.Response{}, riverrors.WithHeaders(ErrLimited, http.StatusTooManyRequests, header)
	}

	resp, err := next(req)
	if err != nil || !l.cfg.headers {
		return resp, err
	}
	remaining := max(0, int(math.Floor(lim.TokensAt(now))))

	return resp.
		WithHeader("RateLimit-Limit", strconv.Itoa(l.burst)).
		WithHeader("RateLimit-Remaining", strconv.Itoa(remaining)), nil
}

// Factory returns a registry factory for rate-limit(rps, burst). Limiters
// are cached per argument pair.
//
//	rate-limit         10 rps, burst 20
//	rate-limit(5)      5 rps, burst 5
//	rate-limit(0.5, 3) one request per two seconds, burst 3
func Factory(opts ...Option) registry.MiddlewareFactory {
	var cache sync.Map

	return func(args ...any) (pipeline.Middleware, error) {
		a := registry.Args(args)
		rps, err := a.Float(0, 10)
		if err != nil {
			return nil, err
		}
		defBurst := 20
		if a.Len() > 0 {
			defBurst = max(1, int(math.Ceil(rps)))
		}
		burst, err := a.Int(1, defBurst)
		if err != nil {
			return nil, err
		}

		key := strconv.FormatFloat(rps, 'g', -1, 64) + "/" + strconv.Itoa(burst)
		if l, ok := cache.Load(key); ok {
			return l.(*Limiter), nil
		}
		l, err := New(rps, burst, opts...)
		if err != nil {
			return nil, err
		}
		actual, _ := cache.LoadOrStore(key, l)

		return actual.(*Limiter), nil
	}
}
