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
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func withClock(c *fakeClock) Option {
	return func(cfg *config) {
		cfg.now = c.Now
	}
}

func ok(pipeline.Request) (pipeline.Response, error) {
	return pipeline.NewResponse(http.StatusOK, nil), nil
}

func from(ip string) pipeline.Request {
	return pipeline.NewRequest(http.MethodGet, "/").WithAttribute(pipeline.AttrClientIP, ip)
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l, err := New(1, 2, withClock(clock))
	require.NoError(t, err)

	resp, err := l.Process(from("1.1.1.1"), ok)
	require.NoError(t, err)
	assert.Equal(t, "2", resp.Header("RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header("RateLimit-Remaining"))

	_, err = l.Process(from("1.1.1.1"), ok)
	require.NoError(t, err)

	_, err = l.Process(from("1.1.1.1"), ok)
	require.ErrorIs(t, err, ErrLimited)
	status, _ := riverrors.StatusOf(err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "1", riverrors.HeadersOf(err).Get("Retry-After"))

	_, err = l.Process(from("2.2.2.2"), ok)
	require.NoError(t, err, "buckets are per client")

	clock.Advance(time.Second)
	_, err = l.Process(from("1.1.1.1"), ok)
	require.NoError(t, err, "refilled after a second")
}

func TestLimiter_RejectedRequestsDoNotConsume(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l, err := New(1, 1, withClock(clock))
	require.NoError(t, err)

	_, err = l.Process(from("1.1.1.1"), ok)
	require.NoError(t, err)
	for range 5 {
		_, err = l.Process(from("1.1.1.1"), ok)
		require.Error(t, err)
	}

	clock.Advance(time.Second)
	_, err = l.Process(from("1.1.1.1"), ok)
	require.NoError(t, err)
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l, err := New(1, 1, withClock(clock), WithIdleTTL(time.Minute))
	require.NoError(t, err)

	_, _ = l.Process(from("1.1.1.1"), ok)
	_, _ = l.Process(from("2.2.2.2"), ok)
	assert.Equal(t, 2, l.Len())

	clock.Advance(time.Minute)
	_, _ = l.Process(from("3.3.3.3"), ok)
	assert.Equal(t, 1, l.Len())
}

func TestNewRejectsInvalidLimits(t *testing.T) {
	t.Parallel()

	_, err := New(0, 1)
	require.ErrorIs(t, err, ErrInvalidLimit)
	_, err = New(1, 0)
	require.ErrorIs(t, err, ErrInvalidLimit)
}

func TestFactory(t *testing.T) {
	t.Parallel()

	f := Factory(WithHeaders(false))

	a, err := f(5, 10)
	require.NoError(t, err)
	b, err := f("5", "10")
	require.NoError(t, err)
	assert.Same(t, a, b, "same arguments share a limiter")

	c, err := f(2.5)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 3, c.(*Limiter).burst)

	d, err := f()
	require.NoError(t, err)
	assert.Equal(t, 20, d.(*Limiter).burst)

	_, err = f("fast")
	require.Error(t, err)
	_, err = f(-1)
	require.ErrorIs(t, err, ErrInvalidLimit)
}
