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

package accesslog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// testHandler captures log records.
type testHandler struct {
	mu      sync.Mutex
	records []testRecord
}

type testRecord struct {
	level slog.Level
	msg   string
	attrs map[string]any
}

func (h *testHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.records = append(h.records, testRecord{level: r.Level, msg: r.Message, attrs: attrs})

	return nil
}

func (h *testHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *testHandler) WithGroup(string) slog.Handler { return h }

func (h *testHandler) all() []testRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]testRecord(nil), h.records...)
}

func respond(status int) pipeline.Handler {
	return func(pipeline.Request) (pipeline.Response, error) {
		return pipeline.NewResponse(status, nil), nil
	}
}

func TestAccessLog_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   pipeline.Handler
		wantLevel slog.Level
		wantCode  int64
	}{
		{name: "success", handler: respond(http.StatusOK), wantLevel: slog.LevelInfo, wantCode: 200},
		{name: "client error", handler: respond(http.StatusNotFound), wantLevel: slog.LevelWarn, wantCode: 404},
		{name: "server error", handler: respond(http.StatusBadGateway), wantLevel: slog.LevelError, wantCode: 502},
		{
			name: "error with status",
			handler: func(pipeline.Request) (pipeline.Response, error) {
				return pipeline.Response{}, riverrors.WithStatus(errors.New("denied"), http.StatusForbidden)
			},
			wantLevel: slog.LevelWarn, wantCode: 403,
		},
		{
			name: "plain error",
			handler: func(pipeline.Request) (pipeline.Response, error) {
				return pipeline.Response{}, errors.New("boom")
			},
			wantLevel: slog.LevelError, wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &testHandler{}
			req := pipeline.NewRequest(http.MethodPost, "/widgets/7").
				WithAttribute(pipeline.AttrRequestID, "req-1").
				WithAttribute(pipeline.AttrRoute, "/widgets/{id}").
				WithAttribute(pipeline.AttrClientIP, "198.51.100.1")

			_, _ = New(WithLogger(slog.New(h))).Process(req, tt.handler)

			records := h.all()
			require.Len(t, records, 1)
			assert.Equal(t, "http request", records[0].msg)
			assert.Equal(t, tt.wantLevel, records[0].level)
			assert.Equal(t, tt.wantCode, records[0].attrs["status"])
			assert.Equal(t, "/widgets/{id}", records[0].attrs["route"])
			assert.Equal(t, "req-1", records[0].attrs["request_id"])
			assert.Equal(t, "198.51.100.1", records[0].attrs["client_ip"])
		})
	}
}

func TestAccessLog_PassesErrorThrough(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	_, err := New().Process(pipeline.NewRequest(http.MethodGet, "/"), func(pipeline.Request) (pipeline.Response, error) {
		return pipeline.Response{}, sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestAccessLog_Exclusions(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	mw := New(WithLogger(slog.New(h)), WithExcludePaths("/health"), WithExcludePrefixes("/metrics"))

	for _, p := range []string{"/health", "/metrics", "/metrics/extra", "/widgets"} {
		_, err := mw.Process(pipeline.NewRequest(http.MethodGet, p), respond(http.StatusOK))
		require.NoError(t, err)
	}

	records := h.all()
	require.Len(t, records, 1)
	assert.Equal(t, "/widgets", records[0].attrs["path"])
}

func TestAccessLog_ErrorsOnlyAndSlow(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	mw := New(WithLogger(slog.New(h)), WithErrorsOnly(), WithSlowThreshold(20*time.Millisecond))

	_, _ = mw.Process(pipeline.NewRequest(http.MethodGet, "/fast"), respond(http.StatusOK))
	_, _ = mw.Process(pipeline.NewRequest(http.MethodGet, "/missing"), respond(http.StatusNotFound))
	_, _ = mw.Process(pipeline.NewRequest(http.MethodGet, "/slow"), func(pipeline.Request) (pipeline.Response, error) {
		time.Sleep(30 * time.Millisecond)
		return pipeline.NewResponse(http.StatusOK, nil), nil
	})

	records := h.all()
	require.Len(t, records, 2)
	assert.Equal(t, "/missing", records[0].attrs["path"])
	assert.Equal(t, "/slow", records[1].attrs["path"])
	assert.Equal(t, true, records[1].attrs["slow"])
	assert.Equal(t, slog.LevelWarn, records[1].level)
}

func TestAccessLog_Sampling(t *testing.T) {
	t.Parallel()

	h := &testHandler{}
	mw := New(WithLogger(slog.New(h)), WithSampleRate(0))

	for i := range 10 {
		req := pipeline.NewRequest(http.MethodGet, "/").WithAttribute(pipeline.AttrRequestID, fmt.Sprintf("req-%d", i))
		_, _ = mw.Process(req, respond(http.StatusOK))
	}
	_, _ = mw.Process(pipeline.NewRequest(http.MethodGet, "/"), respond(http.StatusOK))
	_, _ = mw.Process(pipeline.NewRequest(http.MethodGet, "/").WithAttribute(pipeline.AttrRequestID, "req-x"), respond(http.StatusInternalServerError))

	assert.Len(t, h.all(), 2, "requests without id and errors bypass sampling")
	assert.True(t, sampleByHash("anything", 1))
}
