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
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"net/http"
	"strings"
	"time"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the access log middleware.
const ID = "access-log"

// New creates the access log middleware.
func New(opts ...Option) pipeline.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return pipeline.MiddlewareFunc(func(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
		if cfg.excluded(req.Path()) {
			return next(req)
		}

		start := time.Now()
		resp, err := next(req)
		duration := time.Since(start)

		status := resp.Status()
		if err != nil {
			status = riverrors.DefaultStatus(err)
			if s, ok := riverrors.StatusOf(err); ok {
				status = s
			}
		}

		isError := status >= http.StatusBadRequest
		isSlow := cfg.slowThreshold > 0 && duration >= cfg.slowThreshold
		if !isError && !isSlow {
			if cfg.errorsOnly || !sampleByHash(req.AttributeString(pipeline.AttrRequestID), cfg.sampleRate) {
				return resp, err
			}
		}

		attrs := []slog.Attr{
			slog.String("method", req.Method()),
			slog.String("path", req.Path()),
			slog.Int("status", status),
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.String("client_ip", req.AttributeString(pipeline.AttrClientIP)),
			slog.String("user_agent", req.Header("User-Agent")),
			slog.String("host", req.Host()),
		}
		if route := req.AttributeString(pipeline.AttrRoute); route != "" {
			attrs = append(attrs, slog.String("route", route))
		}
		if id := req.AttributeString(pipeline.AttrRequestID); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if orig := req.AttributeString(pipeline.AttrOriginalMethod); orig != "" {
			attrs = append(attrs, slog.String("original_method", orig))
		}
		if isSlow {
			attrs = append(attrs, slog.Bool("slow", true))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case isError, isSlow:
			level = slog.LevelWarn
		}
		cfg.logger.LogAttrs(req.Context(), level, "http request", attrs...)

		return resp, err
	})
}

func (c *config) excluded(path string) bool {
	if c.excludePaths[path] {
		return true
	}
	for _, prefix := range c.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// sampleByHash keeps a stable fraction of ids; requests without an id are
// always kept.
func sampleByHash(id string, rate float64) bool {
	if rate >= 1.0 || id == "" {
		return true
	}

	h := sha256.Sum256([]byte(id))
	threshold := uint64(rate * float64(^uint64(0)))

	return binary.BigEndian.Uint64(h[:8]) <= threshold
}
