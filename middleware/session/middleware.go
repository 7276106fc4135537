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

package session

import (
	"fmt"
	"log/slog"
	"net/http"

	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the session middleware.
const ID = "session"

// Middleware loads and commits sessions.
type Middleware struct {
	cfg *config
}

// New creates the session middleware.
func New(opts ...Option) *Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.store == nil {
		cfg.store = NewMemoryStore(cfg.maxAge)
	}

	return &Middleware{cfg: cfg}
}

// Store returns the backing store.
func (m *Middleware) Store() Store { return m.cfg.store }

// Process implements [pipeline.Middleware].
func (m *Middleware) Process(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
	sess := m.load(req)

	resp, err := next(req.WithAttribute(pipeline.AttrSession, sess))
	if err != nil {
		// Writes made by a failed request are discarded.
		return resp, err
	}

	cookie, commitErr := m.commit(req, sess)
	if commitErr != nil {
		return pipeline.Response{}, commitErr
	}
	if cookie != nil {
		resp = resp.WithAddedHeader("Set-Cookie", cookie.String())
	}

	return resp, nil
}

func (m *Middleware) load(req pipeline.Request) *Session {
	if c, err := req.Cookie(m.cfg.name); err == nil && c.Value != "" {
		data, ok, err := m.cfg.store.Load(req.Context(), c.Value)
		if err != nil {
			m.cfg.logger.WarnContext(req.Context(), "session load failed", slog.String("error", err.Error()))
		}
		if ok {
			return newSession(c.Value, data, false, m.cfg.newID)
		}
	}

	return newSession(m.cfg.newID(), Data{}, true, m.cfg.newID)
}

// commit persists the session and returns the cookie to send, if any.
func (m *Middleware) commit(req pipeline.Request, sess *Session) (*http.Cookie, error) {
	snap := sess.snapshot()
	ctx := req.Context()

	if snap.oldID != "" {
		if err := m.cfg.store.Delete(ctx, snap.oldID); err != nil {
			return nil, fmt.Errorf("session: delete %s: %w", snap.oldID, err)
		}
	}

	if snap.destroyed {
		if err := m.cfg.store.Delete(ctx, snap.id); err != nil {
			return nil, fmt.Errorf("session: delete: %w", err)
		}
		if snap.isNew {
			return nil, nil
		}
		c := m.cookie("")
		c.MaxAge = -1

		return c, nil
	}

	if !snap.dirty {
		return nil, nil
	}
	if err := m.cfg.store.Save(ctx, snap.id, snap.data); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}
	if snap.isNew || snap.regenerated {
		return m.cookie(snap.id), nil
	}

	return nil, nil
}

func (m *Middleware) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.name,
		Value:    value,
		Path:     m.cfg.path,
		Domain:   m.cfg.domain,
		MaxAge:   int(m.cfg.maxAge.Seconds()),
		Secure:   m.cfg.secure,
		HttpOnly: true,
		SameSite: m.cfg.sameSite,
	}
}
