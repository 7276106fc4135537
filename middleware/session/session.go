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
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"sync"

	"github.com/spf13/cast"

	"rivaas.dev/dispatch/pipeline"
)

const csrfKey = "_csrf_token"

// Session is the mutable state of one request's session. It is safe for
// concurrent use by the goroutines serving that request.
type Session struct {
	mu          sync.Mutex
	id          string
	oldID       string
	data        Data
	isNew       bool
	dirty       bool
	destroyed   bool
	regenerated bool
	newID       func() string
}

func newSession(id string, data Data, isNew bool, newID func() string) *Session {
	return &Session{id: id, data: data.clone(), isNew: isNew, newID: newID}
}

// FromRequest returns the session attached by the middleware.
func FromRequest(req pipeline.Request) (*Session, bool) {
	v, ok := req.Attribute(pipeline.AttrSession)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)

	return s, ok
}

// ID returns the session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id
}

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isNew
}

// Get returns a session value.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data.Values[key]
	return v, ok
}

// GetString returns a session value as a string, or "" if unset.
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	return cast.ToString(v)
}

// Set stores a session value.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Values[key] = value
	s.dirty = true
}

// Delete removes a session value.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Values[key]; ok {
		delete(s.data.Values, key)
		s.dirty = true
	}
}

// AddFlash queues a message of the given kind ("notice", "error", ...) for
// the next request that reads it.
func (s *Session) AddFlash(kind, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Flashes[kind] = append(s.data.Flashes[kind], msg)
	s.dirty = true
}

// Flashes returns and clears the queued messages of one kind.
func (s *Session) Flashes(kind string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.data.Flashes[kind]
	if len(msgs) > 0 {
		delete(s.data.Flashes, kind)
		s.dirty = true
	}

	return msgs
}

// Token returns the session's CSRF token, creating it on first use.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok, ok := s.data.Values[csrfKey].(string); ok && tok != "" {
		return tok
	}
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	tok := base64.RawURLEncoding.EncodeToString(b)
	s.data.Values[csrfKey] = tok
	s.dirty = true

	return tok
}

// VerifyToken reports whether token matches the session's CSRF token in
// constant time. A session without a token matches nothing.
func (s *Session) VerifyToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	want, _ := s.data.Values[csrfKey].(string)
	if want == "" || token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

// Regenerate moves the session to a fresh id, keeping its data. Call it
// after login to prevent session fixation.
func (s *Session) Regenerate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.regenerated && !s.isNew {
		s.oldID = s.id
	}
	s.id = s.newID()
	s.regenerated = true
	s.dirty = true
}

// Destroy deletes the session and expires its cookie.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.destroyed = true
}

// snapshot captures what the middleware needs to commit the session.
type snapshot struct {
	id          string
	oldID       string
	data        Data
	isNew       bool
	dirty       bool
	destroyed   bool
	regenerated bool
}

func (s *Session) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot{
		id:          s.id,
		oldID:       s.oldID,
		data:        s.data.clone(),
		isNew:       s.isNew,
		dirty:       s.dirty,
		destroyed:   s.destroyed,
		regenerated: s.regenerated,
	}
}
