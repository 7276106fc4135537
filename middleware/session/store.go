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
	"context"
	"maps"
	"sync"
	"time"
)

// Data is the persisted state of one session.
type Data struct {
	Values  map[string]any
	Flashes map[string][]string
}

func (d Data) clone() Data {
	out := Data{Values: maps.Clone(d.Values), Flashes: make(map[string][]string, len(d.Flashes))}
	for k, v := range d.Flashes {
		out.Flashes[k] = append([]string(nil), v...)
	}
	if out.Values == nil {
		out.Values = map[string]any{}
	}

	return out
}

// Store persists session data by id.
type Store interface {
	// Load returns the data of session id. ok is false for unknown or
	// expired sessions.
	Load(ctx context.Context, id string) (data Data, ok bool, err error)
	Save(ctx context.Context, id string, data Data) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Entries expire ttl after
// their last save.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	data    Data
	expires time.Time
}

// NewMemoryStore returns an empty MemoryStore. A ttl <= 0 means entries
// never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, items: make(map[string]memoryItem), now: time.Now}
}

// Load implements [Store].
func (s *MemoryStore) Load(_ context.Context, id string) (Data, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return Data{}, false, nil
	}
	if !item.expires.IsZero() && !s.now().Before(item.expires) {
		delete(s.items, id)
		return Data{}, false, nil
	}

	return item.data.clone(), true, nil
}

// Save implements [Store].
func (s *MemoryStore) Save(_ context.Context, id string, data Data) error {
	item := memoryItem{data: data.clone()}
	if s.ttl > 0 {
		item.expires = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.items[id] = item
	s.mu.Unlock()

	return nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()

	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}
