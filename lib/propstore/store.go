// Copyright 2026 The Quarry Authors
// SPDX-License-Identifier: Apache-2.0

package propstore

import "sync"

// Store is a worker's mutable key/value configuration surface. It is
// safe for concurrent use, though the pool's single-assignment
// discipline means at most one build writes to it at a time.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

// New returns a store seeded with the worker's mutable properties at
// spawn time. The initial map is copied.
func New(initial map[string]string) *Store {
	values := make(map[string]string, len(initial))
	for key, value := range initial {
		values[key] = value
	}
	return &Store{values: values}
}

// Apply writes a verdict's staged updates. Keys absent from updates
// are left untouched; Apply never removes a property.
func (s *Store) Apply(updates map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range updates {
		s.values[key] = value
	}
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Snapshot returns a copy of the current properties.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]string, len(s.values))
	for key, value := range s.values {
		snapshot[key] = value
	}
	return snapshot
}

// Len returns the number of properties currently set.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
