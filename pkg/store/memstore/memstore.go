// Copyright 2026 The PromRedis Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memstore implements the store contract in process memory. It backs
// unit tests and single-process deployments that have no shared store; the
// aggregation path cannot tell it apart from a networked adapter.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/promredis/promredis/pkg/clock"
	"github.com/promredis/promredis/pkg/store"
)

type entry struct {
	value    float64
	deadline time.Time // zero means no expiry
}

type Store struct {
	mtx  sync.Mutex
	data map[string]entry
}

var (
	_ store.Store     = (*Store)(nil)
	_ store.TTLSetter = (*Store)(nil)
)

func New() *Store {
	return &Store{data: map[string]entry{}}
}

func (s *Store) IncrBy(_ context.Context, key string, delta float64) (float64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	e, ok := s.live(key)
	if !ok {
		e = entry{}
	}
	e.value += delta
	s.data[key] = e
	return e.value, nil
}

func (s *Store) Set(_ context.Context, key string, value float64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.data[key] = entry{value: value}
	return nil
}

// SetWithTTL writes value and its deadline in one step.
func (s *Store) SetWithTTL(_ context.Context, key string, value float64, ttl time.Duration) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.data[key] = entry{value: value, deadline: clock.Now().Add(ttl)}
	return nil
}

func (s *Store) Get(_ context.Context, key string) (float64, bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	e, ok := s.live(key)
	if !ok {
		return 0, false, nil
	}
	return e.value, true, nil
}

func (s *Store) ScanPrefix(_ context.Context, prefix string) ([]store.KV, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	var kvs []store.KV
	for key := range s.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if e, ok := s.live(key); ok {
			kvs = append(kvs, store.KV{Key: key, Value: e.value})
		}
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return kvs, nil
}

func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil
	}
	e.deadline = clock.Now().Add(ttl)
	s.data[key] = e
	return nil
}

func (s *Store) CompareAndSet(_ context.Context, key string, old, new float64) (bool, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	e, ok := s.live(key)
	if !ok || e.value != old {
		return false, nil
	}
	s.data[key] = entry{value: new, deadline: e.deadline}
	return true, nil
}

// live returns the entry for key, reaping it first if its deadline passed.
// Callers must hold the lock.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.deadline.IsZero() && !e.deadline.After(clock.Now()) {
		delete(s.data, key)
		return entry{}, false
	}
	return e, true
}

// Len reports how many live keys the store holds.
func (s *Store) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	n := 0
	for key := range s.data {
		if _, ok := s.live(key); ok {
			n++
		}
	}
	return n
}
