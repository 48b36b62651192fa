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

// Package store defines the contract every shared-store adapter must satisfy.
// Metric correctness rests entirely on the per-key atomicity of these
// operations; the library holds no locks around them.
package store

import (
	"context"
	"fmt"
	"time"
)

// KV is one key and its numeric value as returned by ScanPrefix.
type KV struct {
	Key   string
	Value float64
}

// Store is the minimal operation set the shared store must provide. Every
// operation is atomic per key and visible to all processes. Implementations
// must be safe for concurrent use.
type Store interface {
	// IncrBy atomically adds delta to the value at key, creating the key at
	// zero if absent, and returns the new value.
	IncrBy(ctx context.Context, key string, delta float64) (float64, error)

	// Set unconditionally overwrites the value at key.
	Set(ctx context.Context, key string, value float64) error

	// Get returns the value at key. The second return is false if the key
	// is absent; absence is not an error.
	Get(ctx context.Context, key string) (float64, bool, error)

	// ScanPrefix enumerates all keys beginning with prefix. The enumeration
	// need not be an atomic snapshot, but a key present for the whole scan
	// must not be omitted, and no key may be reported more than once: the
	// aggregation pass sums counter shards and a repeated key would be
	// counted twice.
	ScanPrefix(ctx context.Context, prefix string) ([]KV, error)

	// Expire schedules key for deletion after ttl. Retention policy is the
	// caller's concern; the core never requires it.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// CompareAndSet sets key to new only if its current value equals old,
	// reporting whether the swap happened. An absent key never matches.
	CompareAndSet(ctx context.Context, key string, old, new float64) (bool, error)
}

// TTLSetter is an optional adapter capability: one write that both sets the
// value and arms the TTL, so no failure between a Set and a following Expire
// can leave an expiring key immortal. The expiring-gauge path uses it when
// the adapter provides it.
type TTLSetter interface {
	SetWithTTL(ctx context.Context, key string, value float64, ttl time.Duration) error
}

// UnavailableError wraps any transport, timeout or authentication failure
// from the shared store. Instrumentation calls surface it to the caller
// rather than dropping the observation; retrying is the caller's decision.
type UnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *UnavailableError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store unavailable during %s of %q: %v", e.Op, e.Key, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
