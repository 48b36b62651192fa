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

// Package redisstore backs the store contract with Redis. Counter and
// histogram updates map to INCRBYFLOAT, gauges to SET/INCRBYFLOAT, key
// enumeration to SCAN+MGET and compare-and-set to a small Lua script, since
// Redis has no native numeric CAS.
package redisstore

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/promredis/promredis/pkg/store"
	"github.com/promredis/promredis/pkg/telemetry"
)

// scanCount is the COUNT hint per SCAN round trip.
const scanCount = 128

// mgetBatch bounds how many keys one MGET fetches.
const mgetBatch = 512

var casScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
	return 0
end
if tonumber(cur) == tonumber(ARGV[1]) then
	redis.call('SET', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

type Store struct {
	client *redis.Client
}

var (
	_ store.Store     = (*Store)(nil)
	_ store.TTLSetter = (*Store)(nil)
)

// New wraps an existing client. The caller keeps ownership of the client's
// lifecycle.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// NewFromURI builds a client from a redis:// URI (host, port, auth and
// database index included).
func NewFromURI(uri string) (*Store, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}
	return New(redis.NewClient(opts)), nil
}

// Ping verifies connectivity. Callers treat a failure at startup as fatal.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.wrap("ping", "", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) IncrBy(ctx context.Context, key string, delta float64) (float64, error) {
	v, err := s.client.IncrByFloat(ctx, key, delta).Result()
	if err != nil {
		return 0, s.wrap("incrby", key, err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value float64) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return s.wrap("set", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (float64, bool, error) {
	v, err := s.client.Get(ctx, key).Float64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, s.wrap("get", key, err)
	}
	return v, true, nil
}

func (s *Store) ScanPrefix(ctx context.Context, prefix string) ([]store.KV, error) {
	// SCAN may return the same key more than once while the keyspace is
	// being rehashed; the contract promises each key at most once.
	seen := map[string]struct{}{}
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanCount).Result()
		if err != nil {
			return nil, s.wrap("scan", prefix, err)
		}
		for _, key := range batch {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	kvs := make([]store.KV, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		end := start + mgetBatch
		if end > len(keys) {
			end = len(keys)
		}
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, s.wrap("mget", prefix, err)
		}
		for i, raw := range values {
			// A key can expire between SCAN and MGET.
			if raw == nil {
				continue
			}
			str, ok := raw.(string)
			if !ok {
				continue
			}
			v, perr := strconv.ParseFloat(str, 64)
			if perr != nil {
				continue
			}
			kvs = append(kvs, store.KV{Key: keys[start+i], Value: v})
		}
	}
	return kvs, nil
}

// SetWithTTL writes value and arms ttl in a single SET, so the key is never
// observable without its deadline.
func (s *Store) SetWithTTL(ctx context.Context, key string, value float64, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return s.wrap("set", key, err)
	}
	return nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return s.wrap("expire", key, err)
	}
	return nil
}

func (s *Store) CompareAndSet(ctx context.Context, key string, old, new float64) (bool, error) {
	res, err := casScript.Run(ctx, s.client, []string{key},
		strconv.FormatFloat(old, 'g', -1, 64),
		strconv.FormatFloat(new, 'g', -1, 64),
	).Int()
	if err != nil {
		return false, s.wrap("cas", key, err)
	}
	return res == 1, nil
}

func (s *Store) wrap(op, key string, err error) error {
	telemetry.StoreErrors.WithLabelValues(op).Inc()
	return &store.UnavailableError{Op: op, Key: key, Err: err}
}
