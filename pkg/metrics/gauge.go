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

package metrics

import (
	"context"
	"sync"

	"github.com/promredis/promredis/pkg/keys"
	"github.com/promredis/promredis/pkg/store"
)

// Gauge holds a current value per label set on a single shared-store key.
// Set is last-write-wins across processes; Inc and Dec compose atomically.
// Gauges are never sharded: the store's key is the one authoritative value,
// and summing per-process copies would report nonsense.
type Gauge struct {
	reg  *Registry
	desc *Descriptor

	// shadow remembers the last value this process wrote per key, only so
	// the refresher can renew TTLs. It is never read when reporting; the
	// store stays authoritative.
	mtx    sync.Mutex
	shadow map[string]float64
}

// Set overwrites the gauge for the given label set.
func (g *Gauge) Set(ctx context.Context, labels Labels, value float64) error {
	if err := g.desc.checkLabels(labels); err != nil {
		return err
	}
	key := keys.Encode(g.desc.Name, labels, subValue)
	if err := g.setKey(ctx, key, value); err != nil {
		return err
	}
	g.track(key, value)
	return nil
}

// Inc adds delta to the gauge. Deltas may be negative.
func (g *Gauge) Inc(ctx context.Context, labels Labels, delta float64) error {
	if err := g.desc.checkLabels(labels); err != nil {
		return err
	}
	key := keys.Encode(g.desc.Name, labels, subValue)
	v, err := g.reg.store.IncrBy(ctx, key, delta)
	if err != nil {
		return err
	}
	return g.touch(ctx, key, v)
}

// Dec subtracts delta from the gauge.
func (g *Gauge) Dec(ctx context.Context, labels Labels, delta float64) error {
	return g.Inc(ctx, labels, -delta)
}

// setKey writes one key, arming the TTL in the same operation when the
// adapter can. The Set-then-Expire fallback has a window in which a crash
// leaves the key without a deadline; SetWithTTL closes it.
func (g *Gauge) setKey(ctx context.Context, key string, value float64) error {
	if g.desc.ExpireAfter == 0 {
		return g.reg.store.Set(ctx, key, value)
	}
	if ts, ok := g.reg.store.(store.TTLSetter); ok {
		return ts.SetWithTTL(ctx, key, value, g.desc.ExpireAfter)
	}
	if err := g.reg.store.Set(ctx, key, value); err != nil {
		return err
	}
	return g.reg.store.Expire(ctx, key, g.desc.ExpireAfter)
}

// track records the written value for TTL renewal and enrolls the gauge with
// the refresher. A no-op for gauges without expiry.
func (g *Gauge) track(key string, value float64) {
	if g.desc.ExpireAfter == 0 {
		return
	}
	g.mtx.Lock()
	g.shadow[key] = value
	g.mtx.Unlock()
	g.reg.enrollGauge(g)
}

// touch applies the TTL and enrolls the gauge with the refresher when the
// descriptor asks for expiry. Used after IncrBy, which cannot carry a TTL.
func (g *Gauge) touch(ctx context.Context, key string, value float64) error {
	if g.desc.ExpireAfter == 0 {
		return nil
	}
	if err := g.reg.store.Expire(ctx, key, g.desc.ExpireAfter); err != nil {
		return err
	}
	g.track(key, value)
	return nil
}

// refreshValues re-writes the keys this process last set, renewing their
// TTLs. Concurrent writers from other processes may overwrite afterwards;
// that is ordinary last-write-wins.
func (g *Gauge) refreshValues(ctx context.Context) error {
	g.mtx.Lock()
	snapshot := make(map[string]float64, len(g.shadow))
	for k, v := range g.shadow {
		snapshot[k] = v
	}
	g.mtx.Unlock()

	var firstErr error
	for key, value := range snapshot {
		if err := g.setKey(ctx, key, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
