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
	"fmt"

	"github.com/promredis/promredis/pkg/keys"
)

// subValue is the sub-key carrying the single accumulator of counters and
// gauges. Sharded counters append ":<shardID>".
const subValue = "value"

// Counter is a monotonically increasing accumulator in the shared store.
// Increments from any number of processes commute, so the aggregate is exact
// regardless of interleaving.
type Counter struct {
	reg  *Registry
	desc *Descriptor
}

// Inc increments the counter by one.
func (c *Counter) Inc(ctx context.Context, labels Labels) error {
	return c.Add(ctx, labels, 1)
}

// Add increments the counter by delta. A negative delta is rejected with a
// *ValueError and nothing is written.
func (c *Counter) Add(ctx context.Context, labels Labels, delta float64) error {
	if err := c.desc.checkLabels(labels); err != nil {
		return err
	}
	if delta < 0 {
		return &ValueError{Metric: c.desc.Name, Reason: fmt.Sprintf("counter delta %v is negative", delta)}
	}
	_, err := c.reg.store.IncrBy(ctx, c.key(labels), delta)
	return err
}

// Set overwrites this process's accumulator (the shard's, if sharded). A
// counter reset to a lower value is legal Prometheus behavior; negative
// values are not.
func (c *Counter) Set(ctx context.Context, labels Labels, value float64) error {
	if err := c.desc.checkLabels(labels); err != nil {
		return err
	}
	if value < 0 {
		return &ValueError{Metric: c.desc.Name, Reason: fmt.Sprintf("counter value %v is negative", value)}
	}
	return c.reg.store.Set(ctx, c.key(labels), value)
}

func (c *Counter) key(labels Labels) string {
	sub := subValue
	if c.desc.Sharded {
		sub += ":" + c.reg.shardID
	}
	return keys.Encode(c.desc.Name, labels, sub)
}
