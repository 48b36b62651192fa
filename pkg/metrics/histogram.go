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
	"math"
	"strconv"
	"strings"

	"github.com/promredis/promredis/pkg/keys"
)

const subBucketPrefix = "bucket:"

// Histogram buckets observations into cumulative counters per upper bound,
// Prometheus style: an observation increments every bucket whose bound it
// falls under, plus +Inf, plus the count and sum accumulators.
type Histogram struct {
	reg  *Registry
	desc *Descriptor
}

// Observe records one observation. Each of the k+3 increments is
// individually atomic, but there is no atomicity across them: if one fails,
// the error is returned and the increments already applied stay in place.
// Bucket counts remain non-decreasing in bound order regardless, because
// every observation that reaches a bucket also reaches all wider ones.
func (h *Histogram) Observe(ctx context.Context, labels Labels, value float64) error {
	if err := h.desc.checkLabels(labels); err != nil {
		return err
	}
	st := h.reg.store
	for _, bound := range h.desc.Buckets {
		if value > bound {
			continue
		}
		if _, err := st.IncrBy(ctx, keys.Encode(h.desc.Name, labels, bucketSub(bound)), 1); err != nil {
			return err
		}
	}
	if _, err := st.IncrBy(ctx, keys.Encode(h.desc.Name, labels, bucketSub(math.Inf(1))), 1); err != nil {
		return err
	}
	if _, err := st.IncrBy(ctx, keys.Encode(h.desc.Name, labels, subCount), 1); err != nil {
		return err
	}
	_, err := st.IncrBy(ctx, keys.Encode(h.desc.Name, labels, subSum), value)
	return err
}

func bucketSub(bound float64) string {
	return subBucketPrefix + formatBound(bound)
}

func formatBound(bound float64) string {
	// FormatFloat renders +Inf as "+Inf", which ParseFloat accepts back.
	return strconv.FormatFloat(bound, 'g', -1, 64)
}

func parseBucketSub(sub string) (float64, bool) {
	if !strings.HasPrefix(sub, subBucketPrefix) {
		return 0, false
	}
	bound, err := strconv.ParseFloat(sub[len(subBucketPrefix):], 64)
	if err != nil || math.IsNaN(bound) {
		return 0, false
	}
	return bound, true
}
