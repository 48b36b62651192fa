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

	"github.com/promredis/promredis/pkg/keys"
)

const (
	subSum   = "sum"
	subCount = "count"
)

// Summary tracks the sum and count of observations. Quantiles are not
// supported: they cannot be merged across independent processes, and sum and
// count are the components that stay exact under commutative updates.
type Summary struct {
	reg  *Registry
	desc *Descriptor
}

// Observe records one observation. The sum and count updates are two
// separate atomic increments; a failure between them is surfaced and leaves
// the applied increment in place.
func (s *Summary) Observe(ctx context.Context, labels Labels, value float64) error {
	if err := s.desc.checkLabels(labels); err != nil {
		return err
	}
	if _, err := s.reg.store.IncrBy(ctx, keys.Encode(s.desc.Name, labels, subSum), value); err != nil {
		return err
	}
	_, err := s.reg.store.IncrBy(ctx, keys.Encode(s.desc.Name, labels, subCount), 1)
	return err
}
