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
	"time"

	"github.com/promredis/promredis/pkg/clock"
)

// Observer is satisfied by Summary and Histogram.
type Observer interface {
	Observe(ctx context.Context, labels Labels, value float64) error
}

var (
	_ Observer = (*Summary)(nil)
	_ Observer = (*Histogram)(nil)
)

// Timer measures a duration and reports it, in seconds, to an Observer.
//
//	timer := metrics.StartTimer(latency, metrics.Labels{"path": "/v1"})
//	defer timer.ObserveDuration(ctx)
type Timer struct {
	begin  time.Time
	obs    Observer
	labels Labels
}

// StartTimer begins timing now.
func StartTimer(obs Observer, labels Labels) *Timer {
	return &Timer{begin: clock.Now(), obs: obs, labels: labels}
}

// ObserveDuration records the time elapsed since StartTimer and returns it.
func (t *Timer) ObserveDuration(ctx context.Context) (time.Duration, error) {
	d := clock.Now().Sub(t.begin)
	if d < 0 {
		d = 0
	}
	return d, t.obs.Observe(ctx, t.labels, d.Seconds())
}
