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
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/promredis/promredis/pkg/clock"
	"github.com/promredis/promredis/pkg/telemetry"
)

// refresher periodically re-writes the values of expiring gauges so their
// TTLs only fire for processes that stopped refreshing. One refresher serves
// a whole registry and starts lazily with the first expiring gauge write.
type refresher struct {
	interval time.Duration
	logger   log.Logger

	mtx    sync.Mutex
	gauges []*Gauge

	quitOnce sync.Once
	quit     chan struct{}
}

func newRefresher(interval time.Duration, logger log.Logger) *refresher {
	return &refresher{
		interval: interval,
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// enrollGauge registers g for periodic refresh, starting the background
// goroutine on first use.
func (r *Registry) enrollGauge(g *Gauge) {
	r.mtx.Lock()
	if r.refresh == nil {
		r.refresh = newRefresher(r.refreshInterval, r.logger)
		go r.refresh.run()
	}
	ref := r.refresh
	r.mtx.Unlock()
	ref.add(g)
}

func (f *refresher) add(g *Gauge) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for _, existing := range f.gauges {
		if existing == g {
			return
		}
	}
	f.gauges = append(f.gauges, g)
}

func (f *refresher) run() {
	ticker := clock.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.runOnce()
		case <-f.quit:
			return
		}
	}
}

func (f *refresher) runOnce() {
	telemetry.RefreshesTotal.Inc()
	f.mtx.Lock()
	gauges := append([]*Gauge(nil), f.gauges...)
	f.mtx.Unlock()
	for _, g := range gauges {
		if err := g.refreshValues(context.Background()); err != nil {
			level.Warn(f.logger).Log("msg", "gauge refresh failed", "metric", g.desc.Name, "err", err)
		}
	}
}

func (f *refresher) stop() {
	f.quitOnce.Do(func() { close(f.quit) })
}
