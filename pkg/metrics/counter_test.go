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
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/promredis/promredis/pkg/store/memstore"
)

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("no family %q in %v", name, families)
	return nil
}

func TestCounterAccumulates(t *testing.T) {
	st := memstore.New()
	reg := NewRegistry(st)
	ctx := context.Background()

	c, err := reg.RegisterCounter(CounterOpts{
		Name:       "requests_total",
		Help:       "The total number of requests.",
		LabelNames: []string{"method"},
	})
	if err != nil {
		t.Fatalf("RegisterCounter: %v", err)
	}

	for _, delta := range []float64{1, 2, 3.5} {
		if err := c.Add(ctx, Labels{"method": "GET"}, delta); err != nil {
			t.Fatalf("Add(%v): %v", delta, err)
		}
	}
	if err := c.Inc(ctx, Labels{"method": "POST"}); err != nil {
		t.Fatalf("Inc: %v", err)
	}

	families, err := reg.Gather(ctx)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	mf := findFamily(t, families, "requests_total")
	if mf.GetType() != dto.MetricType_COUNTER {
		t.Fatalf("family type = %v, want COUNTER", mf.GetType())
	}
	if len(mf.Metric) != 2 {
		t.Fatalf("got %d series, want 2", len(mf.Metric))
	}
	// Samples are sorted by label value: GET before POST.
	if got := mf.Metric[0].GetCounter().GetValue(); got != 6.5 {
		t.Fatalf("GET counter = %v, want 6.5", got)
	}
	if got := mf.Metric[1].GetCounter().GetValue(); got != 1 {
		t.Fatalf("POST counter = %v, want 1", got)
	}
}

func TestCounterNegativeDelta(t *testing.T) {
	st := memstore.New()
	reg := NewRegistry(st)
	ctx := context.Background()

	c := reg.MustRegisterCounter(CounterOpts{Name: "jobs_total", Help: "Jobs."})
	err := c.Add(ctx, Labels{}, -1)
	var ve *ValueError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValueError, got %T: %v", err, err)
	}
	if st.Len() != 0 {
		t.Fatal("negative delta must not write anything")
	}
}

func TestCounterLabelShape(t *testing.T) {
	st := memstore.New()
	reg := NewRegistry(st)
	ctx := context.Background()

	c := reg.MustRegisterCounter(CounterOpts{
		Name:       "requests_total",
		Help:       "Requests.",
		LabelNames: []string{"method"},
	})

	for _, labels := range []Labels{
		{},
		{"verb": "GET"},
		{"method": "GET", "path": "/"},
	} {
		err := c.Inc(ctx, labels)
		var ve *ValueError
		if !errors.As(err, &ve) {
			t.Fatalf("Inc(%v): expected *ValueError, got %v", labels, err)
		}
	}
	if st.Len() != 0 {
		t.Fatal("rejected label sets must not write anything")
	}
}

func TestShardedCounterSums(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	opts := CounterOpts{
		Name:       "work_items_total",
		Help:       "Work items processed.",
		LabelNames: []string{"queue"},
		Sharded:    true,
	}

	regA := NewRegistry(st, WithShardID("worker-a"))
	regB := NewRegistry(st, WithShardID("worker-b"))
	ca := regA.MustRegisterCounter(opts)
	cb := regB.MustRegisterCounter(opts)

	if err := ca.Add(ctx, Labels{"queue": "mail"}, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := cb.Add(ctx, Labels{"queue": "mail"}, 3); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Two shard keys exist, one series is reported.
	if st.Len() != 2 {
		t.Fatalf("got %d keys, want 2 shards", st.Len())
	}
	families, err := regA.Gather(ctx)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	mf := findFamily(t, families, "work_items_total")
	if len(mf.Metric) != 1 {
		t.Fatalf("got %d series, want 1", len(mf.Metric))
	}
	if got := mf.Metric[0].GetCounter().GetValue(); got != 5 {
		t.Fatalf("summed shards = %v, want 5", got)
	}
}

func TestCounterSetResets(t *testing.T) {
	st := memstore.New()
	reg := NewRegistry(st)
	ctx := context.Background()

	c := reg.MustRegisterCounter(CounterOpts{Name: "restarts_total", Help: "Restarts."})
	if err := c.Add(ctx, Labels{}, 7); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Set(ctx, Labels{}, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	families, err := reg.Gather(ctx)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	mf := findFamily(t, families, "restarts_total")
	if got := mf.Metric[0].GetCounter().GetValue(); got != 0 {
		t.Fatalf("counter after reset = %v, want 0", got)
	}

	var ve *ValueError
	if err := c.Set(ctx, Labels{}, -4); !errors.As(err, &ve) {
		t.Fatalf("Set(-4): expected *ValueError, got %v", err)
	}
}
