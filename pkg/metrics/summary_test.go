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
	"testing"

	"github.com/promredis/promredis/pkg/store/memstore"
)

func TestSummaryObserve(t *testing.T) {
	st := memstore.New()
	reg := NewRegistry(st)
	ctx := context.Background()

	s := reg.MustRegisterSummary(SummaryOpts{
		Name:       "payload_bytes",
		Help:       "Payload sizes.",
		LabelNames: []string{"direction"},
	})
	for _, v := range []float64{1.5, 2.5, 4} {
		if err := s.Observe(ctx, Labels{"direction": "in"}, v); err != nil {
			t.Fatalf("Observe(%v): %v", v, err)
		}
	}
	if err := s.Observe(ctx, Labels{"direction": "out"}, 10); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	families, err := reg.Gather(ctx)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	mf := findFamily(t, families, "payload_bytes")
	if len(mf.Metric) != 2 {
		t.Fatalf("got %d series, want 2", len(mf.Metric))
	}
	in := mf.Metric[0].GetSummary()
	if in.GetSampleCount() != 3 || in.GetSampleSum() != 8 {
		t.Fatalf("in: count=%d sum=%v, want count=3 sum=8", in.GetSampleCount(), in.GetSampleSum())
	}
	out := mf.Metric[1].GetSummary()
	if out.GetSampleCount() != 1 || out.GetSampleSum() != 10 {
		t.Fatalf("out: count=%d sum=%v, want count=1 sum=10", out.GetSampleCount(), out.GetSampleSum())
	}
}
