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

package declare

import (
	"strings"
	"testing"
	"time"

	"github.com/promredis/promredis/pkg/metrics"
	"github.com/promredis/promredis/pkg/store/memstore"
)

const testConfig = `
metrics:
  - name: requests_total
    type: counter
    help: Requests served.
    labels: [method, path]
    sharded: true
  - name: worker_busy
    type: gauge
    help: Whether a worker is busy.
    labels: [worker]
    expire_after: 1m
  - name: payload_bytes
    type: summary
    help: Payload sizes.
  - name: request_duration_seconds
    type: histogram
    help: Request latency.
    labels: [path]
    buckets: [0.05, 0.25, 1, 5]
`

func TestLoadAndRegister(t *testing.T) {
	cfg, err := Load([]byte(testConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reg := metrics.NewRegistry(memstore.New())
	if err := cfg.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	descs := reg.Descriptors()
	if len(descs) != 4 {
		t.Fatalf("got %d descriptors, want 4", len(descs))
	}
	wantKinds := []metrics.Kind{
		metrics.CounterKind, metrics.GaugeKind, metrics.SummaryKind, metrics.HistogramKind,
	}
	for i, want := range wantKinds {
		if descs[i].Kind != want {
			t.Fatalf("descriptor %d kind = %v, want %v", i, descs[i].Kind, want)
		}
	}
	if !descs[0].Sharded {
		t.Fatal("counter should be sharded")
	}
	if descs[1].ExpireAfter != time.Minute {
		t.Fatalf("gauge expiry = %v, want 1m", descs[1].ExpireAfter)
	}
	if len(descs[3].Buckets) != 4 {
		t.Fatalf("histogram buckets = %v, want 4 bounds", descs[3].Buckets)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load([]byte("metrics:\n  - name: x\n    type: counter\n    quantiles: [0.5]\n"))
	if err == nil {
		t.Fatal("unknown field should fail strict parsing")
	}
}

func TestRegisterUnknownType(t *testing.T) {
	cfg, err := Load([]byte("metrics:\n  - name: x_total\n    type: meter\n    help: x\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.Register(metrics.NewRegistry(memstore.New()))
	if err == nil || !strings.Contains(err.Error(), "unknown metric type") {
		t.Fatalf("expected unknown-type error, got %v", err)
	}
}

func TestRegisterSurfacesConfigErrors(t *testing.T) {
	cfg, err := Load([]byte("metrics:\n  - name: h\n    type: histogram\n    help: x\n    buckets: [5, 1]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Register(metrics.NewRegistry(memstore.New())); err == nil {
		t.Fatal("descending buckets should fail registration")
	}
}
