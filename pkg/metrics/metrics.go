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

// Package metrics implements counters, gauges, summaries and histograms whose
// state lives in a shared key-value store instead of process memory. Any
// number of processes can update the same metric concurrently; correctness
// rests on the store's per-key atomic operations, and a scrape aggregates
// whatever all processes have written.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/model"

	"github.com/promredis/promredis/pkg/keys"
)

// Kind is the metric type of a Descriptor.
type Kind int

const (
	CounterKind Kind = iota
	GaugeKind
	SummaryKind
	HistogramKind
)

func (k Kind) String() string {
	switch k {
	case CounterKind:
		return "counter"
	case GaugeKind:
		return "gauge"
	case SummaryKind:
		return "summary"
	case HistogramKind:
		return "histogram"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) dtoType() dto.MetricType {
	switch k {
	case CounterKind:
		return dto.MetricType_COUNTER
	case GaugeKind:
		return dto.MetricType_GAUGE
	case SummaryKind:
		return dto.MetricType_SUMMARY
	case HistogramKind:
		return dto.MetricType_HISTOGRAM
	}
	return dto.MetricType_UNTYPED
}

// Labels is one concrete label-name to label-value assignment for an
// observation. Its keys must match the descriptor's label names exactly.
type Labels map[string]string

// Descriptor describes one registered metric. Immutable after registration;
// owned by the Registry.
type Descriptor struct {
	Name       string
	Kind       Kind
	Help       string
	LabelNames []string

	// Buckets are the ascending upper bounds of a histogram, without the
	// implicit +Inf bound.
	Buckets []float64

	// ExpireAfter, for gauges, makes every written key carry this TTL. The
	// registry's refresher keeps the keys of live processes from expiring.
	ExpireAfter time.Duration

	// Sharded counters write to a per-process sub-key to avoid contention on
	// one hot key; scrapes sum all shards.
	Sharded bool
}

func (d *Descriptor) validate() error {
	if !keys.ValidMetricName(d.Name) {
		return &ConfigError{Metric: d.Name, Reason: "invalid metric name"}
	}
	for _, ln := range d.LabelNames {
		if !model.LabelName(ln).IsValid() || strings.HasPrefix(ln, model.ReservedLabelPrefix) {
			return &ConfigError{Metric: d.Name, Reason: fmt.Sprintf("invalid label name %q", ln)}
		}
		if d.Kind == HistogramKind && ln == model.BucketLabel {
			return &ConfigError{Metric: d.Name, Reason: `histograms reserve the "le" label`}
		}
	}
	if d.Kind == HistogramKind {
		if len(d.Buckets) == 0 {
			return &ConfigError{Metric: d.Name, Reason: "histogram needs at least one bucket bound"}
		}
		for i, b := range d.Buckets {
			if math.IsNaN(b) || math.IsInf(b, 0) {
				return &ConfigError{Metric: d.Name, Reason: "bucket bounds must be finite; +Inf is implicit"}
			}
			if i > 0 && b <= d.Buckets[i-1] {
				return &ConfigError{Metric: d.Name, Reason: fmt.Sprintf("bucket bounds not strictly ascending at %v", b)}
			}
		}
	}
	return nil
}

// equal reports whether two descriptors are interchangeable, which makes
// duplicate registration idempotent.
func (d *Descriptor) equal(o *Descriptor) bool {
	if d.Name != o.Name || d.Kind != o.Kind || d.Help != o.Help ||
		d.ExpireAfter != o.ExpireAfter || d.Sharded != o.Sharded {
		return false
	}
	if !sameNameSet(d.LabelNames, o.LabelNames) {
		return false
	}
	if len(d.Buckets) != len(o.Buckets) {
		return false
	}
	for i, b := range d.Buckets {
		if o.Buckets[i] != b {
			return false
		}
	}
	return true
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// checkLabels rejects observations whose label set does not match the
// declared shape. Unknown and missing labels both fail fast.
func (d *Descriptor) checkLabels(labels Labels) error {
	if len(labels) != len(d.LabelNames) {
		return &ValueError{Metric: d.Name, Reason: fmt.Sprintf(
			"expected labels {%s}, got %d values", strings.Join(d.LabelNames, ", "), len(labels))}
	}
	for _, ln := range d.LabelNames {
		if _, ok := labels[ln]; !ok {
			return &ValueError{Metric: d.Name, Reason: fmt.Sprintf("missing label %q", ln)}
		}
	}
	return nil
}

// ConfigError is a fatal registration-time error: a bad metric or label name,
// or bucket bounds that are not strictly ascending.
type ConfigError struct {
	Metric string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for metric %q: %s", e.Metric, e.Reason)
}

// ConflictError is a fatal registration-time error: the name is already taken
// by a metric with a different kind, label set or parameters.
type ConflictError struct {
	Metric string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("metric %q conflicts with an existing registration: %s", e.Metric, e.Reason)
}

// ValueError is a recoverable instrumentation-call error, such as a negative
// counter delta or a label set that does not match the descriptor. The update
// is not applied.
type ValueError struct {
	Metric string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value for metric %q: %s", e.Metric, e.Reason)
}
