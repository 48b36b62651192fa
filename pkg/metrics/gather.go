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
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/go-kit/log/level"
	"github.com/golang/protobuf/proto"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/model"

	"github.com/promredis/promredis/pkg/keys"
	"github.com/promredis/promredis/pkg/telemetry"
)

// Gather enumerates every registered metric's keys in the shared store,
// aggregates them per label set and returns metric families in registration
// order, with samples sorted by label values.
//
// A store failure aborts the pass and returns (nil, err). Individual keys
// that cannot be decoded are counted, skipped and reported through a
// non-nil error alongside the successfully gathered families; callers that
// receive families may treat that error as a warning.
func (r *Registry) Gather(ctx context.Context) ([]*dto.MetricFamily, error) {
	telemetry.ScrapesTotal.Inc()
	start := time.Now()
	defer func() {
		telemetry.ScrapeDuration.Observe(time.Since(start).Seconds())
	}()

	descs := r.Descriptors()
	families := make([]*dto.MetricFamily, 0, len(descs))
	var errs MultiError
	for _, desc := range descs {
		mf, err := r.gatherMetric(ctx, desc, &errs)
		if err != nil {
			return nil, err
		}
		if mf != nil {
			families = append(families, mf)
		}
	}
	return families, errs.MaybeUnwrap()
}

// series accumulates the raw samples belonging to one (metric, label set)
// pair while a scan is grouped.
type series struct {
	labels  map[string]string
	value   float64 // counter shard sum, or gauge value
	sum     float64
	count   float64
	buckets map[float64]float64 // cumulative count per upper bound
}

func (r *Registry) gatherMetric(ctx context.Context, desc *Descriptor, errs *MultiError) (*dto.MetricFamily, error) {
	kvs, err := r.store.ScanPrefix(ctx, keys.Prefix(desc.Name))
	if err != nil {
		return nil, err
	}

	groups := map[uint64]*series{}
	seen := make(map[string]struct{}, len(kvs))
	for _, kv := range kvs {
		// The store contract promises each key at most once, but a repeated
		// key would be summed twice by the counter applier; drop repeats
		// rather than trust every adapter.
		if _, dup := seen[kv.Key]; dup {
			continue
		}
		seen[kv.Key] = struct{}{}
		name, labels, sub, derr := keys.Decode(kv.Key)
		if derr != nil {
			r.skipKey(errs, kv.Key, derr.Error())
			continue
		}
		if name != desc.Name {
			// Prefix scans terminate the name with the separator, so this
			// means the key was forged; treat it like a decode failure.
			r.skipKey(errs, kv.Key, "key name does not match scanned metric")
			continue
		}
		apply, ok := applierFor(desc, sub)
		if !ok {
			r.skipKey(errs, kv.Key, fmt.Sprintf("unexpected sub-key %q for %s", sub, desc.Kind))
			continue
		}
		fp := fingerprint(labels)
		sr, ok := groups[fp]
		if !ok {
			sr = &series{labels: labels, buckets: map[float64]float64{}}
			groups[fp] = sr
		}
		apply(sr, kv.Value)
	}

	if len(groups) == 0 {
		// The exposition text format has no representation for a family
		// without samples; prune it.
		return nil, nil
	}

	ms := make([]*dto.Metric, 0, len(groups))
	for _, sr := range groups {
		ms = append(ms, buildMetric(desc, sr))
	}
	sort.Sort(byLabels(ms))

	t := desc.Kind.dtoType()
	return &dto.MetricFamily{
		Name:   proto.String(desc.Name),
		Help:   proto.String(desc.Help),
		Type:   &t,
		Metric: ms,
	}, nil
}

// applierFor maps a decoded sub-key to the accumulation it performs, or
// reports that the sub-key is meaningless for the metric's kind.
func applierFor(desc *Descriptor, sub string) (func(*series, float64), bool) {
	switch desc.Kind {
	case CounterKind:
		// Shards of the same label set sum into one reported value.
		if sub == subValue || strings.HasPrefix(sub, subValue+":") {
			return func(s *series, v float64) { s.value += v }, true
		}
	case GaugeKind:
		if sub == subValue {
			return func(s *series, v float64) { s.value = v }, true
		}
	case SummaryKind:
		switch sub {
		case subSum:
			return func(s *series, v float64) { s.sum = v }, true
		case subCount:
			return func(s *series, v float64) { s.count = v }, true
		}
	case HistogramKind:
		switch sub {
		case subSum:
			return func(s *series, v float64) { s.sum = v }, true
		case subCount:
			return func(s *series, v float64) { s.count = v }, true
		}
		if bound, ok := parseBucketSub(sub); ok {
			return func(s *series, v float64) { s.buckets[bound] = v }, true
		}
	}
	return nil, false
}

func buildMetric(desc *Descriptor, sr *series) *dto.Metric {
	m := &dto.Metric{Label: labelPairs(sr.labels)}
	switch desc.Kind {
	case CounterKind:
		m.Counter = &dto.Counter{Value: proto.Float64(sr.value)}
	case GaugeKind:
		m.Gauge = &dto.Gauge{Value: proto.Float64(sr.value)}
	case SummaryKind:
		m.Summary = &dto.Summary{
			SampleCount: proto.Uint64(toCount(sr.count)),
			SampleSum:   proto.Float64(sr.sum),
		}
	case HistogramKind:
		// Buckets are stored cumulatively, so a bound no observation fell
		// under simply has no key and reads as zero. The +Inf bucket is
		// implied by the sample count in the exposition format.
		buckets := make([]*dto.Bucket, 0, len(desc.Buckets))
		for _, bound := range desc.Buckets {
			buckets = append(buckets, &dto.Bucket{
				UpperBound:      proto.Float64(bound),
				CumulativeCount: proto.Uint64(toCount(sr.buckets[bound])),
			})
		}
		m.Histogram = &dto.Histogram{
			SampleCount: proto.Uint64(toCount(sr.count)),
			SampleSum:   proto.Float64(sr.sum),
			Bucket:      buckets,
		}
	}
	return m
}

// toCount converts a stored accumulator to an exposition count. A corrupted
// negative value clamps to zero instead of wrapping around uint64.
func toCount(v float64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func (r *Registry) skipKey(errs *MultiError, key, reason string) {
	telemetry.SkippedKeys.Inc()
	level.Debug(r.logger).Log("msg", "skipping shared-store key", "key", key, "reason", reason)
	*errs = append(*errs, fmt.Errorf("skipped key %q: %s", key, reason))
}

// fingerprint hashes a label set for grouping, fnv64a over sorted
// name/value pairs.
func fingerprint(labels map[string]string) uint64 {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	h := fnv.New64a()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{model.SeparatorByte})
		h.Write([]byte(labels[name]))
		h.Write([]byte{model.SeparatorByte})
	}
	return h.Sum64()
}

func labelPairs(labels map[string]string) []*dto.LabelPair {
	if len(labels) == 0 {
		return nil
	}
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]*dto.LabelPair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, &dto.LabelPair{
			Name:  proto.String(name),
			Value: proto.String(labels[name]),
		})
	}
	return pairs
}

// byLabels sorts samples of one family by their label values for
// reproducible exposition output.
type byLabels []*dto.Metric

func (s byLabels) Len() int      { return len(s) }
func (s byLabels) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byLabels) Less(i, j int) bool {
	if len(s[i].Label) != len(s[j].Label) {
		return len(s[i].Label) < len(s[j].Label)
	}
	for n, lp := range s[i].Label {
		vi := lp.GetValue()
		vj := s[j].Label[n].GetValue()
		if vi != vj {
			return vi < vj
		}
	}
	return false
}

// MultiError collects the per-key problems of one gathering pass.
type MultiError []error

func (errs MultiError) Error() string {
	if len(errs) == 0 {
		return ""
	}
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%d error(s) occurred:", len(errs))
	for _, err := range errs {
		fmt.Fprintf(buf, "\n* %s", err)
	}
	return buf.String()
}

// MaybeUnwrap returns nil for an empty MultiError and the sole error for a
// singleton one, so callers only ever see a MultiError when there really are
// several.
func (errs MultiError) MaybeUnwrap() error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errs
	}
}
