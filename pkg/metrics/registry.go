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
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"

	"github.com/promredis/promredis/pkg/store"
)

const defaultRefreshInterval = 30 * time.Second

// Registry is the process-wide catalogue of metric descriptors. Metric
// values live in the shared store, never here; the registry only knows which
// metrics exist so a scrape can enumerate them. Registration is idempotent
// for identical descriptors and iteration follows registration order, so
// exposition output is reproducible. All methods are safe for concurrent use.
type Registry struct {
	store           store.Store
	logger          log.Logger
	shardID         string
	refreshInterval time.Duration

	mtx     sync.RWMutex
	byName  map[string]*registered
	ordered []*registered
	refresh *refresher
}

type registered struct {
	desc   *Descriptor
	handle interface{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger routes the registry's (sparse) logging somewhere.
func WithLogger(l log.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithShardID overrides the shard discriminator sharded counters write
// under. The default is "<hostname>-<pid>".
func WithShardID(id string) Option {
	return func(r *Registry) { r.shardID = sanitizeShardID(id) }
}

// WithGaugeRefreshInterval overrides how often expiring gauge values are
// re-written to keep their TTLs from firing while this process lives.
func WithGaugeRefreshInterval(d time.Duration) Option {
	return func(r *Registry) { r.refreshInterval = d }
}

// NewRegistry builds a registry writing to st.
func NewRegistry(st store.Store, opts ...Option) *Registry {
	r := &Registry{
		store:           st,
		logger:          log.NewNopLogger(),
		shardID:         defaultShardID(),
		refreshInterval: defaultRefreshInterval,
		byName:          map[string]*registered{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CounterOpts describes a counter to register.
type CounterOpts struct {
	Name       string
	Help       string
	LabelNames []string

	// Sharded spreads writes over one sub-key per process. Use it for hot
	// counters; scrapes sum the shards either way.
	Sharded bool
}

// GaugeOpts describes a gauge to register.
type GaugeOpts struct {
	Name       string
	Help       string
	LabelNames []string

	// ExpireAfter, when non-zero, puts a TTL on every written key and
	// enrolls the gauge with the registry's background refresher. Series
	// written by processes that died stop being reported once the TTL
	// passes.
	ExpireAfter time.Duration
}

// SummaryOpts describes a summary to register. Only the observation sum and
// count are tracked; quantiles cannot be merged across processes.
type SummaryOpts struct {
	Name       string
	Help       string
	LabelNames []string
}

// HistogramOpts describes a histogram to register.
type HistogramOpts struct {
	Name       string
	Help       string
	LabelNames []string

	// Buckets are the upper bounds, strictly ascending. +Inf is implicit.
	Buckets []float64
}

// RegisterCounter registers a counter, or returns the existing handle if an
// identical descriptor is already registered.
func (r *Registry) RegisterCounter(opts CounterOpts) (*Counter, error) {
	desc := &Descriptor{
		Name:       opts.Name,
		Kind:       CounterKind,
		Help:       opts.Help,
		LabelNames: append([]string(nil), opts.LabelNames...),
		Sharded:    opts.Sharded,
	}
	h, err := r.register(desc, func() interface{} { return &Counter{reg: r, desc: desc} })
	if err != nil {
		return nil, err
	}
	return h.(*Counter), nil
}

// RegisterGauge registers a gauge, or returns the existing handle if an
// identical descriptor is already registered.
func (r *Registry) RegisterGauge(opts GaugeOpts) (*Gauge, error) {
	desc := &Descriptor{
		Name:        opts.Name,
		Kind:        GaugeKind,
		Help:        opts.Help,
		LabelNames:  append([]string(nil), opts.LabelNames...),
		ExpireAfter: opts.ExpireAfter,
	}
	h, err := r.register(desc, func() interface{} {
		return &Gauge{reg: r, desc: desc, shadow: map[string]float64{}}
	})
	if err != nil {
		return nil, err
	}
	return h.(*Gauge), nil
}

// RegisterSummary registers a summary, or returns the existing handle if an
// identical descriptor is already registered.
func (r *Registry) RegisterSummary(opts SummaryOpts) (*Summary, error) {
	desc := &Descriptor{
		Name:       opts.Name,
		Kind:       SummaryKind,
		Help:       opts.Help,
		LabelNames: append([]string(nil), opts.LabelNames...),
	}
	h, err := r.register(desc, func() interface{} { return &Summary{reg: r, desc: desc} })
	if err != nil {
		return nil, err
	}
	return h.(*Summary), nil
}

// RegisterHistogram registers a histogram, or returns the existing handle if
// an identical descriptor is already registered.
func (r *Registry) RegisterHistogram(opts HistogramOpts) (*Histogram, error) {
	desc := &Descriptor{
		Name:       opts.Name,
		Kind:       HistogramKind,
		Help:       opts.Help,
		LabelNames: append([]string(nil), opts.LabelNames...),
		Buckets:    append([]float64(nil), opts.Buckets...),
	}
	h, err := r.register(desc, func() interface{} { return &Histogram{reg: r, desc: desc} })
	if err != nil {
		return nil, err
	}
	return h.(*Histogram), nil
}

// MustRegisterCounter is RegisterCounter that panics on error.
func (r *Registry) MustRegisterCounter(opts CounterOpts) *Counter {
	c, err := r.RegisterCounter(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// MustRegisterGauge is RegisterGauge that panics on error.
func (r *Registry) MustRegisterGauge(opts GaugeOpts) *Gauge {
	g, err := r.RegisterGauge(opts)
	if err != nil {
		panic(err)
	}
	return g
}

// MustRegisterSummary is RegisterSummary that panics on error.
func (r *Registry) MustRegisterSummary(opts SummaryOpts) *Summary {
	s, err := r.RegisterSummary(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// MustRegisterHistogram is RegisterHistogram that panics on error.
func (r *Registry) MustRegisterHistogram(opts HistogramOpts) *Histogram {
	h, err := r.RegisterHistogram(opts)
	if err != nil {
		panic(err)
	}
	return h
}

func (r *Registry) register(desc *Descriptor, build func() interface{}) (interface{}, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if existing, ok := r.byName[desc.Name]; ok {
		if existing.desc.equal(desc) {
			return existing.handle, nil
		}
		return nil, &ConflictError{
			Metric: desc.Name,
			Reason: fmt.Sprintf("registered as %s%v, re-registered as %s%v",
				existing.desc.Kind, existing.desc.LabelNames, desc.Kind, desc.LabelNames),
		}
	}
	reg := &registered{desc: desc, handle: build()}
	r.byName[desc.Name] = reg
	r.ordered = append(r.ordered, reg)
	return reg.handle, nil
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	descs := make([]*Descriptor, len(r.ordered))
	for i, reg := range r.ordered {
		descs[i] = reg.desc
	}
	return descs
}

// Close stops the background gauge refresher, if one was started. The
// registry itself stays usable.
func (r *Registry) Close() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.refresh != nil {
		r.refresh.stop()
		r.refresh = nil
	}
}

func defaultShardID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return sanitizeShardID(fmt.Sprintf("%s-%d", host, os.Getpid()))
}

// Shard IDs end up inside shared-store keys, where ':' is the separator.
func sanitizeShardID(id string) string {
	return strings.Map(func(ch rune) rune {
		if ch == ':' || ch == ' ' {
			return '-'
		}
		return ch
	}, id)
}
