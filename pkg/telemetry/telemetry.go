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

// Package telemetry holds the library's own metrics. These are ordinary
// in-process client_golang metrics, not shared-store ones: they describe the
// health of this process's instrumentation and scraping, and the exposition
// handler can append them to a scrape.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScrapesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promredis_scrapes_total",
			Help: "The total number of aggregation passes over the shared store.",
		},
	)
	ScrapeDuration = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name: "promredis_scrape_duration_seconds",
			Help: "Time taken by aggregation passes over the shared store.",
		},
	)
	SkippedKeys = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promredis_skipped_keys_total",
			Help: "The total number of shared-store keys skipped during scrapes because they could not be decoded.",
		},
	)
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promredis_store_errors_total",
			Help: "The total number of failed shared-store operations.",
		},
		[]string{"operation"},
	)
	RefreshesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "promredis_gauge_refreshes_total",
			Help: "The total number of background refresh passes over expiring gauges.",
		},
	)
)

func init() {
	prometheus.MustRegister(ScrapesTotal)
	prometheus.MustRegister(ScrapeDuration)
	prometheus.MustRegister(SkippedKeys)
	prometheus.MustRegister(StoreErrors)
	prometheus.MustRegister(RefreshesTotal)
}
