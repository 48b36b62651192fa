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

// Package exposition serves aggregated shared-store metrics in the
// Prometheus text exposition format.
package exposition

import (
	"fmt"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/promredis/promredis/pkg/metrics"
)

const contentType = `text/plain; version=0.0.4; charset=utf-8`

// HandlerOpts configures a Handler.
type HandlerOpts struct {
	Logger log.Logger

	// SelfGatherer, when set, appends its families to every scrape. Pass
	// prometheus.DefaultGatherer to expose the library's own telemetry next
	// to the aggregated metrics.
	SelfGatherer prometheus.Gatherer
}

// Handler returns the scrape endpoint for a registry. A scrape that cannot
// reach the shared store at all answers 500; a scrape that merely had to
// skip undecodable keys answers 200 with everything that did decode.
func Handler(reg *metrics.Registry, opts HandlerOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		families, err := reg.Gather(req.Context())
		if err != nil {
			if families == nil {
				level.Error(logger).Log("msg", "scrape failed", "err", err)
				http.Error(w, fmt.Sprintf("collection failed: %v", err), http.StatusInternalServerError)
				return
			}
			level.Warn(logger).Log("msg", "scrape degraded, some keys skipped", "err", err)
		}

		if opts.SelfGatherer != nil {
			own, gerr := opts.SelfGatherer.Gather()
			if gerr != nil {
				level.Warn(logger).Log("msg", "gathering self telemetry failed", "err", gerr)
			}
			families = append(families, own...)
		}

		w.Header().Set("Content-Type", contentType)
		for _, mf := range families {
			if _, werr := expfmt.MetricFamilyToText(w, mf); werr != nil {
				// The client hung up mid-scrape; nothing sensible to send.
				level.Debug(logger).Log("msg", "writing exposition output failed", "err", werr)
				return
			}
		}
	})
}
