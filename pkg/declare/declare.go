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

// Package declare loads metric declarations from YAML. The standalone
// exposition server is not the process doing the instrumenting, so it has to
// be told which descriptors exist before it can aggregate them:
//
//	metrics:
//	  - name: requests_total
//	    type: counter
//	    help: Requests served.
//	    labels: [method, path]
//	  - name: request_duration_seconds
//	    type: histogram
//	    help: Request latency.
//	    labels: [path]
//	    buckets: [0.05, 0.25, 1, 5]
package declare

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/common/model"
	yaml "gopkg.in/yaml.v2"

	"github.com/promredis/promredis/pkg/metrics"
)

type Config struct {
	Metrics []Declaration `yaml:"metrics"`
}

type Declaration struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Help        string         `yaml:"help"`
	Labels      []string       `yaml:"labels"`
	Buckets     []float64      `yaml:"buckets"`
	ExpireAfter model.Duration `yaml:"expire_after"`
	Sharded     bool           `yaml:"sharded"`
}

// Load parses a declaration document.
func Load(contents []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(contents, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile parses the declaration file at path.
func LoadFile(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(contents)
}

// Register registers every declared metric into reg. Registration errors
// carry the declaration's name and abort on the first failure.
func (c *Config) Register(reg *metrics.Registry) error {
	for _, d := range c.Metrics {
		var err error
		switch d.Type {
		case "counter":
			_, err = reg.RegisterCounter(metrics.CounterOpts{
				Name:       d.Name,
				Help:       d.Help,
				LabelNames: d.Labels,
				Sharded:    d.Sharded,
			})
		case "gauge":
			_, err = reg.RegisterGauge(metrics.GaugeOpts{
				Name:        d.Name,
				Help:        d.Help,
				LabelNames:  d.Labels,
				ExpireAfter: time.Duration(d.ExpireAfter),
			})
		case "summary":
			_, err = reg.RegisterSummary(metrics.SummaryOpts{
				Name:       d.Name,
				Help:       d.Help,
				LabelNames: d.Labels,
			})
		case "histogram":
			_, err = reg.RegisterHistogram(metrics.HistogramOpts{
				Name:       d.Name,
				Help:       d.Help,
				LabelNames: d.Labels,
				Buckets:    d.Buckets,
			})
		default:
			err = fmt.Errorf("unknown metric type %q", d.Type)
		}
		if err != nil {
			return fmt.Errorf("declaring metric %q: %w", d.Name, err)
		}
	}
	return nil
}
