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

// The promredis server aggregates metrics that any number of processes have
// recorded in a shared Redis instance and serves them in the Prometheus text
// exposition format.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/promlog"
	"github.com/prometheus/common/promlog/flag"

	"github.com/promredis/promredis/pkg/declare"
	"github.com/promredis/promredis/pkg/exposition"
	"github.com/promredis/promredis/pkg/metrics"
	"github.com/promredis/promredis/pkg/store/redisstore"
)

const startupTimeout = 10 * time.Second

func main() {
	var (
		listenAddress = kingpin.Flag("web.listen-address", "Address on which to serve the exposition endpoint.").Default(":9690").String()
		metricsPath   = kingpin.Flag("web.telemetry-path", "Path under which to serve metrics.").Default("/metrics").String()
		redisURI      = kingpin.Flag("redis.uri", "URI of the Redis instance holding the shared metric state.").Envar("METRICS_REDIS_URI").String()
		declareConfig = kingpin.Flag("declare.config", "YAML file declaring the metrics to aggregate.").Default("").String()
	)

	promlogConfig := &promlog.Config{}
	flag.AddFlags(kingpin.CommandLine, promlogConfig)
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()
	logger := promlog.New(promlogConfig)

	if *redisURI == "" {
		level.Error(logger).Log("msg", "no Redis URI configured, set --redis.uri or METRICS_REDIS_URI")
		os.Exit(1)
	}

	st, err := redisstore.NewFromURI(*redisURI)
	if err != nil {
		level.Error(logger).Log("msg", "invalid Redis URI", "err", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	if err := st.Ping(ctx); err != nil {
		level.Error(logger).Log("msg", "cannot reach Redis", "err", err)
		os.Exit(1)
	}
	cancel()

	reg := metrics.NewRegistry(st, metrics.WithLogger(logger))
	if *declareConfig != "" {
		cfg, err := declare.LoadFile(*declareConfig)
		if err != nil {
			level.Error(logger).Log("msg", "cannot load declaration config", "path", *declareConfig, "err", err)
			os.Exit(1)
		}
		if err := cfg.Register(reg); err != nil {
			level.Error(logger).Log("msg", "cannot register declared metrics", "path", *declareConfig, "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "declared metrics registered", "count", len(cfg.Metrics))
	}

	http.Handle(*metricsPath, exposition.Handler(reg, exposition.HandlerOpts{
		Logger:       logger,
		SelfGatherer: prometheus.DefaultGatherer,
	}))
	http.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>
<head><title>PromRedis Server</title></head>
<body>
<h1>PromRedis Server</h1>
<p><a href="` + *metricsPath + `">Metrics</a></p>
</body>
</html>`))
	})

	level.Info(logger).Log("msg", "listening", "address", *listenAddress)
	if err := http.ListenAndServe(*listenAddress, nil); err != nil {
		level.Error(logger).Log("msg", "server exited", "err", err)
		os.Exit(1)
	}
}
