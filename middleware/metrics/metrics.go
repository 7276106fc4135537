// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/pipeline"
)

// ID is the registry id of the metrics middleware.
const ID = "metrics"

const unmatched = "unmatched"

// Recorder is the metrics middleware.
type Recorder struct {
	cfg      *config
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	active   prometheus.Gauge
}

// New creates a Recorder and registers its collectors. A private registry
// also gets the Go runtime and process collectors.
func New(opts ...Option) (*Recorder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	reg := cfg.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	r := &Recorder{
		cfg:      cfg,
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.namespace,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests.",
			ConstLabels: cfg.constLabel,
		}, []string{"method", "route", "status", "status_class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			Buckets:     cfg.buckets,
			ConstLabels: cfg.constLabel,
		}, []string{"method", "route", "status_class"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.namespace,
			Name:        "http_requests_active",
			Help:        "HTTP requests currently being served.",
			ConstLabels: cfg.constLabel,
		}),
	}

	for _, c := range []prometheus.Collector{r.requests, r.duration, r.active} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return r, nil
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Process implements [pipeline.Middleware].
func (r *Recorder) Process(req pipeline.Request, next pipeline.Handler) (pipeline.Response, error) {
	if r.cfg.filter.shouldExclude(req.Path()) {
		return next(req)
	}

	r.active.Inc()
	start := time.Now()
	resp, err := next(req)
	elapsed := time.Since(start)
	r.active.Dec()

	status := resp.Status()
	if err != nil {
		status = riverrors.DefaultStatus(err)
		if s, ok := riverrors.StatusOf(err); ok {
			status = s
		}
	}

	route := req.AttributeString(pipeline.AttrRoute)
	if route == "" {
		route = unmatched
	}
	class := statusClass(status)

	r.requests.WithLabelValues(req.Method(), route, strconv.Itoa(status), class).Inc()
	r.duration.WithLabelValues(req.Method(), route, class).Observe(elapsed.Seconds())

	return resp, err
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}

	return strconv.Itoa(status/100) + "xx"
}
