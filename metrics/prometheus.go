// Copyright 2025 TimeWtr
//
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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mc       *Prometheus
	registry *prometheus.Registry
)

// GetHandler returns the HTTP handler exposing the registry, for wiring
// into whatever server the caller already runs.
func GetHandler() http.Handler {
	return promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

var _ Collector = (*Prometheus)(nil)

type Prometheus struct {
	enabled bool

	offerCounter *prometheus.CounterVec
	offerSizes   prometheus.Counter
	offerErrors  prometheus.Counter

	pollCounter *prometheus.CounterVec
	pollSizes   prometheus.Counter
	pollErrors  prometheus.Counter

	rolloverCounts  prometheus.Counter
	rolloverLatency prometheus.Histogram
	rolloverSkipped prometheus.Counter
	rolloverFailed  prometheus.Counter

	backlogSegments prometheus.Gauge
	backlogBytes    prometheus.Gauge
	drainWorkers    prometheus.Gauge
	poolAlloc       prometheus.Counter
}

// NewPrometheus builds a Prometheus-backed Collector with its own
// registry, ready to serve via GetHandler.
func NewPrometheus() *Prometheus {
	mc = &Prometheus{}
	registry = prometheus.NewRegistry()
	return mc.register()
}

func (p *Prometheus) register() *Prometheus {
	const namespace = "overflow_buffer"

	p.offerCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offer_counts_total",
		Help:      "Number of items offered to the queue.",
	}, []string{"result"})
	registry.MustRegister(p.offerCounter)

	p.offerSizes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offer_bytes_total",
		Help:      "Total framed bytes offered to the queue.",
	})
	registry.MustRegister(p.offerSizes)

	p.offerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offer_errors_total",
		Help:      "Number of Offer calls that returned an error.",
	})
	registry.MustRegister(p.offerErrors)

	p.pollCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_counts_total",
		Help:      "Number of items polled from the queue.",
	}, []string{"result"})
	registry.MustRegister(p.pollCounter)

	p.pollSizes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_bytes_total",
		Help:      "Total framed bytes polled from the queue.",
	})
	registry.MustRegister(p.pollSizes)

	p.pollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Number of Poll calls that returned an error.",
	})
	registry.MustRegister(p.pollErrors)

	p.poolAlloc = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scratch_pool_alloc_total",
		Help:      "Number of scratch buffer allocations that missed the pool.",
	})
	registry.MustRegister(p.poolAlloc)

	p.drainWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "drain_workers",
		Help:      "Number of active drain workers.",
	})
	registry.MustRegister(p.drainWorkers)

	p.rolloverCounts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rollover_counts_total",
		Help:      "Number of segment rollovers.",
	})
	registry.MustRegister(p.rolloverCounts)

	p.rolloverSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rollover_skipped_total",
		Help:      "Number of Offer calls that did not require a rollover.",
	})
	registry.MustRegister(p.rolloverSkipped)

	p.rolloverFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rollover_failed_total",
		Help:      "Number of rollovers that failed to seal or create a segment.",
	})
	registry.MustRegister(p.rolloverFailed)

	p.rolloverLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rollover_latency_seconds",
		Help:      "Latency of sealing the old segment and opening the new one.",
	})
	registry.MustRegister(p.rolloverLatency)

	p.backlogSegments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backlog_segments",
		Help:      "Number of live segments in the rolling queue.",
	})
	registry.MustRegister(p.backlogSegments)

	p.backlogBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backlog_bytes",
		Help:      "Bytes currently buffered across all segments.",
	})
	registry.MustRegister(p.backlogBytes)

	return p
}

func (p *Prometheus) CollectSwitcher(enable bool) {
	p.enabled = enable
}

func (p *Prometheus) ObserveOffer(counts, bytes, errors float64) {
	if !p.enabled {
		return
	}

	p.offerCounter.With(prometheus.Labels{"result": "success"}).Add(counts)
	p.offerSizes.Add(bytes)
	p.offerErrors.Add(errors)
}

func (p *Prometheus) ObservePoll(counts, bytes, errors float64) {
	if !p.enabled {
		return
	}

	p.pollCounter.With(prometheus.Labels{"result": "success"}).Add(counts)
	p.pollSizes.Add(bytes)
	p.pollErrors.Add(errors)
}

func (p *Prometheus) AllocInc(delta float64) {
	if !p.enabled {
		return
	}

	p.poolAlloc.Add(delta)
}

func (p *Prometheus) ObserveDrainWorker(op WorkerOp, counts float64) {
	if !p.enabled {
		return
	}

	if op == WorkerInc {
		p.drainWorkers.Add(counts)
	} else {
		p.drainWorkers.Add(-counts)
	}
}

func (p *Prometheus) ObserveRollover(status RolloverStatus, counts, latencySeconds float64) {
	if !p.enabled {
		return
	}

	switch status {
	case RolloverSuccess:
		p.rolloverCounts.Add(counts)
		p.rolloverLatency.Observe(latencySeconds)
	case RolloverSkipped:
		p.rolloverSkipped.Add(counts)
	case RolloverFailed:
		p.rolloverFailed.Add(counts)
	}
}

func (p *Prometheus) ObserveBacklog(segments, bytes float64) {
	if !p.enabled {
		return
	}

	p.backlogSegments.Set(segments)
	p.backlogBytes.Set(bytes)
}
