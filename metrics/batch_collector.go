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
	"sync/atomic"
	"time"
)

// offerCounters accumulates Offer activity between flushes.
type offerCounters struct {
	counts  int64
	sizes   int64
	errors  int64
	backlog int64 // bytes currently buffered, as of the last RecordBacklog
}

func (o *offerCounters) reset() {
	atomic.StoreInt64(&o.counts, 0)
	atomic.StoreInt64(&o.sizes, 0)
	atomic.StoreInt64(&o.errors, 0)
}

// pollCounters accumulates Poll activity between flushes.
type pollCounters struct {
	counts int64
	sizes  int64
	errors int64
}

func (p *pollCounters) reset() {
	atomic.StoreInt64(&p.counts, 0)
	atomic.StoreInt64(&p.sizes, 0)
	atomic.StoreInt64(&p.errors, 0)
}

// supportCounters accumulates rollover, pool, and drain-worker activity.
type supportCounters struct {
	drainWorkerInc  int64
	drainWorkerDec  int64
	poolAlloc       int64
	rolloverCounts  int64
	rolloverLatency int64
	rolloverSkipped int64
	rolloverFailed  int64
	backlogSegments int64
}

func (s *supportCounters) reset() {
	atomic.StoreInt64(&s.drainWorkerInc, 0)
	atomic.StoreInt64(&s.drainWorkerDec, 0)
	atomic.StoreInt64(&s.poolAlloc, 0)
	atomic.StoreInt64(&s.rolloverCounts, 0)
	atomic.StoreInt64(&s.rolloverLatency, 0)
	atomic.StoreInt64(&s.rolloverSkipped, 0)
	atomic.StoreInt64(&s.rolloverFailed, 0)
}

var _ Recorder = (*BatchCollectImpl)(nil)

// BatchCollectImpl wraps an underlying Collector and schedules a
// recurring flush of the counters it accumulates between ticks, so the
// Offer/Poll hot paths only ever touch a handful of atomics.
type BatchCollectImpl struct {
	o   *offerCounters
	p   *pollCounters
	sp  *supportCounters
	mc  Collector
	t   *time.Ticker
	sem chan struct{}
}

// NewBatchCollector builds a BatchCollectImpl flushing mc every five
// seconds.
func NewBatchCollector(mc Collector) *BatchCollectImpl {
	const flushInterval = time.Second * 5
	b := &BatchCollectImpl{
		o:   &offerCounters{},
		p:   &pollCounters{},
		sp:  &supportCounters{},
		mc:  mc,
		t:   time.NewTicker(flushInterval),
		sem: make(chan struct{}),
	}

	b.mc.CollectSwitcher(true)

	return b
}

func (b *BatchCollectImpl) RecordOffer(size int64, err error) {
	if err != nil {
		atomic.AddInt64(&b.o.errors, 1)
		return
	}

	atomic.AddInt64(&b.o.counts, 1)
	atomic.AddInt64(&b.o.sizes, size)
}

func (b *BatchCollectImpl) RecordPoll(count, size int64, err error) {
	if err != nil {
		atomic.AddInt64(&b.p.errors, 1)
		return
	}

	atomic.AddInt64(&b.p.counts, count)
	atomic.AddInt64(&b.p.sizes, size)
}

func (b *BatchCollectImpl) RecordRollover(status RolloverStatus, latencySeconds float64) {
	switch status {
	case RolloverSkipped:
		atomic.AddInt64(&b.sp.rolloverSkipped, 1)
	case RolloverSuccess:
		atomic.AddInt64(&b.sp.rolloverCounts, 1)
		atomic.StoreInt64(&b.sp.rolloverLatency, int64(latencySeconds*float64(time.Second)))
	case RolloverFailed:
		atomic.AddInt64(&b.sp.rolloverFailed, 1)
	}
}

func (b *BatchCollectImpl) ObserveDrainWorker(op WorkerOp) {
	if op == WorkerInc {
		atomic.AddInt64(&b.sp.drainWorkerInc, 1)
		return
	}

	atomic.AddInt64(&b.sp.drainWorkerDec, 1)
}

func (b *BatchCollectImpl) RecordPoolAlloc() {
	atomic.AddInt64(&b.sp.poolAlloc, 1)
}

func (b *BatchCollectImpl) RecordBacklog(segments, bytes int64) {
	atomic.StoreInt64(&b.sp.backlogSegments, segments)
	atomic.StoreInt64(&b.o.backlog, bytes)
}

func (b *BatchCollectImpl) Start() {
	go b.asyncWorker()
}

func (b *BatchCollectImpl) Stop() {
	close(b.sem)
}

func (b *BatchCollectImpl) Flush() {
	b.report()
}

func (b *BatchCollectImpl) asyncWorker() {
	for {
		select {
		case <-b.sem:
			return
		case <-b.t.C:
			b.report()
		}
	}
}

func (b *BatchCollectImpl) report() {
	b.mc.ObserveOffer(float64(atomic.LoadInt64(&b.o.counts)),
		float64(atomic.LoadInt64(&b.o.sizes)),
		float64(atomic.LoadInt64(&b.o.errors)))
	b.mc.ObserveBacklog(float64(atomic.LoadInt64(&b.sp.backlogSegments)),
		float64(atomic.LoadInt64(&b.o.backlog)))
	b.o.reset()

	b.mc.ObservePoll(float64(atomic.LoadInt64(&b.p.counts)),
		float64(atomic.LoadInt64(&b.p.sizes)),
		float64(atomic.LoadInt64(&b.p.errors)))
	b.p.reset()

	b.mc.ObserveDrainWorker(WorkerInc, float64(atomic.LoadInt64(&b.sp.drainWorkerInc)))
	b.mc.ObserveDrainWorker(WorkerDec, float64(atomic.LoadInt64(&b.sp.drainWorkerDec)))
	b.mc.AllocInc(float64(atomic.LoadInt64(&b.sp.poolAlloc)))
	b.mc.ObserveRollover(RolloverSuccess,
		float64(atomic.LoadInt64(&b.sp.rolloverCounts)),
		float64(atomic.LoadInt64(&b.sp.rolloverLatency))/float64(time.Second))
	b.mc.ObserveRollover(RolloverSkipped, float64(atomic.LoadInt64(&b.sp.rolloverSkipped)), 0)
	b.mc.ObserveRollover(RolloverFailed, float64(atomic.LoadInt64(&b.sp.rolloverFailed)), 0)
	b.sp.reset()
}
