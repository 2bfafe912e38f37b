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

package overflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/metrics"
	"github.com/flowdisk/overflow/utils/atomicx"
)

// Drain is the Drain Coordinator: it pulls from the overflow queue
// according to downstream demand and delivers items to child, scheduling
// its drain cycles onto worker one at a time. Translated from the
// original QueueProducer's AtomicLong-backed request counter and
// AtomicInteger-backed drainRequested gate.
type Drain[T any] struct {
	queue  overflowQueue[T]
	child  Subscriber[T]
	worker Worker

	delayError bool
	logger     *slog.Logger
	recorder   metrics.Recorder
	waiters    *waiterManager

	requested      atomicx.Int64
	drainRequested atomicx.Int32
	done           atomicx.Bool
	unsubscribed   atomicx.Bool
	// err is written just before done is set and read just after done is
	// read, so it doesn't need to be atomic itself: done's store/load
	// pairing is the memory barrier that makes this write visible.
	err error
}

// NewDrain builds a Drain Coordinator over q, delivering to child on
// worker.
func NewDrain[T any](q overflowQueue[T], child Subscriber[T], worker Worker, delayError bool, logger *slog.Logger, recorder metrics.Recorder) *Drain[T] {
	return &Drain[T]{
		queue:      q,
		child:      child,
		worker:     worker,
		delayError: delayError,
		logger:     logger,
		recorder:   recorder,
		waiters:    newWaiterManager(),
	}
}

// OnNext offers item to the queue and schedules a drain cycle. A refused
// Offer (queue full, no rollover configured to absorb it, or a queue
// I/O failure) is fatal to the operator, matching the original's
// "could not place item on queue" RuntimeException path.
func (d *Drain[T]) OnNext(item T) {
	ok, err := d.queue.Offer(item)
	if err == nil && !ok {
		err = fmt.Errorf("%w: item=%v", errorx.ErrQueueFull, item)
	}
	d.recorder.RecordOffer(0, err)
	if err != nil {
		d.OnError(err)
		return
	}

	d.drain()
}

// OnError records the upstream error and triggers a drain cycle so it
// can be delivered (immediately, or after delayError lets the buffered
// backlog drain first).
func (d *Drain[T]) OnError(err error) {
	d.err = err
	d.done.Store(true)
	d.drain()
}

// OnCompleted marks the upstream as finished and triggers a final drain.
func (d *Drain[T]) OnCompleted() {
	d.done.Store(true)
	d.drain()
}

// Request satisfies Producer: it records additional downstream demand
// and triggers a drain cycle.
func (d *Drain[T]) Request(n int64) {
	if n <= 0 {
		return
	}
	d.requested.AddSaturating(n)
	d.drain()
}

// Unsubscribe stops further drain cycles from being scheduled. Safe to
// call concurrently with drain activity; an in-flight cycle observes it
// at its next loop iteration.
func (d *Drain[T]) Unsubscribe() { d.unsubscribed.Store(true) }

func (d *Drain[T]) isUnsubscribed() bool { return d.unsubscribed.Load() }

// AwaitDrained blocks until the Drain Coordinator has delivered its
// terminal event (OnError or OnCompleted to child), or ctx is done.
func (d *Drain[T]) AwaitDrained(ctx context.Context) error {
	ch := d.waiters.register()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain schedules exactly one drain cycle at a time: if the
// getAndIncrement below observes drainRequested was 0, no cycle is
// currently running (or about to check again), so this call must be the
// one to schedule it.
func (d *Drain[T]) drain() {
	if d.isUnsubscribed() {
		return
	}
	old := d.drainRequested.Add(1) - 1
	if old == 0 {
		d.recorder.ObserveDrainWorker(metrics.WorkerInc)
		d.worker.Schedule(d.drainNow)
	}
}

func (d *Drain[T]) drainNow() {
	defer d.recorder.ObserveDrainWorker(metrics.WorkerDec)

	for {
		d.drainRequested.Store(1)
		if d.isUnsubscribed() {
			return
		}

		requests := d.requested.Load()
		var emitted int64

		for requests > 0 {
			if d.isUnsubscribed() {
				return
			}
			item, ok, err := d.queue.Poll()
			if err != nil {
				d.recorder.RecordPoll(0, 0, err)
				d.deliverFatal(err)
				return
			}
			if !ok {
				if emitted != 0 {
					requests = d.requested.Add(-emitted)
					emitted = 0
					segments, bytes := d.queue.Backlog()
					d.recorder.RecordBacklog(segments, bytes)
				}
				if d.finished() {
					return
				}
				break
			}

			d.recorder.RecordPoll(1, 0, nil)
			d.child.OnNext(item)
			requests--
			emitted++
		}

		if emitted != 0 {
			requests = d.requested.Add(-emitted)
			segments, bytes := d.queue.Backlog()
			d.recorder.RecordBacklog(segments, bytes)
		}
		if d.isUnsubscribed() || (requests == 0 && d.finished()) {
			return
		}
	}
}

// finished checks whether the upstream has signalled done and, if so,
// whether the queue has drained far enough to deliver the terminal
// event now. It mirrors the original finished()'s three-way branch:
// deliver on empty, shortcut past remaining items on a non-delayed
// error, or keep draining when delayError holds the error back.
func (d *Drain[T]) finished() bool {
	if !d.done.Load() {
		return d.drainRequested.CompareAndSwap(1, 0)
	}

	err := d.err
	if d.queue.IsEmpty() {
		d.deliverTerminal(err)
		return true
	}
	if err != nil && !d.delayError {
		d.deliverTerminal(err)
		return true
	}

	return d.drainRequested.CompareAndSwap(1, 0)
}

func (d *Drain[T]) deliverTerminal(err error) {
	_ = d.queue.Close()
	defer d.waiters.notifyDone()

	if err != nil {
		d.logger.Warn("overflow buffer delivering terminal error", "err", err)
		d.child.OnError(err)
		return
	}
	d.logger.Info("overflow buffer drained to completion")
	d.child.OnCompleted()
}

func (d *Drain[T]) deliverFatal(err error) {
	d.logger.Error("overflow buffer queue failed", "err", err)
	_ = d.queue.Close()
	defer d.waiters.notifyDone()
	d.child.OnError(err)
}
