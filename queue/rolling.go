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

package queue

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/metrics"
	"github.com/flowdisk/overflow/poolx"
)

// Rolling is the rolling SPSC queue (RSQ): an ordered sequence of
// Segments, appended at the tail by the producer on rollover and popped
// at the head by the drain loop on retirement. Safe for exactly one
// appender and one popper, guarded by a mutex the way the teacher's
// BufferQueue guards its own container/list.List.
type Rolling[T any] struct {
	mu   sync.Mutex
	segs *list.List

	factory  FileFactory
	ser      Serializer[T]
	capacity int64
	mapper   poolx.MemoryMapper
	scratch  *poolx.ScratchPool
	policy   RolloverPolicy
	untrack  UntrackFunc
	recorder metrics.Recorder

	state atomic.Int32
}

// NewRolling creates the RSQ with a single initial segment. untrack, if
// non-nil, is forwarded to every segment the RSQ creates, including
// those created later by rollover. recorder, if nil, defaults to a
// no-op.
func NewRolling[T any](
	factory FileFactory,
	ser Serializer[T],
	capacity int64,
	mapper poolx.MemoryMapper,
	scratch *poolx.ScratchPool,
	policy RolloverPolicy,
	untrack UntrackFunc,
	recorder metrics.Recorder,
) (*Rolling[T], error) {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	first, err := NewSegment(factory, ser, capacity, mapper, scratch, untrack, recorder)
	if err != nil {
		return nil, err
	}

	segs := list.New()
	segs.PushBack(first)

	return &Rolling[T]{
		segs:     segs,
		factory:  factory,
		ser:      ser,
		capacity: capacity,
		mapper:   mapper,
		scratch:  scratch,
		policy:   policy,
		untrack:  untrack,
		recorder: recorder,
	}, nil
}

func (r *Rolling[T]) isClosed() bool { return r.state.Load() == 1 }

// Offer serializes item once and writes it to the tail segment, rolling
// to a new segment first if the policy says the tail can't take it.
func (r *Rolling[T]) Offer(item T) (bool, error) {
	if r.isClosed() {
		return false, errorx.ErrQueueClosed
	}

	payload, err := r.ser.Write(item)
	if err != nil {
		return false, err
	}
	frameSize := int64(frameHeaderSize + len(payload))
	if frameSize > r.capacity {
		return false, errorx.ErrItemTooLarge
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tail := r.tail()
	if r.policy.ShouldRoll(tail.Meta(), frameSize) {
		var err error
		tail, err = r.roll(tail)
		if err != nil {
			return false, err
		}
	}

	ok, err := tail.OfferPayload(payload)
	if err != nil {
		return false, err
	}
	if !ok {
		// The policy didn't think a roll was needed, but the segment's
		// physical capacity disagrees (e.g. rolloverSizeBytes is larger
		// than bufferSizeBytes). Roll reactively and retry once.
		tail, err = r.roll(tail)
		if err != nil {
			return false, err
		}
		ok, err = tail.OfferPayload(payload)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, errorx.ErrQueueFull
		}
	}

	return true, nil
}

// tail must be called with r.mu held.
func (r *Rolling[T]) tail() *Segment[T] {
	return r.segs.Back().Value.(*Segment[T])
}

// roll seals the given segment (which must currently be the tail) and
// appends a fresh one, returning it. Must be called with r.mu held.
func (r *Rolling[T]) roll(current *Segment[T]) (*Segment[T], error) {
	if ok, err := current.Seal(); err != nil {
		return nil, err
	} else if !ok {
		return nil, errorx.ErrQueueFull
	}

	start := time.Now()
	next, err := NewSegment(r.factory, r.ser, r.capacity, r.mapper, r.scratch, r.untrack, r.recorder)
	if err != nil {
		return nil, err
	}
	r.segs.PushBack(next)
	r.recorder.RecordRollover(metrics.RolloverSuccess, time.Since(start).Seconds())

	return next, nil
}

// Poll returns the next item across the whole segment chain, seamlessly
// retiring a sealed, fully-drained segment and continuing into the next
// one.
func (r *Rolling[T]) Poll() (item T, ok bool, err error) {
	for {
		if r.isClosed() {
			return item, false, errorx.ErrQueueClosed
		}

		r.mu.Lock()
		headEl := r.segs.Front()
		if headEl == nil {
			r.mu.Unlock()
			return item, false, nil
		}
		head := headEl.Value.(*Segment[T])
		r.mu.Unlock()

		item, ok, sealed, err := head.Poll()
		if err != nil {
			return item, false, err
		}
		if ok {
			return item, true, nil
		}
		if !sealed {
			return item, false, nil
		}

		r.retireHead(headEl, head)
	}
}

func (r *Rolling[T]) retireHead(el *list.Element, seg *Segment[T]) {
	r.mu.Lock()
	if r.segs.Len() > 1 {
		r.segs.Remove(el)
	}
	r.mu.Unlock()

	_ = seg.Close()
}

// IsEmpty reports whether the queue currently holds no unread data: a
// single remaining segment with nothing buffered.
func (r *Rolling[T]) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.segs.Len() != 1 {
		return false
	}
	head := r.segs.Front().Value.(*Segment[T])
	return head.IsEmpty()
}

// SegmentCount reports the number of live segments, for tests and
// metrics.
func (r *Rolling[T]) SegmentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.segs.Len()
}

// Backlog reports the number of live segments and the total bytes
// currently buffered across all of them, for the drain loop's backlog
// metric.
func (r *Rolling[T]) Backlog() (segments int64, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b int64
	for el := r.segs.Front(); el != nil; el = el.Next() {
		b += el.Value.(*Segment[T]).Backlog()
	}
	return int64(r.segs.Len()), b
}

// Close tears down every remaining segment and unlinks its file. Close
// is idempotent.
func (r *Rolling[T]) Close() error {
	if !r.state.CompareAndSwap(0, 1) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for el := r.segs.Front(); el != nil; el = el.Next() {
		seg := el.Value.(*Segment[T])
		if err := seg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.segs.Init()

	return firstErr
}
