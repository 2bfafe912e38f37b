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
	"os"
	"sync/atomic"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/metrics"
	"github.com/flowdisk/overflow/poolx"
	"github.com/flowdisk/overflow/ring"
)

// Segment is the framed SPSC queue (FSQ): a single ring.Store with
// length-prefixed framing and a sealing sentinel marking end of segment.
type Segment[T any] struct {
	store    *ring.Store
	ser      Serializer[T]
	scratch  *poolx.ScratchPool
	untrack  UntrackFunc
	recorder metrics.Recorder

	bytesWritten atomic.Int64
	itemsWritten atomic.Int64

	sealed       atomic.Bool
	sealObserved atomic.Bool
	closed       atomic.Bool
}

// NewSegment creates a segment backed by a fresh file from factory, with
// byte capacity capacity. untrack, if non-nil, is called with the
// backing file's path once Close has actually unlinked it. recorder, if
// nil, defaults to a no-op.
func NewSegment[T any](
	factory FileFactory,
	ser Serializer[T],
	capacity int64,
	mapper poolx.MemoryMapper,
	scratch *poolx.ScratchPool,
	untrack UntrackFunc,
	recorder metrics.Recorder,
) (*Segment[T], error) {
	path, err := factory()
	if err != nil {
		return nil, err
	}

	store, err := ring.New(path, capacity, mapper)
	if err != nil {
		return nil, err
	}

	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Segment[T]{
		store:    store,
		ser:      ser,
		scratch:  scratch,
		untrack:  untrack,
		recorder: recorder,
	}, nil
}

// Path returns the backing file path, for the lifecycle registry.
func (s *Segment[T]) Path() string { return s.store.Path() }

// Meta reports the running byte/item counters the rollover policy
// consults before the next Offer.
func (s *Segment[T]) Meta() SegmentMeta {
	return SegmentMeta{
		BytesWritten: s.bytesWritten.Load(),
		ItemsWritten: s.itemsWritten.Load(),
	}
}

// IsEmpty reports whether every byte written to the segment has been
// read back out.
func (s *Segment[T]) IsEmpty() bool {
	return s.store.Used() == 0
}

// IsSealed reports whether Seal has been called on this segment.
func (s *Segment[T]) IsSealed() bool { return s.sealed.Load() }

// Backlog returns the number of bytes currently buffered in this
// segment, for the drain loop's backlog metric.
func (s *Segment[T]) Backlog() int64 { return s.store.Used() }

// Offer serializes item and appends its frame to the ring. It returns
// false, without error, if the segment is full; callers decide whether
// that means rolling to a new segment or failing the operator.
func (s *Segment[T]) Offer(item T) (bool, error) {
	if s.closed.Load() {
		return false, errorx.ErrQueueClosed
	}
	if s.sealed.Load() {
		return false, errorx.ErrSegmentSealed
	}

	payload, err := s.ser.Write(item)
	if err != nil {
		return false, err
	}

	return s.OfferPayload(payload)
}

// OfferPayload appends an already-encoded payload's frame, skipping the
// serializer. The Rolling queue uses this to serialize an item exactly
// once even when the rollover policy needs the encoded size before
// deciding which segment to write to.
func (s *Segment[T]) OfferPayload(payload []byte) (bool, error) {
	if s.closed.Load() {
		return false, errorx.ErrQueueClosed
	}
	if s.sealed.Load() {
		return false, errorx.ErrSegmentSealed
	}

	buf := s.scratch.Get(frameHeaderSize + len(payload))
	buf = encodeFrame(buf, payload)
	ok, err := s.store.TryWrite(buf)
	s.scratch.Put(buf)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	s.bytesWritten.Add(int64(frameHeaderSize + len(payload)))
	s.itemsWritten.Add(1)

	return true, nil
}

// Seal writes the end-of-segment sentinel so the next Poll past the last
// real frame reports sealed=true instead of empty. It returns false if
// there isn't room for the sentinel frame right now; the caller should
// retry once the reader has drained more space.
func (s *Segment[T]) Seal() (bool, error) {
	if s.sealed.Load() {
		return true, nil
	}
	if s.closed.Load() {
		return false, errorx.ErrQueueClosed
	}

	buf := s.scratch.Get(frameHeaderSize)
	buf = encodeSeal(buf)
	ok, err := s.store.TryWrite(buf)
	s.scratch.Put(buf)
	if err != nil {
		return false, err
	}
	if !ok {
		s.recorder.RecordRollover(metrics.RolloverFailed, 0)
		return false, nil
	}

	s.sealed.Store(true)
	return true, nil
}

// Poll returns the next item if one is buffered. sealed is true exactly
// once, the first time Poll reaches the sentinel frame written by Seal;
// the caller (the RSQ) uses that edge to retire this segment and advance
// to the next one.
func (s *Segment[T]) Poll() (item T, ok bool, sealed bool, err error) {
	if s.closed.Load() {
		return item, false, false, errorx.ErrQueueClosed
	}

	hdr, ok, err := s.store.TryRead(frameHeaderSize)
	if err != nil {
		return item, false, false, err
	}
	if !ok {
		return item, false, false, nil
	}

	length := decodeHeader(hdr)
	if length == sealSentinel {
		s.sealObserved.Store(true)
		return item, false, true, nil
	}

	payload, ok, err := s.store.TryRead(int(length))
	if err != nil {
		return item, false, false, err
	}
	if !ok {
		return item, false, false, errorx.ErrCorruptFrame
	}

	item, err = s.ser.Read(payload)
	if err != nil {
		return item, false, false, err
	}

	return item, true, false, nil
}

// Close tears down the backing store and unlinks its file, untracking it
// from the caller's registry once the unlink actually succeeds. Close is
// idempotent.
func (s *Segment[T]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	path := s.store.Path()
	err := s.store.Close()
	if rmErr := os.Remove(path); rmErr == nil && s.untrack != nil {
		s.untrack(path)
	}
	return err
}
