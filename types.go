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

import "github.com/flowdisk/overflow/queue"

// Unbounded represents an unlimited downstream request, matching
// Long.MAX_VALUE in the original request(Long.MAX_VALUE) semantics.
const Unbounded int64 = 1<<63 - 1

// Subscriber is the downstream collaborator the operator delivers items
// and terminal events to. The module does not vendor a reactive
// framework; callers wire their own Subscriber implementation in.
type Subscriber[T any] interface {
	OnNext(item T)
	OnError(err error)
	OnCompleted()
}

// Producer is the demand side of a subscription: Request(n) asks for n
// more items. The operator calls Request(Unbounded) on the upstream
// source's Producer and exposes the Drain Coordinator as the Producer
// downstream requests items from.
type Producer interface {
	Request(n int64)
}

// Worker schedules drain cycles one at a time on whatever execution
// context the caller's Scheduler provides.
type Worker interface {
	Schedule(task func())
	Close()
}

// Scheduler creates the Worker the Drain Coordinator schedules its
// drain cycles onto.
type Scheduler interface {
	CreateWorker() Worker
}

// Serializer supplies the byte encoding for T. Re-exported from package
// queue so callers don't need to import it directly just to build one.
type Serializer[T any] = queue.Serializer[T]

// FileFactory returns a fresh, unique path for a new segment's backing
// file.
type FileFactory = queue.FileFactory

// overflowQueue is the shape both a single Segment and a Rolling queue
// present to the Drain Coordinator.
type overflowQueue[T any] interface {
	Offer(item T) (bool, error)
	Poll() (T, bool, error)
	IsEmpty() bool
	Close() error
	Backlog() (segments int64, bytes int64)
}

// segmentQueue adapts a single queue.Segment to overflowQueue, used for
// the single-FSQ configuration where both rollover caps are Unlimited
// and a full Rolling queue's segment-chain bookkeeping would be wasted.
type segmentQueue[T any] struct {
	seg *queue.Segment[T]
}

func (s *segmentQueue[T]) Offer(item T) (bool, error) { return s.seg.Offer(item) }

func (s *segmentQueue[T]) Poll() (T, bool, error) {
	item, ok, _, err := s.seg.Poll()
	return item, ok, err
}

func (s *segmentQueue[T]) IsEmpty() bool { return s.seg.IsEmpty() }

func (s *segmentQueue[T]) Close() error { return s.seg.Close() }

func (s *segmentQueue[T]) Backlog() (segments int64, bytes int64) { return 1, s.seg.Backlog() }
