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

// Package errorx collects the sentinel errors shared by the ring, queue
// and drain packages so callers can classify failures with errors.Is
// instead of string matching.
package errorx

import "errors"

var (
	// ErrQueueClosed is returned by any operation attempted after Close.
	ErrQueueClosed = errors.New("queue closed")
	// ErrQueueEmpty names an empty queue. The queues' Poll methods do not
	// return it: they report an empty queue as ok=false with a nil error.
	ErrQueueEmpty = errors.New("queue empty")
	// ErrQueueFull reports a refused Offer: the drain coordinator wraps
	// it when a single segment (no rollover configured) is full, and the
	// rolling queue returns it when rolling over cannot make room.
	ErrQueueFull = errors.New("could not place item on queue")
	// ErrItemTooLarge is returned when a single item, once framed,
	// cannot fit in an empty segment of the configured capacity.
	ErrItemTooLarge = errors.New("item exceeds segment capacity")
	// ErrSegmentSealed is returned by Offer on a segment that has
	// already written the end-of-segment sentinel.
	ErrSegmentSealed = errors.New("segment sealed")
	// ErrIO marks failures from the mmap/file boundary. Wrapped errors
	// should use fmt.Errorf("%w: %w", ErrIO, cause) so both the cause
	// and ErrIO satisfy errors.Is.
	ErrIO = errors.New("i/o failed")
	// ErrInvalidOption is returned by NewOperator when a required
	// option is missing or out of range.
	ErrInvalidOption = errors.New("invalid option")
	// ErrCorruptFrame is returned when a frame's length prefix claims
	// more payload bytes than the segment holds after that prefix; frames
	// are written whole, so this only happens to a damaged segment.
	ErrCorruptFrame = errors.New("corrupt frame")
)
