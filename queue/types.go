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

// Package queue implements the framed single-segment queue (FSQ) and the
// rolling multi-segment queue (RSQ) built on top of package ring.
package queue

// Serializer supplies the byte encoding for T. The queue never inspects
// the payload beyond its length; encoding and decoding are entirely the
// caller's concern.
type Serializer[T any] struct {
	Write func(item T) ([]byte, error)
	Read  func(data []byte) (T, error)
}

// FileFactory returns a fresh, unique path for a new segment's backing
// file. The default implementation (in the root package) uses
// github.com/google/uuid to avoid collisions between operator instances.
type FileFactory func() (string, error)

// UntrackFunc is called with a segment's backing file path immediately
// after that file has actually been unlinked from disk, so a caller-owned
// registry (e.g. the root package's lifecycleRegistry) can drop it from
// longer-lived bookkeeping instead of only ever growing until a final
// sweep. May be nil.
type UntrackFunc func(path string)

// SegmentMeta is the bookkeeping the rollover policy consults before
// accepting an Offer on the current tail segment: how many bytes and
// items have already been written to it.
type SegmentMeta struct {
	BytesWritten int64
	ItemsWritten int64
}

// RolloverPolicy decides whether the tail segment must be sealed and a
// new one started before accepting the next item. It never inspects the
// item itself, only running counters, so it composes independently of
// the serializer.
//
//go:generate mockgen -destination=./rolloverpolicy_mock_test.go -package queue github.com/flowdisk/overflow/queue RolloverPolicy
type RolloverPolicy interface {
	ShouldRoll(meta SegmentMeta, nextFrameSize int64) bool
}

// SegmentFactory builds a new Segment backed by a fresh file from
// factory, with serializer ser and byte capacity capacity.
type SegmentFactory[T any] func(factory FileFactory, ser Serializer[T], capacity int64) (*Segment[T], error)
