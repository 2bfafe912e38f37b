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

package poolx

import (
	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/metrics"
	"github.com/flowdisk/overflow/utils/atomicx"
)

// sizeClassPool is a channel-backed free list for buffers of exactly one
// capacity class. Alloc/Free never block; a miss falls back to a fresh
// allocation and a full pool just discards the buffer.
type sizeClassPool struct {
	size     int
	count    *atomicx.Int64
	pool     chan []byte
	max      int
	recorder metrics.Recorder
}

func newSizeClassPool(size, maxSize int, recorder metrics.Recorder) *sizeClassPool {
	return &sizeClassPool{
		size:     size,
		max:      maxSize,
		pool:     make(chan []byte, maxSize),
		count:    atomicx.NewInt64(0),
		recorder: recorder,
	}
}

func (p *sizeClassPool) Alloc() []byte {
	select {
	case buf := <-p.pool:
		p.count.Add(-1)
		return buf[:0]
	default:
		p.recorder.RecordPoolAlloc()
		return make([]byte, 0, p.size)
	}
}

func (p *sizeClassPool) Free(buf []byte) error {
	if cap(buf) != p.size {
		return errorx.ErrInvalidOption
	}

	if p.count.Load() >= int64(p.max) {
		return nil
	}

	select {
	case p.pool <- buf:
		p.count.Add(1)
	default:
		// pool raced full between the Load and the send; discard.
	}

	return nil
}

type sizeClass int

const (
	class64B   sizeClass = 64
	class128B  sizeClass = 128
	class256B  sizeClass = 256
	class512B  sizeClass = 512
	class1024B sizeClass = 1024
	class4096B sizeClass = 4096
)

func (c sizeClass) int() int { return int(c) }

// ScratchPool hands FSQ's Offer path a reusable byte slice sized to the
// frame being serialized, avoiding an allocation per item on the hot
// path. Buffers larger than the biggest class are allocated directly and
// never pooled.
type ScratchPool struct {
	pools    map[sizeClass]*sizeClassPool
	classes  []sizeClass
	recorder metrics.Recorder
}

// NewScratchPool builds the fixed ladder of size classes used by the
// serialization hot path. recorder, if nil, defaults to a no-op.
func NewScratchPool(recorder metrics.Recorder) *ScratchPool {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	classes := []sizeClass{
		class64B,
		class128B,
		class256B,
		class512B,
		class1024B,
		class4096B,
	}

	const maxPerClass = 256
	pools := make(map[sizeClass]*sizeClassPool, len(classes))
	for _, c := range classes {
		pools[c] = newSizeClassPool(c.int(), maxPerClass, recorder)
	}

	return &ScratchPool{
		pools:    pools,
		classes:  classes,
		recorder: recorder,
	}
}

// Get returns a zero-length buffer with capacity at least size. Callers
// append the frame header and payload into it before handing it to the
// ring store.
func (p *ScratchPool) Get(size int) []byte {
	for _, c := range p.classes {
		if size <= c.int() {
			return p.pools[c].Alloc()
		}
	}

	p.recorder.RecordPoolAlloc()
	return make([]byte, 0, size)
}

// Put returns buf to its size class's pool if it came from one. Buffers
// whose capacity doesn't match a class exactly are silently dropped.
func (p *ScratchPool) Put(buf []byte) {
	for _, c := range p.classes {
		if cap(buf) == c.int() {
			_ = p.pools[c].Free(buf)
			return
		}
	}
}
