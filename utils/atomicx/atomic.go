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

// Package atomicx wraps sync/atomic's typed atomics behind small value
// types so call sites read as method calls instead of package-level
// functions taking pointers.
package atomicx

import "sync/atomic"

// Int64 is an atomic int64 with saturating add support.
type Int64 struct {
	v atomic.Int64
}

func NewInt64(initial int64) *Int64 {
	i := &Int64{}
	i.v.Store(initial)
	return i
}

func (i *Int64) Load() int64 { return i.v.Load() }

func (i *Int64) Store(val int64) { i.v.Store(val) }

func (i *Int64) Add(delta int64) int64 { return i.v.Add(delta) }

func (i *Int64) CompareAndSwap(old, new int64) bool {
	return i.v.CompareAndSwap(old, new)
}

// AddSaturating adds delta without overflowing past math.MaxInt64.
func (i *Int64) AddSaturating(delta int64) int64 {
	for {
		cur := i.v.Load()
		next := cur + delta
		if next < cur {
			next = maxInt64
		}
		if i.v.CompareAndSwap(cur, next) {
			return next
		}
	}
}

const maxInt64 = 1<<63 - 1

// Int32 is an atomic int32 counter.
type Int32 struct {
	v atomic.Int32
}

func NewInt32(initial int32) *Int32 {
	i := &Int32{}
	i.v.Store(initial)
	return i
}

func (i *Int32) Load() int32 { return i.v.Load() }

func (i *Int32) Store(val int32) { i.v.Store(val) }

func (i *Int32) Add(delta int32) int32 { return i.v.Add(delta) }

func (i *Int32) CompareAndSwap(old, new int32) bool {
	return i.v.CompareAndSwap(old, new)
}

// Bool is an atomic boolean flag.
type Bool struct {
	v atomic.Bool
}

func (b *Bool) Load() bool { return b.v.Load() }

func (b *Bool) Store(val bool) { b.v.Store(val) }

func (b *Bool) CompareAndSwap(old, new bool) bool {
	return b.v.CompareAndSwap(old, new)
}
