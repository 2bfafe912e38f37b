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

import "math"

// Unlimited disables a rollover cap, matching Long.MAX_VALUE in the
// original rolloverEvery/rolloverSizeBytes semantics.
const Unlimited int64 = math.MaxInt64

type defaultPolicy struct {
	maxBytes int64
	maxItems int64
}

// Default rolls the tail segment when either the byte cap or the item
// cap would be exceeded by the next frame, whichever comes first.
func Default(maxBytes, maxItems int64) RolloverPolicy {
	return &defaultPolicy{maxBytes: maxBytes, maxItems: maxItems}
}

func (d *defaultPolicy) ShouldRoll(meta SegmentMeta, nextFrameSize int64) bool {
	if d.maxBytes != Unlimited && meta.BytesWritten+nextFrameSize > d.maxBytes {
		return true
	}
	if d.maxItems != Unlimited && meta.ItemsWritten+1 > d.maxItems {
		return true
	}
	return false
}

type sizeOnlyPolicy struct {
	maxBytes int64
}

// SizeOnly rolls purely on accumulated byte count, ignoring item count.
func SizeOnly(maxBytes int64) RolloverPolicy {
	return &sizeOnlyPolicy{maxBytes: maxBytes}
}

func (s *sizeOnlyPolicy) ShouldRoll(meta SegmentMeta, nextFrameSize int64) bool {
	if s.maxBytes == Unlimited {
		return false
	}
	return meta.BytesWritten+nextFrameSize > s.maxBytes
}

type countOnlyPolicy struct {
	maxItems int64
}

// CountOnly rolls purely on accumulated item count, ignoring byte size.
func CountOnly(maxItems int64) RolloverPolicy {
	return &countOnlyPolicy{maxItems: maxItems}
}

func (c *countOnlyPolicy) ShouldRoll(meta SegmentMeta, _ int64) bool {
	if c.maxItems == Unlimited {
		return false
	}
	return meta.ItemsWritten+1 > c.maxItems
}
