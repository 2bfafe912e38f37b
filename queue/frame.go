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
	"encoding/binary"
	"math"
)

// frameHeaderSize is the width of the length prefix in front of every
// payload written to a segment.
const frameHeaderSize = 4

// sealSentinel is the reserved length-prefix value that marks the end of
// a segment instead of introducing a frame. No valid payload can ever
// have this length: segment capacity is always far below 4 GiB.
const sealSentinel uint32 = math.MaxUint32

// encodeFrame writes the length-prefixed frame for payload into dst,
// growing it as needed, and returns the result.
func encodeFrame(dst []byte, payload []byte) []byte {
	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	return dst
}

// encodeSeal writes the sealing sentinel frame into dst and returns the
// result.
func encodeSeal(dst []byte) []byte {
	var hdr [frameHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:], sealSentinel)
	return append(dst, hdr[:]...)
}

func decodeHeader(hdr []byte) uint32 {
	return binary.LittleEndian.Uint32(hdr)
}
