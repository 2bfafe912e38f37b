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

// Package ring implements the byte ring store: a fixed-capacity circular
// buffer over a memory-mapped file, safe for exactly one writer goroutine
// and exactly one reader goroutine running concurrently.
package ring

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/poolx"
)

// Store is a fixed-capacity circular byte buffer backed by a memory-mapped
// file. writePos and readPos are monotonically increasing counters (never
// wrapped); the physical offset is always pos % capacity. A store to
// writePos after the copy it guards is visible, together with everything
// written before it in program order, to a goroutine that later loads
// writePos — the happens-before pairing the ring depends on for
// correctness with no locks on the hot path.
type Store struct {
	capacity int64
	path     string
	file     *os.File
	mapper   poolx.MemoryMapper
	mapped   []byte

	writePos atomic.Int64
	readPos  atomic.Int64
	// writing guards against accidental re-entrant calls from the same
	// producer goroutine; it is not a producer/consumer exclusion lock,
	// since the store is only ever safe with one of each.
	writing atomic.Bool
	closed  atomic.Bool
}

// New creates (or truncates) the file at path to capacity bytes and maps
// it into memory. The caller owns the returned Store and must Close it.
func New(path string, capacity int64, mapper poolx.MemoryMapper) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", errorx.ErrInvalidOption)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errorx.ErrIO, path, err)
	}

	if err := f.Truncate(capacity); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: truncate %s: %w", errorx.ErrIO, path, err)
	}

	mapped, err := mapper.Map(f, int(capacity))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %w", errorx.ErrIO, path, err)
	}

	return &Store{
		capacity: capacity,
		path:     path,
		file:     f,
		mapper:   mapper,
		mapped:   mapped,
	}, nil
}

// Path returns the backing file path, used by the lifecycle registry to
// track and unlink segment files.
func (s *Store) Path() string { return s.path }

// Capacity returns the store's fixed byte capacity.
func (s *Store) Capacity() int64 { return s.capacity }

// Used returns the number of bytes currently buffered.
func (s *Store) Used() int64 {
	return s.writePos.Load() - s.readPos.Load()
}

// Free returns the number of bytes available for a TryWrite.
func (s *Store) Free() int64 {
	return s.capacity - s.Used()
}

// TryWrite copies data into the ring if there is enough free space,
// wrapping at the capacity boundary. It reports false without copying
// anything if data would not fit.
func (s *Store) TryWrite(data []byte) (bool, error) {
	if s.closed.Load() {
		return false, errorx.ErrQueueClosed
	}
	if int64(len(data)) > s.capacity {
		return false, errorx.ErrItemTooLarge
	}
	if !s.writing.CompareAndSwap(false, true) {
		return false, fmt.Errorf("%w: concurrent write detected", errorx.ErrIO)
	}
	defer s.writing.Store(false)

	if int64(len(data)) > s.Free() {
		return false, nil
	}

	off := s.writePos.Load() % s.capacity
	n := copy(s.mapped[off:], data)
	if n < len(data) {
		copy(s.mapped[:len(data)-n], data[n:])
	}
	s.writePos.Add(int64(len(data)))

	return true, nil
}

// TryRead returns exactly n bytes if that many are available, reporting
// false without consuming anything otherwise. The returned slice is a
// fresh copy, safe to retain past the next TryRead/TryWrite call.
func (s *Store) TryRead(n int) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, errorx.ErrQueueClosed
	}
	if int64(n) > s.Used() {
		return nil, false, nil
	}

	buf := make([]byte, n)
	off := s.readPos.Load() % s.capacity
	c := copy(buf, s.mapped[off:])
	if c < n {
		copy(buf[c:], s.mapped[:n-c])
	}
	s.readPos.Add(int64(n))

	return buf, true, nil
}

// Close unmaps the region, syncs and closes the backing file. Close is
// idempotent; subsequent calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	if err := s.mapper.Sync(s.mapped); err != nil {
		firstErr = fmt.Errorf("%w: msync %s: %w", errorx.ErrIO, s.path, err)
	}
	if err := s.mapper.Unmap(s.mapped); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: munmap %s: %w", errorx.ErrIO, s.path, err)
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: close %s: %w", errorx.ErrIO, s.path, err)
	}

	return firstErr
}
