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

// Package poolx owns the mmap syscall boundary and the scratch-buffer
// pools used on the serialization hot path.
package poolx

import (
	"os"

	"golang.org/x/sys/unix"
)

// MemoryMapper abstracts the mmap family so the ring store can be tested
// against a fake without touching the real address space.
type MemoryMapper interface {
	Map(f *os.File, length int) ([]byte, error)
	Unmap(p []byte) error
	Sync(p []byte) error
	Advise(p []byte, advice int) error
}

type linuxMemoryMapper struct{}

// NewMemoryMapper returns the platform mmap implementation backed by
// golang.org/x/sys/unix.
func NewMemoryMapper() MemoryMapper {
	return &linuxMemoryMapper{}
}

func (l *linuxMemoryMapper) Map(f *os.File, length int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (l *linuxMemoryMapper) Unmap(p []byte) error {
	return unix.Munmap(p)
}

func (l *linuxMemoryMapper) Sync(p []byte) error {
	return unix.Msync(p, unix.MS_SYNC)
}

func (l *linuxMemoryMapper) Advise(p []byte, advice int) error {
	return unix.Madvise(p, advice)
}
