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
	"fmt"
	"path/filepath"
	"testing"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/poolx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRolling(t *testing.T, capacity int64, policy RolloverPolicy) *Rolling[string] {
	t.Helper()
	dir := t.TempDir()
	n := 0
	factory := func() (string, error) {
		n++
		return filepath.Join(dir, fmt.Sprintf("seg-%d.ring", n)), nil
	}

	r, err := NewRolling(factory, stringSerializer(), capacity, poolx.NewMemoryMapper(), poolx.NewScratchPool(nil), policy, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRolling_SingleSegment_FIFO(t *testing.T) {
	r := newTestRolling(t, 1024, Default(Unlimited, Unlimited))

	for _, s := range []string{"a", "b", "c"} {
		ok, err := r.Offer(s)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	for _, want := range []string{"a", "b", "c"} {
		item, ok, err := r.Poll()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, item)
	}

	assert.True(t, r.IsEmpty())
	assert.Equal(t, 1, r.SegmentCount())
}

func TestRolling_RollsOnItemCap(t *testing.T) {
	r := newTestRolling(t, 1024, CountOnly(2))

	for _, s := range []string{"a", "b", "c", "d", "e"} {
		ok, err := r.Offer(s)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.True(t, r.SegmentCount() >= 2, "expected rollover to have created additional segments")

	got := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		item, ok, err := r.Poll()
		require.NoError(t, err)
		require.True(t, ok)
		got = append(got, item)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestRolling_RetiresDrainedSealedSegments(t *testing.T) {
	r := newTestRolling(t, 1024, CountOnly(1))

	_, err := r.Offer("a")
	require.NoError(t, err)
	_, err = r.Offer("b")
	require.NoError(t, err)

	assert.Equal(t, 2, r.SegmentCount())

	item, ok, err := r.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", item)

	// "a" was the last real frame of the first segment, but Poll only
	// retires a segment once it reads the seal sentinel, which happens on
	// the next Poll.
	assert.Equal(t, 2, r.SegmentCount())

	item, ok, err = r.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", item)

	// Reaching "b" crossed the seal sentinel and retired the first
	// segment, leaving only the one that held "b".
	assert.Equal(t, 1, r.SegmentCount())
}

func TestRolling_Offer_ItemLargerThanCapacity(t *testing.T) {
	r := newTestRolling(t, 4, Default(Unlimited, Unlimited))

	_, err := r.Offer("too big for one segment")
	assert.ErrorIs(t, err, errorx.ErrItemTooLarge)
}

func TestRolling_Poll_EmptyReturnsFalseNotError(t *testing.T) {
	r := newTestRolling(t, 64, Default(Unlimited, Unlimited))

	_, ok, err := r.Poll()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRolling_Close_OperationsFailAfter(t *testing.T) {
	r := newTestRolling(t, 64, Default(Unlimited, Unlimited))
	require.NoError(t, r.Close())

	_, err := r.Offer("x")
	assert.ErrorIs(t, err, errorx.ErrQueueClosed)

	_, _, err = r.Poll()
	assert.ErrorIs(t, err, errorx.ErrQueueClosed)
}

func TestRolling_Roll_RecordsRolloverSuccess(t *testing.T) {
	dir := t.TempDir()
	n := 0
	factory := func() (string, error) {
		n++
		return filepath.Join(dir, fmt.Sprintf("seg-%d.ring", n)), nil
	}

	rec := &fakeRecorder{}
	r, err := NewRolling(factory, stringSerializer(), int64(1024), poolx.NewMemoryMapper(), poolx.NewScratchPool(nil), CountOnly(1), nil, rec)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Offer("a")
	require.NoError(t, err)
	_, err = r.Offer("b")
	require.NoError(t, err)

	rolloverSuccess, _, _ := rec.snapshot()
	assert.Equal(t, 1, rolloverSuccess, "offering past the one-item cap must trigger exactly one rollover")
}

func TestRolling_RetireHead_CallsUntrack(t *testing.T) {
	dir := t.TempDir()
	n := 0
	factory := func() (string, error) {
		n++
		return filepath.Join(dir, fmt.Sprintf("seg-%d.ring", n)), nil
	}

	var untracked []string
	untrack := func(path string) { untracked = append(untracked, path) }

	r, err := NewRolling(factory, stringSerializer(), int64(1024), poolx.NewMemoryMapper(), poolx.NewScratchPool(nil), CountOnly(1), untrack, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Offer("a")
	require.NoError(t, err)
	_, err = r.Offer("b")
	require.NoError(t, err)

	_, ok, err := r.Poll()
	require.NoError(t, err)
	require.True(t, ok)

	// The first Poll returned "a"; this one reads the seal sentinel,
	// retires the drained head segment and returns "b".
	_, ok, err = r.Poll()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Len(t, untracked, 1, "retiring the drained, sealed head segment must untrack its file")
}

func TestRolling_Close_CallsUntrackForRemaining(t *testing.T) {
	dir := t.TempDir()
	n := 0
	factory := func() (string, error) {
		n++
		return filepath.Join(dir, fmt.Sprintf("seg-%d.ring", n)), nil
	}

	var untracked []string
	untrack := func(path string) { untracked = append(untracked, path) }

	r, err := NewRolling(factory, stringSerializer(), int64(1024), poolx.NewMemoryMapper(), poolx.NewScratchPool(nil), CountOnly(1), untrack, nil)
	require.NoError(t, err)

	_, err = r.Offer("a")
	require.NoError(t, err)
	_, err = r.Offer("b")
	require.NoError(t, err)
	require.Equal(t, 2, r.SegmentCount())

	require.NoError(t, r.Close())

	assert.Len(t, untracked, 2, "Close must untrack every remaining segment, not just retired ones")
}

func TestRolling_Backlog(t *testing.T) {
	r := newTestRolling(t, 1024, CountOnly(1))

	_, err := r.Offer("aaa")
	require.NoError(t, err)
	_, err = r.Offer("bb")
	require.NoError(t, err)

	segments, bytes := r.Backlog()
	assert.Equal(t, int64(2), segments)
	assert.True(t, bytes > 0, "backlog bytes should reflect the buffered frames")
}
