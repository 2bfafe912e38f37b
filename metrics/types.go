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

// Package metrics instruments Offer/Poll/rollover/drain activity, with a
// no-op default and a Prometheus-backed implementation collected in
// batches rather than on every call.
package metrics

// WorkerOp distinguishes the two directions of a drain worker gauge
// update.
type WorkerOp int

const (
	WorkerInc WorkerOp = iota
	WorkerDec
)

// RolloverStatus classifies the outcome of a segment rollover attempt.
type RolloverStatus int

const (
	RolloverSuccess RolloverStatus = iota
	RolloverSkipped
	RolloverFailed
)

// Collector is the low-level indicator sink; BatchCollector accumulates
// into one of these on a fixed interval instead of touching it per call.
type Collector interface {
	CollectSwitcher(enable bool)
	OfferMetrics
	PollMetrics
	PoolMetrics
	RolloverMetrics
	DrainMetrics
}

// OfferMetrics tracks producer-side Offer calls.
type OfferMetrics interface {
	ObserveOffer(counts, bytes, errors float64)
}

// PollMetrics tracks drain-side Poll calls.
type PollMetrics interface {
	ObservePoll(counts, bytes, errors float64)
}

// PoolMetrics tracks the scratch buffer pool.
type PoolMetrics interface {
	AllocInc(delta float64)
}

// RolloverMetrics tracks segment rollover/retirement activity.
type RolloverMetrics interface {
	ObserveRollover(status RolloverStatus, counts, latencySeconds float64)
}

// DrainMetrics tracks the drain coordinator's worker and backlog state.
type DrainMetrics interface {
	ObserveDrainWorker(op WorkerOp, counts float64)
	ObserveBacklog(segments, bytes float64)
}

// Recorder is the interface components call directly; it's the caller
// facing half of a BatchCollector.
type Recorder interface {
	RecordOffer(size int64, err error)
	RecordPoll(count, size int64, err error)
	RecordRollover(status RolloverStatus, latencySeconds float64)
	ObserveDrainWorker(op WorkerOp)
	RecordPoolAlloc()
	RecordBacklog(segments, bytes int64)
}

// Controller starts, stops, and force-flushes the batch update loop.
type Controller interface {
	Start()
	Stop()
	Flush()
}

// BatchCollector is the combined interface NewBatchCollector returns.
type BatchCollector interface {
	Controller
	Recorder
}
