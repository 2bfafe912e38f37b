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

package metrics

var _ Recorder = noop{}

type noop struct{}

// NewNoop returns the zero-cost default Recorder used when the caller
// doesn't configure WithMetrics.
func NewNoop() Recorder { return noop{} }

func (noop) RecordOffer(int64, error)                    {}
func (noop) RecordPoll(int64, int64, error)               {}
func (noop) RecordRollover(RolloverStatus, float64)       {}
func (noop) ObserveDrainWorker(WorkerOp)                  {}
func (noop) RecordPoolAlloc()                             {}
func (noop) RecordBacklog(int64, int64)                   {}
