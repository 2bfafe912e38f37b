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

package overflow

import (
	"fmt"
	"log/slog"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/metrics"
	"github.com/flowdisk/overflow/queue"
)

const defaultBufferSizeBytes int64 = 32 * 1024 * 1024

// Option configures a Operator built by NewOperator.
type Option func(*config) error

type config struct {
	bufferSizeBytes   int64
	rolloverSizeBytes int64
	rolloverEvery     int64
	delayError        bool
	fileFactory       FileFactory
	scheduler         Scheduler
	logger            *slog.Logger
	recorder          metrics.Recorder
}

func defaultConfig() *config {
	return &config{
		bufferSizeBytes:   defaultBufferSizeBytes,
		rolloverSizeBytes: queue.Unlimited,
		rolloverEvery:     queue.Unlimited,
		logger:            slog.Default(),
		recorder:          metrics.NewNoop(),
	}
}

// WithBufferSize sets the per-segment byte capacity of the underlying
// memory-mapped ring.
func WithBufferSize(bytes int64) Option {
	return func(c *config) error {
		if bytes <= 0 {
			return fmt.Errorf("%w: buffer size must be positive", errorx.ErrInvalidOption)
		}
		c.bufferSizeBytes = bytes
		return nil
	}
}

// WithRolloverSizeBytes caps how many bytes a segment may hold before
// the queue rolls to a new one. Pass queue.Unlimited to disable.
func WithRolloverSizeBytes(bytes int64) Option {
	return func(c *config) error {
		if bytes <= 0 {
			return fmt.Errorf("%w: rollover size must be positive", errorx.ErrInvalidOption)
		}
		c.rolloverSizeBytes = bytes
		return nil
	}
}

// WithRolloverEvery caps how many items a segment may hold before the
// queue rolls to a new one. Pass queue.Unlimited to disable.
func WithRolloverEvery(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: rollover item count must be positive", errorx.ErrInvalidOption)
		}
		c.rolloverEvery = n
		return nil
	}
}

// WithDelayError postpones a terminal OnError delivery until every item
// already buffered has been drained to downstream.
func WithDelayError(delay bool) Option {
	return func(c *config) error {
		c.delayError = delay
		return nil
	}
}

// WithFileFactory supplies the path generator for new segment files.
// Required unless the caller accepts the package default (UUID-named
// files in os.TempDir).
func WithFileFactory(f FileFactory) Option {
	return func(c *config) error {
		if f == nil {
			return fmt.Errorf("%w: file factory must not be nil", errorx.ErrInvalidOption)
		}
		c.fileFactory = f
		return nil
	}
}

// WithScheduler supplies the Scheduler the Drain Coordinator schedules
// its drain cycles onto. Required.
func WithScheduler(s Scheduler) Option {
	return func(c *config) error {
		if s == nil {
			return fmt.Errorf("%w: scheduler must not be nil", errorx.ErrInvalidOption)
		}
		c.scheduler = s
		return nil
	}
}

// WithLogger overrides the structured logger components log through.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return fmt.Errorf("%w: logger must not be nil", errorx.ErrInvalidOption)
		}
		c.logger = l
		return nil
	}
}

// WithMetrics overrides the metrics sink. Defaults to a no-op recorder;
// pass metrics.NewBatchCollector(metrics.NewPrometheus()) for a
// Prometheus-backed one.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *config) error {
		if r == nil {
			return fmt.Errorf("%w: recorder must not be nil", errorx.ErrInvalidOption)
		}
		c.recorder = r
		return nil
	}
}
