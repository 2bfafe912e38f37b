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
	"context"
	"fmt"

	"github.com/flowdisk/overflow/errorx"
	"github.com/flowdisk/overflow/poolx"
	"github.com/flowdisk/overflow/queue"
)

// Operator is the Operator Facade: it wires the byte ring store, framed
// and rolling queues, and the Drain Coordinator into a single unit a
// caller's reactive chain can subscribe a Subscriber[T] to.
type Operator[T any] struct {
	cfg      *config
	registry *lifecycleRegistry
	q        overflowQueue[T]
	worker   Worker
	drain    *Drain[T]
}

// NewOperator builds the queue (a single framed segment if both
// rollover caps are queue.Unlimited, otherwise a rolling chain of
// segments) and the worker the Drain Coordinator will schedule onto.
// ser.Write and ser.Read must both be set; WithScheduler is required.
func NewOperator[T any](ser Serializer[T], opts ...Option) (*Operator[T], error) {
	if ser.Write == nil || ser.Read == nil {
		return nil, fmt.Errorf("%w: serializer must set both Write and Read", errorx.ErrInvalidOption)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler is required", errorx.ErrInvalidOption)
	}

	registry := newLifecycleRegistry()
	rawFactory := cfg.fileFactory
	if rawFactory == nil {
		rawFactory = defaultFileFactory
	}
	factory := registry.wrapFileFactory(rawFactory)

	mapper := poolx.NewMemoryMapper()
	scratch := poolx.NewScratchPool(cfg.recorder)

	q, err := buildQueue(factory, ser, cfg, mapper, scratch, registry.untrack)
	if err != nil {
		return nil, err
	}

	worker := cfg.scheduler.CreateWorker()

	return &Operator[T]{
		cfg:      cfg,
		registry: registry,
		q:        q,
		worker:   worker,
	}, nil
}

func buildQueue[T any](factory FileFactory, ser Serializer[T], cfg *config, mapper poolx.MemoryMapper, scratch *poolx.ScratchPool, untrack queue.UntrackFunc) (overflowQueue[T], error) {
	if cfg.rolloverSizeBytes == queue.Unlimited && cfg.rolloverEvery == queue.Unlimited {
		seg, err := queue.NewSegment(factory, ser, cfg.bufferSizeBytes, mapper, scratch, untrack, cfg.recorder)
		if err != nil {
			return nil, err
		}
		return &segmentQueue[T]{seg: seg}, nil
	}

	policy := queue.Default(cfg.rolloverSizeBytes, cfg.rolloverEvery)
	return queue.NewRolling(factory, ser, cfg.bufferSizeBytes, mapper, scratch, policy, untrack, cfg.recorder)
}

// Subscribe wires downstream as the Drain Coordinator's delivery target
// and immediately requests Unbounded from upstream, matching the
// original parent subscriber's onStart(). It returns the Subscriber[T]
// the caller should feed the upstream source's events into.
func (op *Operator[T]) Subscribe(downstream Subscriber[T], upstream Producer) Subscriber[T] {
	op.drain = NewDrain[T](op.q, downstream, op.worker, op.cfg.delayError, op.cfg.logger, op.cfg.recorder)
	upstream.Request(Unbounded)
	return op.drain
}

// Producer exposes the Drain Coordinator as the Producer downstream
// calls to request more items. Only valid after Subscribe.
func (op *Operator[T]) Producer() Producer { return op.drain }

// AwaitDrained blocks until the terminal event has been delivered to
// downstream, or ctx is done. Only valid after Subscribe.
func (op *Operator[T]) AwaitDrained(ctx context.Context) error { return op.drain.AwaitDrained(ctx) }

// Unsubscribe tears the operator down in the order DC, queue, worker,
// then sweeps the lifecycle registry so no segment file outlives it
// regardless of what order the pieces above actually unwound in.
func (op *Operator[T]) Unsubscribe() error {
	if op.drain != nil {
		op.drain.Unsubscribe()
	}

	err := op.q.Close()
	op.worker.Close()
	op.registry.sweep()

	return err
}
