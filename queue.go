// Copyright (c) 2023 Paweł Gaczyński
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package msgqueue provides an unbounded, lock-free multiple producer single
// consumer FIFO queue.
//
// Producers link new nodes with compare-and-swap and help each other by
// forwarding a lagging tail pointer, so a producer may retry, but every retry
// means another producer made progress. The consumer owns its drain pointer
// and never retries.
//
// A queue is reached through reference counted handles. Producer handles may
// be cloned freely and used from any goroutine. Consumer handles may be cloned
// too, but only one goroutine may pop at a time. The queue is torn down when
// the last handle is released.
package msgqueue

import (
	"iter"
	"sync/atomic"

	"github.com/pawelgaczynski/msgqueue/logger"
	"github.com/pawelgaczynski/msgqueue/pkg/errors"
	"github.com/rs/zerolog"
)

type handle[T any] struct {
	queue    *msQueue[T]
	released uint32
}

func newHandle[T any](queue *msQueue[T]) handle[T] {
	queue.retain()

	return handle[T]{queue: queue}
}

func (h *handle[T]) mustQueue() *msQueue[T] {
	if atomic.LoadUint32(&h.released) == 1 {
		panic(errors.ErrHandleReleased)
	}

	return h.queue
}

func (h *handle[T]) release() error {
	if !atomic.CompareAndSwapUint32(&h.released, 0, 1) {
		return errors.ErrHandleReleased
	}

	h.queue.release()

	return nil
}

// Producer is a producer-facing queue handle.
type Producer[T any] struct {
	handle[T]
}

// Consumer is a consumer-facing queue handle.
type Consumer[T any] struct {
	handle[T]
}

// New creates an empty queue and returns its first producer and consumer handles.
func New[T any](opts ...ConfigOption) (*Producer[T], *Consumer[T]) {
	config := NewConfig(opts...)
	queue := newMSQueue[T](config)

	queue.logger.Debug().Msg("Queue created")

	return &Producer[T]{handle: newHandle(queue)}, &Consumer[T]{handle: newHandle(queue)}
}

// Push appends value to the queue. It never fails and may be called from any number of goroutines.
func (p *Producer[T]) Push(value T) {
	p.mustQueue().enqueue(value)
}

// Clone returns a new producer handle over the same queue.
func (p *Producer[T]) Clone() *Producer[T] {
	return &Producer[T]{handle: newHandle(p.mustQueue())}
}

// Release drops the handle. The queue is torn down when its last handle is released.
func (p *Producer[T]) Release() error {
	return p.release()
}

// Len returns an approximate number of queued values. Values of in-flight pushes are included.
func (p *Producer[T]) Len() int {
	return p.mustQueue().len()
}

// Stats returns a snapshot of the queue counters.
func (p *Producer[T]) Stats() Stats {
	return p.mustQueue().stats.snapshot()
}

// Pop removes the oldest value from the queue. The second result is false
// when nothing is currently drainable. A push that has not linked its node
// yet is not visible, so empty means "nothing now", not "nothing ever".
//
// Pop panics when another Pop on the same queue is in progress.
func (c *Consumer[T]) Pop() (T, bool) {
	return c.mustQueue().pop()
}

// IsEmpty reports whether Pop would currently return nothing.
func (c *Consumer[T]) IsEmpty() bool {
	return c.mustQueue().isEmpty()
}

// Drain returns an iterator that pops values until the queue is empty.
func (c *Consumer[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			value, ok := c.Pop()
			if !ok || !yield(value) {
				return
			}
		}
	}
}

// Clone returns a new consumer handle over the same queue. The clone may be
// handed to another goroutine, but pops must not overlap.
func (c *Consumer[T]) Clone() *Consumer[T] {
	return &Consumer[T]{handle: newHandle(c.mustQueue())}
}

// Producer returns a new producer handle over the same queue.
func (c *Consumer[T]) Producer() *Producer[T] {
	return &Producer[T]{handle: newHandle(c.mustQueue())}
}

// Release drops the handle. The queue is torn down when its last handle is released.
func (c *Consumer[T]) Release() error {
	return c.release()
}

// Len returns an approximate number of queued values. Values of in-flight pushes are included.
func (c *Consumer[T]) Len() int {
	return c.mustQueue().len()
}

// Stats returns a snapshot of the queue counters.
func (c *Consumer[T]) Stats() Stats {
	return c.mustQueue().stats.snapshot()
}

func newQueueLogger(config Config) zerolog.Logger {
	if config.LoggerOutput != nil {
		return logger.NewLoggerWithWriter(config.LoggerOutput, config.Name, config.LoggerLevel, config.PrettyLogger)
	}

	return logger.NewLogger(config.Name, config.LoggerLevel, config.PrettyLogger)
}
