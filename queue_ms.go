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

package msgqueue

import (
	"sync/atomic"
	"unsafe"

	"github.com/pawelgaczynski/msgqueue/pkg/errors"
	"github.com/rs/zerolog"
)

// node holds a single payload. Only the sentinel has a nil value.
type node[T any] struct {
	value *T
	next  unsafe.Pointer
}

// msQueue is the state shared by every handle of one queue.
//
// tail is the producer-visible insertion point and is only touched atomically.
// head is the drain pointer. It always points at the current sentinel and is
// owned by the single consumer, so it is read and written without atomics.
type msQueue[T any] struct {
	tail    unsafe.Pointer
	head    *node[T]
	refs    int32
	popping uint32
	size    int64
	stats   counters
	drop    func(T)
	logger  zerolog.Logger
}

func newMSQueue[T any](config Config) *msQueue[T] {
	sentinel := &node[T]{}
	queue := &msQueue[T]{
		tail:   unsafe.Pointer(sentinel),
		head:   sentinel,
		logger: newQueueLogger(config),
	}
	queue.stats.liveNodes = 1

	if config.DropHandler != nil {
		drop, ok := config.DropHandler.(func(T))
		if !ok {
			panic(errors.ErrorDropHandlerType(getZero[T](), config.DropHandler))
		}

		queue.drop = drop
	}

	return queue
}

func (q *msQueue[T]) enqueue(value T) {
	node := &node[T]{value: &value}

	atomic.AddInt64(&q.size, 1)
	atomic.AddInt64(&q.stats.liveNodes, 1)

	for {
		var (
			tail = load[T](&q.tail)
			next = load[T](&tail.next)
		)

		if tail == load[T](&q.tail) {
			if next == nil {
				if cas(&tail.next, next, node) {
					// Losing this CAS is fine, somebody already forwarded the tail for us.
					cas(&q.tail, tail, node)
					atomic.AddUint64(&q.stats.pushes, 1)

					return
				}

				atomic.AddUint64(&q.stats.linkRetries, 1)
			} else if cas(&q.tail, tail, next) {
				atomic.AddUint64(&q.stats.tailForwards, 1)
			}
		}
	}
}

// dequeue must only be called by the consumer holding the pop guard.
func (q *msQueue[T]) dequeue() (T, bool) {
	var (
		head = q.head
		next = load[T](&head.next)
	)

	if next == nil {
		return getZero[T](), false
	}

	// The drain pointer never overtakes the tail.
	if tail := load[T](&q.tail); tail == head {
		if cas(&q.tail, tail, next) {
			atomic.AddUint64(&q.stats.tailForwards, 1)
		}
	}

	value := *next.value
	next.value = nil
	q.head = next
	// head.next stays set: a producer still holding head as its tail snapshot
	// must fail its link CAS instead of appending to a retired node.

	atomic.AddInt64(&q.size, -1)
	atomic.AddInt64(&q.stats.liveNodes, -1)
	atomic.AddUint64(&q.stats.pops, 1)

	return value, true
}

func (q *msQueue[T]) pop() (T, bool) {
	if !atomic.CompareAndSwapUint32(&q.popping, 0, 1) {
		panic(errors.ErrConcurrentPop)
	}
	defer atomic.StoreUint32(&q.popping, 0)

	return q.dequeue()
}

func (q *msQueue[T]) isEmpty() bool {
	if !atomic.CompareAndSwapUint32(&q.popping, 0, 1) {
		panic(errors.ErrConcurrentPop)
	}
	defer atomic.StoreUint32(&q.popping, 0)

	return load[T](&q.head.next) == nil
}

func (q *msQueue[T]) len() int {
	size := atomic.LoadInt64(&q.size)
	if size < 0 {
		return 0
	}

	return int(size)
}

func (q *msQueue[T]) retain() {
	atomic.AddInt32(&q.refs, 1)
}

// release drops one reference and tears the chain down when it was the last one.
func (q *msQueue[T]) release() {
	if atomic.AddInt32(&q.refs, -1) == 0 {
		q.teardown()
	}
}

// teardown walks the chain from the drain pointer, including nodes whose
// payload was never consumed, and releases every node and payload.
func (q *msQueue[T]) teardown() {
	var (
		nodes   int64
		dropped uint64
	)

	for current := q.head; current != nil; {
		next := load[T](&current.next)

		if current.value != nil {
			if q.drop != nil {
				q.drop(*current.value)
			}

			current.value = nil
			dropped++
		}

		nodes++
		current = next
	}

	q.head = nil
	atomic.StorePointer(&q.tail, nil)
	atomic.StoreInt64(&q.size, 0)
	atomic.AddInt64(&q.stats.liveNodes, -nodes)
	atomic.AddUint64(&q.stats.dropped, dropped)

	q.logger.Debug().
		Int64("nodes", nodes).
		Uint64("dropped", dropped).
		Uint64("pushes", atomic.LoadUint64(&q.stats.pushes)).
		Uint64("pops", atomic.LoadUint64(&q.stats.pops)).
		Msg("Queue released")
}

func load[T any](p *unsafe.Pointer) *node[T] {
	return (*node[T])(atomic.LoadPointer(p))
}

func cas[T any](p *unsafe.Pointer, oldNode, newNode *node[T]) bool {
	return atomic.CompareAndSwapPointer(p, unsafe.Pointer(oldNode), unsafe.Pointer(newNode))
}

func getZero[T any]() T {
	var result T

	return result
}
