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

package msgqueue_test

import (
	"bytes"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pawelgaczynski/msgqueue"
	"github.com/pawelgaczynski/msgqueue/logger"
	"github.com/pawelgaczynski/msgqueue/pkg/errors"
	. "github.com/stretchr/testify/require"
)

const (
	numberOfProducers = 4
	valuesPerProducer = 10000
)

func releaseAll[T any](t *testing.T, producer *msgqueue.Producer[T], consumer *msgqueue.Consumer[T]) {
	t.Helper()
	NoError(t, producer.Release())
	NoError(t, consumer.Release())
}

func TestNewQueueIsEmpty(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	True(t, consumer.IsEmpty())
	Equal(t, 0, consumer.Len())

	value, ok := consumer.Pop()
	False(t, ok)
	Equal(t, 0, value)
}

func TestSingleProducerFIFO(t *testing.T) {
	producer, consumer := msgqueue.New[string]()
	defer releaseAll(t, producer, consumer)

	for _, value := range []string{"a", "b", "c"} {
		producer.Push(value)
	}

	Equal(t, 3, producer.Len())
	False(t, consumer.IsEmpty())

	for _, expected := range []string{"a", "b", "c"} {
		value, ok := consumer.Pop()
		True(t, ok)
		Equal(t, expected, value)
	}

	_, ok := consumer.Pop()
	False(t, ok)
	Equal(t, 0, consumer.Len())
}

func TestInterleavedPushPop(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	producer.Push(1)
	value, ok := consumer.Pop()
	True(t, ok)
	Equal(t, 1, value)

	_, ok = consumer.Pop()
	False(t, ok)

	producer.Push(2)
	producer.Push(3)
	value, ok = consumer.Pop()
	True(t, ok)
	Equal(t, 2, value)

	producer.Push(4)
	value, ok = consumer.Pop()
	True(t, ok)
	Equal(t, 3, value)
	value, ok = consumer.Pop()
	True(t, ok)
	Equal(t, 4, value)
}

func TestZeroValuePayload(t *testing.T) {
	producer, consumer := msgqueue.New[*int]()
	defer releaseAll(t, producer, consumer)

	producer.Push(nil)
	False(t, consumer.IsEmpty())

	value, ok := consumer.Pop()
	True(t, ok)
	Nil(t, value)
	True(t, consumer.IsEmpty())
}

func TestNoLossNoDuplication(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	var wg sync.WaitGroup
	for n := 0; n < numberOfProducers; n++ {
		wg.Add(1)

		go func(id int, producer *msgqueue.Producer[int]) {
			defer wg.Done()
			defer func() { _ = producer.Release() }()

			for i := 0; i < valuesPerProducer; i++ {
				producer.Push(numberOfProducers*i + id)
			}
		}(n, producer.Clone())
	}
	wg.Wait()

	values := make([]int, 0, numberOfProducers*valuesPerProducer)
	for value := range consumer.Drain() {
		values = append(values, value)
	}

	sort.Ints(values)
	Len(t, values, numberOfProducers*valuesPerProducer)

	for i, value := range values {
		Equal(t, i, value)
	}

	stats := consumer.Stats()
	Equal(t, uint64(numberOfProducers*valuesPerProducer), stats.Pushes)
	Equal(t, uint64(numberOfProducers*valuesPerProducer), stats.Pops)
	Equal(t, int64(1), stats.LiveNodes)
}

func TestPerProducerOrderWithConcurrentConsumer(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	var (
		wg   sync.WaitGroup
		done = make(chan struct{})
	)

	for n := 0; n < numberOfProducers; n++ {
		wg.Add(1)

		go func(id int, producer *msgqueue.Producer[int]) {
			defer wg.Done()
			defer func() { _ = producer.Release() }()

			for i := 0; i < valuesPerProducer; i++ {
				producer.Push(numberOfProducers*i + id)
			}
		}(n, producer.Clone())
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	var (
		last     = []int{-1, -1, -1, -1}
		received int
		finished bool
	)

	deadline := time.After(30 * time.Second)

	for !finished {
		value, ok := consumer.Pop()
		if ok {
			id := value % numberOfProducers
			Greater(t, value, last[id], "producer %d delivered out of order", id)
			last[id] = value
			received++

			continue
		}

		select {
		case <-done:
			// All pushes completed, an empty pop now means a drained queue.
			value, ok = consumer.Pop()
			if ok {
				id := value % numberOfProducers
				Greater(t, value, last[id])
				last[id] = value
				received++

				continue
			}

			finished = true
		case <-deadline:
			t.Fatalf("timeout waiting for values, received %d", received)
		default:
		}
	}

	Equal(t, numberOfProducers*valuesPerProducer, received)

	for id := 0; id < numberOfProducers; id++ {
		Equal(t, numberOfProducers*(valuesPerProducer-1)+id, last[id])
	}
}

func TestEmptyAfterDrain(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	for i := 0; i < 100; i++ {
		producer.Push(i)
	}

	count := 0
	for range consumer.Drain() {
		count++
	}

	Equal(t, 100, count)

	for i := 0; i < 10; i++ {
		_, ok := consumer.Pop()
		False(t, ok)
		True(t, consumer.IsEmpty())
	}
}

func TestDrainStopsWhenYieldReturnsFalse(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	for i := 0; i < 10; i++ {
		producer.Push(i)
	}

	for value := range consumer.Drain() {
		if value == 4 {
			break
		}
	}

	value, ok := consumer.Pop()
	True(t, ok)
	Equal(t, 5, value)
}

func TestProgressUnderContention(t *testing.T) {
	const producers = 64

	producer, consumer := msgqueue.New[int]()
	defer releaseAll(t, producer, consumer)

	var (
		start = make(chan struct{})
		wg    sync.WaitGroup
		done  = make(chan struct{})
	)

	for n := 0; n < producers; n++ {
		wg.Add(1)

		go func(id int, producer *msgqueue.Producer[int]) {
			defer wg.Done()
			defer func() { _ = producer.Release() }()
			<-start
			producer.Push(id)
		}(n, producer.Clone())
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	close(start)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("producers did not make progress")
	}

	stats := consumer.Stats()
	Equal(t, uint64(producers), stats.Pushes)
	Equal(t, int64(producers+1), stats.LiveNodes)
	LessOrEqual(t, stats.LinkRetries, uint64(producers*(producers-1)))

	seen := make(map[int]struct{}, producers)
	for value := range consumer.Drain() {
		seen[value] = struct{}{}
	}

	Len(t, seen, producers)
}

func TestCloneSharesQueue(t *testing.T) {
	producer, consumer := msgqueue.New[int]()

	second := producer.Clone()
	third := consumer.Producer()

	producer.Push(1)
	second.Push(2)
	third.Push(3)

	NoError(t, producer.Release())
	NoError(t, second.Release())

	otherConsumer := consumer.Clone()
	NoError(t, consumer.Release())

	values := make([]int, 0, 3)
	for value := range otherConsumer.Drain() {
		values = append(values, value)
	}

	Equal(t, []int{1, 2, 3}, values)
	NoError(t, third.Release())
	NoError(t, otherConsumer.Release())
}

func TestReleaseTwice(t *testing.T) {
	producer, consumer := msgqueue.New[int]()

	NoError(t, producer.Release())
	ErrorIs(t, producer.Release(), errors.ErrHandleReleased)
	NoError(t, consumer.Release())
	ErrorIs(t, consumer.Release(), errors.ErrHandleReleased)
}

func TestUseAfterReleasePanics(t *testing.T) {
	producer, consumer := msgqueue.New[int]()
	clone := producer.Clone()

	NoError(t, producer.Release())
	PanicsWithValue(t, errors.ErrHandleReleased, func() { producer.Push(1) })
	PanicsWithValue(t, errors.ErrHandleReleased, func() { producer.Clone() })

	clone.Push(1)
	NoError(t, clone.Release())
	NoError(t, consumer.Release())
	PanicsWithValue(t, errors.ErrHandleReleased, func() { consumer.Pop() })
	PanicsWithValue(t, errors.ErrHandleReleased, func() { consumer.Producer() })
}

func TestDropHandlerOnRelease(t *testing.T) {
	var dropped []int

	producer, consumer := msgqueue.New[int](msgqueue.WithDropHandler(func(value int) {
		dropped = append(dropped, value)
	}))

	for i := 0; i < 5; i++ {
		producer.Push(i)
	}

	value, ok := consumer.Pop()
	True(t, ok)
	Equal(t, 0, value)

	NoError(t, consumer.Release())
	Empty(t, dropped)

	producer.Push(5)
	NoError(t, producer.Release())

	Equal(t, []int{1, 2, 3, 4, 5}, dropped)
}

func TestDropHandlerTypeMismatchPanics(t *testing.T) {
	var recovered any

	func() {
		defer func() { recovered = recover() }()
		msgqueue.New[int](msgqueue.WithDropHandler(func(string) {}))
	}()

	err, ok := recovered.(error)
	True(t, ok, "panic value must be an error, got %v", recovered)
	ErrorIs(t, err, errors.ErrDropHandlerType)
	Contains(t, err.Error(), "func(int)")
}

func TestConcurrentNew(t *testing.T) {
	const goroutines = 16

	var (
		start = make(chan struct{})
		wg    sync.WaitGroup
	)

	for n := 0; n < goroutines; n++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			<-start

			var out bytes.Buffer

			producer, consumer := msgqueue.New[int](
				msgqueue.WithLoggerLevel(logger.DebugLevel),
				msgqueue.WithLoggerOutput(&out),
			)
			producer.Push(id)

			value, ok := consumer.Pop()
			if !ok || value != id {
				t.Errorf("queue %d returned %d, %v", id, value, ok)
			}

			if err := producer.Release(); err != nil {
				t.Error(err)
			}

			if err := consumer.Release(); err != nil {
				t.Error(err)
			}
		}(n)
	}

	close(start)
	wg.Wait()
}

func TestPrettyLoggerWritesToConfiguredOutput(t *testing.T) {
	var out bytes.Buffer

	producer, consumer := msgqueue.New[int](
		msgqueue.WithName("pretty"),
		msgqueue.WithLoggerLevel(logger.DebugLevel),
		msgqueue.WithPrettyLogger(true),
		msgqueue.WithLoggerOutput(&out),
	)
	producer.Push(1)
	releaseAll(t, producer, consumer)

	Contains(t, out.String(), "Queue created")
	Contains(t, out.String(), "Queue released")
	NotContains(t, out.String(), `"message":`)
}

func TestReleaseLogsTeardown(t *testing.T) {
	var out bytes.Buffer

	producer, consumer := msgqueue.New[int](
		msgqueue.WithName("teardown"),
		msgqueue.WithLoggerLevel(logger.DebugLevel),
		msgqueue.WithLoggerOutput(&out),
	)
	producer.Push(1)
	producer.Push(2)
	releaseAll(t, producer, consumer)

	Contains(t, out.String(), `"component":"teardown"`)
	Contains(t, out.String(), `"message":"Queue released"`)
	Contains(t, out.String(), `"dropped":2`)
}
