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

package stress

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/alitto/pond"
	"github.com/pawelgaczynski/msgqueue"
	"github.com/pawelgaczynski/msgqueue/logger"
	queueErrors "github.com/pawelgaczynski/msgqueue/pkg/errors"
	"github.com/pawelgaczynski/msgqueue/pkg/stack"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Producers look at the run context once per this many pushes.
const ctxCheckInterval = 1024

type ProducerReport struct {
	ID       int
	Pushed   int
	Duration time.Duration
	digest   digest
}

type Report struct {
	// Producers holds one report per producer, ordered by id.
	Producers []ProducerReport
	// Received is the number of values the consumer verified.
	Received int
	// Duration is the wall time from the first submitted producer to the verified drain.
	Duration time.Duration
	// Digest is the order independent fingerprint of every delivered value.
	Digest uint64
	// Queue is the queue counters snapshot taken after the drain.
	Queue msgqueue.Stats
}

type runner struct {
	config  Config
	logger  zerolog.Logger
	reports *stack.Stack[ProducerReport]
}

// Run pushes values from concurrent producers through a fresh queue and
// verifies that the single consumer receives every value exactly once and in
// per-producer order.
func Run(ctx context.Context, config Config) (Report, error) {
	if err := config.validate(); err != nil {
		return Report{}, errors.Wrapf(err, "validating stress config")
	}

	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	r := &runner{
		config:  config,
		logger:  logger.NewLogger("stress", config.LoggerLevel, config.PrettyLogger),
		reports: stack.NewLockFreeStack[ProducerReport](),
	}

	if config.ProcessPriority {
		if err := setProcessPriority(); err != nil {
			r.logger.Warn().Err(err).Msg("Process priority not changed")
		}
	}

	report, err := r.run(ctx)
	if err != nil {
		return report, errors.Wrapf(err, "stress run, producers: %d, values per producer: %d, mode: %s",
			config.Producers, config.ValuesPerProducer, config.ConsumerMode)
	}

	return report, nil
}

func (r *runner) run(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	producer, consumer := msgqueue.New[int](
		msgqueue.WithName("stress-queue"),
		msgqueue.WithLoggerLevel(r.config.LoggerLevel),
		msgqueue.WithPrettyLogger(r.config.PrettyLogger),
	)
	defer func() { _ = consumer.Release() }()

	r.logger.Info().
		Int("producers", r.config.Producers).
		Int("valuesPerProducer", r.config.ValuesPerProducer).
		Int("workers", r.config.workers()).
		Str("mode", string(r.config.ConsumerMode)).
		Msg("Starting stress run")

	start := time.Now()
	pool := pond.New(r.config.workers(), r.config.Producers)

	for id := 0; id < r.config.Producers; id++ {
		pool.Submit(r.producerTask(ctx, id, producer.Clone()))
	}

	// Only the per-producer clones keep the producing side alive from here on.
	if err := producer.Release(); err != nil {
		return Report{}, err
	}

	done := make(chan struct{})

	go func() {
		pool.StopAndWait()
		close(done)
	}()

	check := newVerifier(r.config.Producers, r.config.ValuesPerProducer)

	var err error

	switch r.config.ConsumerMode {
	case Concurrent:
		err = consumeConcurrently(ctx, consumer, check, done)
	case AfterJoin:
		err = consumeAfterJoin(ctx, consumer, check, done)
	}

	if err != nil {
		// Stop the producers and wait for them, nobody drains their pushes anymore.
		cancel()
		<-done

		return Report{Received: check.received, Queue: consumer.Stats()}, err
	}

	if value, ok := consumer.Pop(); ok {
		return Report{Received: check.received}, errors.Wrapf(queueErrors.ErrResurrected, "value: %d", value)
	}

	producers := r.reports.PopAll()
	sort.Slice(producers, func(i, j int) bool { return producers[i].ID < producers[j].ID })

	var pushed digest
	for _, producerReport := range producers {
		pushed.merge(producerReport.digest)
	}

	if err = check.finish(pushed); err != nil {
		return Report{Received: check.received}, err
	}

	report := Report{
		Producers: producers,
		Received:  check.received,
		Duration:  time.Since(start),
		Digest:    uint64(check.digest),
		Queue:     consumer.Stats(),
	}

	r.logger.Info().
		Int("received", report.Received).
		Dur("duration", report.Duration).
		Uint64("linkRetries", report.Queue.LinkRetries).
		Uint64("tailForwards", report.Queue.TailForwards).
		Msg("Stress run verified")

	return report, nil
}

func (r *runner) producerTask(ctx context.Context, id int, producer *msgqueue.Producer[int]) func() {
	return func() {
		defer func() { _ = producer.Release() }()

		if r.config.LockOSThread || r.config.CPUAffinity {
			runtime.LockOSThread()
			// A pinned thread is never handed back, it exits together with its pool worker.
			if !r.config.CPUAffinity {
				defer runtime.UnlockOSThread()
			}
		}

		if r.config.CPUAffinity {
			if err := setAffinity(id); err != nil {
				r.logger.Warn().Err(err).Int("producer", id).Msg("CPU affinity not set")
			}
		}

		var (
			start  = time.Now()
			values digest
			pushed int
		)

		for ; pushed < r.config.ValuesPerProducer; pushed++ {
			if pushed%ctxCheckInterval == 0 && ctx.Err() != nil {
				r.logger.Debug().Int("producer", id).Int("pushed", pushed).Msg("Producer cancelled")

				break
			}

			value := r.config.Producers*pushed + id
			producer.Push(value)
			values.add(value)
		}

		report := ProducerReport{
			ID:       id,
			Pushed:   pushed,
			Duration: time.Since(start),
			digest:   values,
		}
		r.reports.Push(report)

		r.logger.Debug().Int("producer", id).Dur("duration", report.Duration).Msg("Producer finished")
	}
}

func consumeAfterJoin(ctx context.Context, consumer *msgqueue.Consumer[int], check *verifier,
	done <-chan struct{},
) error {
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Cancelled producers stop early and still close done.
	if err := ctx.Err(); err != nil {
		return err
	}

	return drain(consumer, check)
}

func consumeConcurrently(ctx context.Context, consumer *msgqueue.Consumer[int], check *verifier,
	done <-chan struct{},
) error {
	for popped := 1; ; popped++ {
		value, ok := consumer.Pop()
		if ok {
			if err := check.observe(value); err != nil {
				return err
			}

			// Producers may keep the queue non-empty for the whole run.
			if popped%ctxCheckInterval == 0 && ctx.Err() != nil {
				return ctx.Err()
			}

			continue
		}

		select {
		case <-done:
			if err := ctx.Err(); err != nil {
				return err
			}

			// Every push has completed, so whatever is linked now is all there is.
			return drain(consumer, check)
		case <-ctx.Done():
			return ctx.Err()
		default:
			runtime.Gosched()
		}
	}
}

func drain(consumer *msgqueue.Consumer[int], check *verifier) error {
	for value := range consumer.Drain() {
		if err := check.observe(value); err != nil {
			return err
		}
	}

	return nil
}
