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
	"time"

	queueErrors "github.com/pawelgaczynski/msgqueue/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultProducers         = 4
	defaultValuesPerProducer = 10000
	defaultTimeout           = 30 * time.Second
)

type ConsumerMode string

const (
	// AfterJoin drains the queue only after every producer has finished.
	AfterJoin ConsumerMode = "after-join"
	// Concurrent drains the queue while producers are still pushing.
	Concurrent ConsumerMode = "concurrent"
)

type ConfigOption func(*Config)

type Config struct {
	// Producers is the number of concurrent producers.
	Producers int
	// ValuesPerProducer is the number of values pushed by every producer.
	ValuesPerProducer int
	// Workers is the size of the goroutine pool running producers. Zero means one worker per producer.
	Workers int
	// ConsumerMode decides when the consumer drains the queue.
	ConsumerMode ConsumerMode
	// Timeout bounds the whole run.
	Timeout time.Duration
	// LockOSThread locks every producer to its OS thread.
	LockOSThread bool
	// CPUAffinity pins every producer thread to a CPU core. Implies LockOSThread.
	CPUAffinity bool
	// ProcessPriority raises the process priority for the run. Note: requires root privileges.
	ProcessPriority bool
	// LoggerLevel is the logging level of the run and of the queue under test.
	LoggerLevel zerolog.Level
	// PrettyLogger enables pretty, human readable console output.
	PrettyLogger bool
}

func WithProducers(producers int) ConfigOption {
	return func(c *Config) {
		c.Producers = producers
	}
}

func WithValuesPerProducer(values int) ConfigOption {
	return func(c *Config) {
		c.ValuesPerProducer = values
	}
}

func WithWorkers(workers int) ConfigOption {
	return func(c *Config) {
		c.Workers = workers
	}
}

func WithConsumerMode(mode ConsumerMode) ConfigOption {
	return func(c *Config) {
		c.ConsumerMode = mode
	}
}

func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func WithLockOSThread(lockOSThread bool) ConfigOption {
	return func(c *Config) {
		c.LockOSThread = lockOSThread
	}
}

func WithCPUAffinity(cpuAffinity bool) ConfigOption {
	return func(c *Config) {
		c.CPUAffinity = cpuAffinity
	}
}

func WithProcessPriority(processPriority bool) ConfigOption {
	return func(c *Config) {
		c.ProcessPriority = processPriority
	}
}

func WithLoggerLevel(loggerLevel zerolog.Level) ConfigOption {
	return func(c *Config) {
		c.LoggerLevel = loggerLevel
	}
}

func WithPrettyLogger(prettyLogger bool) ConfigOption {
	return func(c *Config) {
		c.PrettyLogger = prettyLogger
	}
}

func NewConfig(opts ...ConfigOption) Config {
	config := Config{
		Producers:         defaultProducers,
		ValuesPerProducer: defaultValuesPerProducer,
		ConsumerMode:      AfterJoin,
		Timeout:           defaultTimeout,
		LoggerLevel:       zerolog.InfoLevel,
	}
	for _, opt := range opts {
		opt(&config)
	}

	return config
}

func (c Config) workers() int {
	if c.Workers == 0 {
		return c.Producers
	}

	return c.Workers
}

func (c Config) validate() error {
	switch {
	case c.Producers < 1:
		return queueErrors.ErrorInvalidConfig("producers", c.Producers)
	case c.ValuesPerProducer < 0:
		return queueErrors.ErrorInvalidConfig("values per producer", c.ValuesPerProducer)
	case c.Workers < 0:
		return queueErrors.ErrorInvalidConfig("workers", c.Workers)
	case c.Timeout <= 0:
		return queueErrors.ErrorInvalidConfig("timeout", int(c.Timeout))
	}

	switch c.ConsumerMode {
	case AfterJoin, Concurrent:
		return nil
	default:
		return queueErrors.ErrorInvalidConsumerMode(string(c.ConsumerMode))
	}
}
