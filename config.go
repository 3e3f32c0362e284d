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
	"io"

	"github.com/rs/zerolog"
)

const defaultName = "msgqueue"

type ConfigOption func(*Config)

type Config struct {
	// Name is used as the logger component.
	Name string
	// LoggerLevel is the logging level of the queue.
	LoggerLevel zerolog.Level
	// PrettyLogger enables pretty, human readable console output. Warning: it can slow down the queue.
	PrettyLogger bool
	// LoggerOutput overrides the default log destination.
	LoggerOutput io.Writer
	// DropHandler is a func(T) called for every payload still queued when the last handle is released.
	DropHandler any
}

func WithName(name string) ConfigOption {
	return func(c *Config) {
		c.Name = name
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

func WithLoggerOutput(out io.Writer) ConfigOption {
	return func(c *Config) {
		c.LoggerOutput = out
	}
}

// WithDropHandler registers a destructor for payloads that are never consumed.
// The element type of handler must match the element type of the queue,
// otherwise New panics with an error wrapping errors.ErrDropHandlerType.
func WithDropHandler[T any](handler func(T)) ConfigOption {
	return func(c *Config) {
		c.DropHandler = handler
	}
}

func NewConfig(opts ...ConfigOption) Config {
	config := Config{
		Name:         defaultName,
		LoggerLevel:  zerolog.ErrorLevel,
		PrettyLogger: false,
	}
	for _, opt := range opts {
		opt(&config)
	}

	return config
}
