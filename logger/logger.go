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

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
	PanicLevel = zerolog.PanicLevel
	Disabled   = zerolog.Disabled
	TraceLevel = zerolog.TraceLevel
	NoLevel    = zerolog.NoLevel
)

var levelNames = map[string]zerolog.Level{
	"debug":    DebugLevel,
	"info":     InfoLevel,
	"warn":     WarnLevel,
	"error":    ErrorLevel,
	"fatal":    FatalLevel,
	"panic":    PanicLevel,
	"disabled": Disabled,
	"trace":    TraceLevel,
}

// LevelNames returns accepted names of logger levels.
func LevelNames() []string {
	return []string{"debug", "info", "warn", "error", "fatal", "panic", "disabled", "trace"}
}

// ParseLevel maps a level name to zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	level, ok := levelNames[name]
	if !ok {
		return NoLevel, fmt.Errorf("possible values for logger level: %v", LevelNames())
	}

	return level, nil
}

var timeFormatOnce sync.Once

// NewLogger writes JSON lines to stdout, or human readable lines to stderr when pretty is set.
func NewLogger(component string, level zerolog.Level, pretty bool) zerolog.Logger {
	out := io.Writer(os.Stdout)
	if pretty {
		out = os.Stderr
	}

	return NewLoggerWithWriter(out, component, level, pretty)
}

// NewLoggerWithWriter is safe to call from many goroutines, the global time
// format is set on first use only.
func NewLoggerWithWriter(out io.Writer, component string, level zerolog.Level, pretty bool) zerolog.Logger {
	timeFormatOnce.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	})

	if pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	return zerolog.New(out).With().Timestamp().Str("component", component).Logger().Level(level)
}
