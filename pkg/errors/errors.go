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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported occurs when not supported feature is used.
	ErrNotSupported = errors.New("not supported")
	// ErrHandleReleased occurs when a queue handle is used or released after it has been released.
	ErrHandleReleased = errors.New("queue handle already released")
	// ErrConcurrentPop occurs when two consumers pop from the same queue at the same time.
	ErrConcurrentPop = errors.New("concurrent pop on single consumer queue")
	// ErrDropHandlerType occurs when the drop handler does not accept the queue element type.
	ErrDropHandlerType = errors.New("drop handler type does not match queue element type")
	// ErrValueLost occurs when a pushed value was never delivered to the consumer.
	ErrValueLost = errors.New("value lost")
	// ErrValueDuplicated occurs when a value was delivered to the consumer more than once.
	ErrValueDuplicated = errors.New("value duplicated")
	// ErrUnexpectedValue occurs when the consumer receives a value nobody pushed.
	ErrUnexpectedValue = errors.New("unexpected value")
	// ErrOrderViolation occurs when values of a single producer are delivered out of order.
	ErrOrderViolation = errors.New("producer order violated")
	// ErrDigestMismatch occurs when the digest of delivered values differs from the pushed one.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrResurrected occurs when a drained queue yields a value again.
	ErrResurrected = errors.New("drained queue yielded a value")
	// ErrInvalidConsumerMode occurs when consumer mode is unknown.
	ErrInvalidConsumerMode = errors.New("invalid consumer mode")
	// ErrInvalidConfig occurs when stress configuration values are out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

func ErrorDropHandlerType(expected, actual any) error {
	return fmt.Errorf("%w, expected: func(%T), actual: %T", ErrDropHandlerType, expected, actual)
}

func ErrorValueLost(value int) error {
	return fmt.Errorf("%w, value: %d", ErrValueLost, value)
}

func ErrorValueDuplicated(value int) error {
	return fmt.Errorf("%w, value: %d", ErrValueDuplicated, value)
}

func ErrorUnexpectedValue(value int) error {
	return fmt.Errorf("%w, value: %d", ErrUnexpectedValue, value)
}

func ErrorOrderViolation(producer, previous, current int) error {
	return fmt.Errorf("%w, producer: %d, previous: %d, current: %d", ErrOrderViolation, producer, previous, current)
}

func ErrorDigestMismatch(pushed, popped uint64) error {
	return fmt.Errorf("%w, pushed: %x, popped: %x", ErrDigestMismatch, pushed, popped)
}

func ErrorInvalidConsumerMode(mode string) error {
	return fmt.Errorf("%w, mode: %s", ErrInvalidConsumerMode, mode)
}

func ErrorInvalidConfig(field string, value int) error {
	return fmt.Errorf("%w, %s: %d", ErrInvalidConfig, field, value)
}
