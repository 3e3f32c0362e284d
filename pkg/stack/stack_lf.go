// Copyright 2023 Paweł Gaczyński.
// Copyright 2020 The golang.design Initiative authors.
// All rights reserved. Use of this source code is governed
// by a MIT license that can be found in the LICENSE file.
//
// Original source: https://github.com/golang-design/lockfree/blob/master/stack.go

package stack

import (
	"sync/atomic"
	"unsafe"
)

type node[T any] struct {
	value T
	next  unsafe.Pointer
}

// Stack is a lock-free LIFO safe for any number of pushing and popping goroutines.
// Every push allocates a fresh node and popped nodes are left to the GC, so a
// node address is never reused while another goroutine may still compare it.
type Stack[T any] struct {
	top unsafe.Pointer
	len int64
}

// NewLockFreeStack creates a new lock-free stack.
func NewLockFreeStack[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Push pushes value on top of the stack.
func (s *Stack[T]) Push(value T) {
	item := &node[T]{value: value}

	for {
		top := atomic.LoadPointer(&s.top)
		item.next = top

		if atomic.CompareAndSwapPointer(&s.top, top, unsafe.Pointer(item)) {
			atomic.AddInt64(&s.len, 1)

			return
		}
	}
}

// Pop pops value from the top of the stack. The second result is false when the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	for {
		top := atomic.LoadPointer(&s.top)
		if top == nil {
			var zero T

			return zero, false
		}

		item := (*node[T])(top)
		next := atomic.LoadPointer(&item.next)

		if atomic.CompareAndSwapPointer(&s.top, top, next) {
			atomic.AddInt64(&s.len, -1)

			return item.value, true
		}
	}
}

// PopAll detaches the whole stack at once and returns its values, newest first.
func (s *Stack[T]) PopAll() []T {
	top := atomic.SwapPointer(&s.top, nil)

	var values []T
	for current := (*node[T])(top); current != nil; current = (*node[T])(current.next) {
		values = append(values, current.value)
	}

	atomic.AddInt64(&s.len, -int64(len(values)))

	return values
}

// Len returns an approximate number of values on the stack.
func (s *Stack[T]) Len() int {
	length := atomic.LoadInt64(&s.len)
	if length < 0 {
		return 0
	}

	return int(length)
}
