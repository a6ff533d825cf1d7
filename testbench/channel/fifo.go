// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/tbsync/tbsync/testbench/logging"
	"github.com/tbsync/tbsync/testbench/tlm"
)

// Unbounded is the capacity of a FIFO that is never full.
const Unbounded = -1

// FIFO is an ordered buffer of fixed capacity.
type FIFO[T any] struct {
	name     string
	capacity int

	mu      sync.Mutex
	buf     []T
	changed chan struct{}
	getters int // blocked Get callers, the room of a rendezvous FIFO

	putExport     *tlm.Export[T]
	getPeekExport *tlm.Export[T]
}

// NewFIFO creates an empty FIFO. It panics if capacity is below Unbounded.
func NewFIFO[T any](name string, capacity int) *FIFO[T] {
	if capacity < Unbounded {
		panic(fmt.Sprintf("channel: invalid capacity %d for FIFO %q", capacity, name))
	}

	f := &FIFO[T]{
		name:     name,
		capacity: capacity,
		changed:  make(chan struct{}),
	}
	f.putExport = mustExport[T](name+".put_export", tlm.Put, f)
	f.getPeekExport = mustExport[T](name+".get_peek_export", tlm.GetPeek, f)
	return f
}

func mustExport[T any](name string, caps tlm.Capability, impl any) *tlm.Export[T] {
	exp, err := tlm.NewExport[T](name, caps, impl)
	if err != nil {
		panic(err)
	}
	return exp
}

func (f *FIFO[T]) Name() string {
	return f.name
}

// PutExport exposes the put side of the FIFO to tlm ports.
func (f *FIFO[T]) PutExport() *tlm.Export[T] {
	return f.putExport
}

// GetPeekExport exposes the get and peek side of the FIFO to tlm ports.
func (f *FIFO[T]) GetPeekExport() *tlm.Export[T] {
	return f.getPeekExport
}

// Put blocks until there is room, then appends t.
func (f *FIFO[T]) Put(ctx context.Context, t T) error {
	f.mu.Lock()
	for !f.roomLocked() {
		if err := f.waitLocked(ctx); err != nil {
			return err
		}
	}
	f.buf = append(f.buf, t)
	f.notifyLocked()
	f.mu.Unlock()
	return nil
}

// TryPut appends t if there is room. A full FIFO reports false.
func (f *FIFO[T]) TryPut(t T) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.roomLocked() {
		return false, nil
	}
	f.buf = append(f.buf, t)
	f.notifyLocked()
	return true, nil
}

// Get blocks until an item is available and removes the oldest one.
func (f *FIFO[T]) Get(ctx context.Context) (T, error) {
	f.mu.Lock()
	if err := f.awaitAsGetterLocked(ctx, f.nonEmptyLocked); err != nil {
		var zero T
		return zero, err
	}
	t := f.removeLocked(0)
	f.mu.Unlock()
	return t, nil
}

// TryGet removes and returns the oldest item if there is one.
func (f *FIFO[T]) TryGet() (T, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.buf) == 0 {
		var zero T
		return zero, false, nil
	}
	return f.removeLocked(0), true, nil
}

// GetFunc blocks until some item satisfies match and removes the first such
// item. Items ahead of it stay in place, in order.
func (f *FIFO[T]) GetFunc(ctx context.Context, match func(T) bool) (T, error) {
	found := -1
	ready := func() bool {
		found = -1
		for i, t := range f.buf {
			if match(t) {
				found = i
				return true
			}
		}
		return false
	}

	f.mu.Lock()
	if err := f.awaitAsGetterLocked(ctx, ready); err != nil {
		var zero T
		return zero, err
	}
	t := f.removeLocked(found)
	f.mu.Unlock()
	return t, nil
}

// Peek blocks until an item is available and returns the oldest one without
// removing it. On a rendezvous FIFO a waiting peeker lets one putter in, as a
// getter does; the item then stays buffered for the next getter.
func (f *FIFO[T]) Peek(ctx context.Context) (T, error) {
	f.mu.Lock()
	if err := f.awaitAsGetterLocked(ctx, f.nonEmptyLocked); err != nil {
		var zero T
		return zero, err
	}
	t := f.buf[0]
	f.mu.Unlock()
	return t, nil
}

// TryPeek returns the oldest item, if any, without removing it.
func (f *FIFO[T]) TryPeek() (T, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.buf) == 0 {
		var zero T
		return zero, false, nil
	}
	return f.buf[0], true, nil
}

// Len returns the number of buffered items.
func (f *FIFO[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

// Cap returns the capacity the FIFO was created with.
func (f *FIFO[T]) Cap() int {
	return f.capacity
}

func (f *FIFO[T]) IsEmpty() bool {
	return f.Len() == 0
}

// IsFull reports whether a put would have to wait right now.
func (f *FIFO[T]) IsFull() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.roomLocked()
}

// Flush drops every buffered item and wakes blocked putters.
func (f *FIFO[T]) Flush() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.buf)
	f.buf = nil
	f.notifyLocked()

	if n > 0 {
		logging.WithComponent("fifo", f.name).Debugf("Flushed %d items", n)
	}
	return n
}

func (f *FIFO[T]) roomLocked() bool {
	switch f.capacity {
	case Unbounded:
		return true
	case 0:
		return len(f.buf) < f.getters
	default:
		return len(f.buf) < f.capacity
	}
}

func (f *FIFO[T]) nonEmptyLocked() bool {
	return len(f.buf) > 0
}

// awaitAsGetterLocked waits until ready holds, counting the caller as a
// waiting getter so that a rendezvous put can proceed. It returns with f.mu
// held on success and released on error. On a rendezvous FIFO, a ctx that
// ends after a put was let in loses to that put: the caller takes the item
// instead of leaving it buffered with nobody waiting.
func (f *FIFO[T]) awaitAsGetterLocked(ctx context.Context, ready func() bool) error {
	f.getters++
	if f.capacity == 0 {
		f.notifyLocked()
	}
	for !ready() {
		if err := f.waitLocked(ctx); err != nil {
			f.mu.Lock()
			if f.capacity == 0 && ready() {
				break
			}
			f.getters--
			f.mu.Unlock()
			return err
		}
	}
	f.getters--
	return nil
}

// waitLocked releases f.mu, waits for the next state change or ctx, and
// reacquires f.mu only when it returns nil.
func (f *FIFO[T]) waitLocked(ctx context.Context) error {
	changed := f.changed
	f.mu.Unlock()

	select {
	case <-changed:
		f.mu.Lock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *FIFO[T]) notifyLocked() {
	close(f.changed)
	f.changed = make(chan struct{})
}

func (f *FIFO[T]) removeLocked(i int) T {
	var zero T
	t := f.buf[i]
	if i == 0 {
		f.buf[0] = zero
		f.buf = f.buf[1:]
	} else {
		copy(f.buf[i:], f.buf[i+1:])
		f.buf[len(f.buf)-1] = zero
		f.buf = f.buf[:len(f.buf)-1]
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	f.notifyLocked()
	return t
}
