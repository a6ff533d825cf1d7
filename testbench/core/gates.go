// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"sync"
)

// ErrGateIntegrity is returned when a gate is walked through more than once.
var ErrGateIntegrity = errors.New("ErrGateIntegrity")

// ErrGateCanceled is returned to waiters of a gate canceled without a cause.
var ErrGateCanceled = errors.New("ErrGateCanceled")

// Gate is a one-shot wait/notify primitive carrying a value of type V.
type Gate[V any] interface {
	WalkThrough(V) error
	AwaitGateCondition(ctx context.Context) (V, error)
	CancelWithError(error) bool
	Signaled() bool
	Done() <-chan struct{}
}

type gateImpl[V any] struct {
	mu       sync.Mutex
	done     chan struct{}
	signaled bool
	canceled bool
	value    V
	err      error
}

// NewGate returns an open gate.
func NewGate[V any]() Gate[V] {
	return &gateImpl[V]{done: make(chan struct{})}
}

// WalkThrough signals the gate with value and releases every waiter.
func (g *gateImpl[V]) WalkThrough(value V) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.canceled {
		return g.cancelErr()
	}
	if g.signaled {
		return ErrGateIntegrity
	}

	g.signaled = true
	g.value = value
	close(g.done)
	return nil
}

// AwaitGateCondition blocks until the gate is walked through or canceled, or ctx is done.
func (g *gateImpl[V]) AwaitGateCondition(ctx context.Context) (V, error) {
	var zero V

	select {
	case <-g.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.canceled {
		return zero, g.cancelErr()
	}
	return g.value, nil
}

// CancelWithError releases waiters with err. It reports false, and changes
// nothing, if the gate was already signaled or canceled.
func (g *gateImpl[V]) CancelWithError(err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.signaled || g.canceled {
		return false
	}
	g.canceled = true
	g.err = err
	close(g.done)
	return true
}

func (g *gateImpl[V]) Signaled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signaled
}

// Done returns a channel closed once the gate is signaled or canceled.
func (g *gateImpl[V]) Done() <-chan struct{} {
	return g.done
}

// cancelErr must be called with g.mu held.
func (g *gateImpl[V]) cancelErr() error {
	if g.err != nil {
		return g.err
	}
	return ErrGateCanceled
}
