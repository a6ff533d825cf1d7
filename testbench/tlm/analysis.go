// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"sync"
)

// AnalysisPort broadcasts every Write to all connected subscribers.
type AnalysisPort[T any] struct {
	name string

	mu          sync.RWMutex
	subscribers []Writer[T]
}

func NewAnalysisPort[T any](name string) *AnalysisPort[T] {
	return &AnalysisPort[T]{name: name}
}

func (a *AnalysisPort[T]) Name() string {
	return a.name
}

// Connect adds a subscriber. Any number of subscribers may be connected.
func (a *AnalysisPort[T]) Connect(w Writer[T]) error {
	if w == nil {
		return &MismatchError{Endpoint: a.name, Reason: reasonNilProvider}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, w)
	return nil
}

// Connected reports whether at least one subscriber is attached. An analysis
// port with no subscribers is legal; writes are dropped.
func (a *AnalysisPort[T]) Connected() bool {
	return a.Size() > 0
}

func (a *AnalysisPort[T]) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.subscribers)
}

// Write delivers t to every subscriber in connection order.
func (a *AnalysisPort[T]) Write(t T) {
	a.mu.RLock()
	subscribers := a.subscribers
	a.mu.RUnlock()

	for _, w := range subscribers {
		w.Write(t)
	}
}
