// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"sync"

	"github.com/tbsync/tbsync/testbench/tlm"
)

// AnalysisFIFO is an unbounded FIFO that accepts non-blocking analysis writes.
type AnalysisFIFO[T any] struct {
	*FIFO[T]
}

func NewAnalysisFIFO[T any](name string) *AnalysisFIFO[T] {
	return &AnalysisFIFO[T]{FIFO: NewFIFO[T](name, Unbounded)}
}

// Write appends t. It never blocks.
func (a *AnalysisFIFO[T]) Write(t T) {
	a.TryPut(t)
}

// Broadcast copies every published item into each subscriber's own
// unbounded queue, so subscribers drain at their own pace.
type Broadcast[T any] struct {
	name string
	port *tlm.AnalysisPort[T]

	mu          sync.Mutex
	subscribers []*AnalysisFIFO[T]
}

func NewBroadcast[T any](name string) *Broadcast[T] {
	return &Broadcast[T]{
		name: name,
		port: tlm.NewAnalysisPort[T](name + ".analysis_port"),
	}
}

func (b *Broadcast[T]) Name() string {
	return b.name
}

// Subscribe returns a new subscriber queue. It receives every item published
// after this call.
func (b *Broadcast[T]) Subscribe(name string) *AnalysisFIFO[T] {
	sub := NewAnalysisFIFO[T](b.name + "." + name)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.port.Connect(sub)
	b.subscribers = append(b.subscribers, sub)
	return sub
}

// Publish delivers t to every subscriber. It never blocks.
func (b *Broadcast[T]) Publish(t T) {
	b.port.Write(t)
}

// Write lets a Broadcast itself be connected to an analysis port.
func (b *Broadcast[T]) Write(t T) {
	b.Publish(t)
}

// AnalysisPort exposes the underlying port, e.g. to add plain Writer subscribers.
func (b *Broadcast[T]) AnalysisPort() *tlm.AnalysisPort[T] {
	return b.port
}

func (b *Broadcast[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
