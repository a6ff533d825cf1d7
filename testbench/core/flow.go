// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
)

// ItemFlow wraps the admission and completion gates of a single work item.
type ItemFlow struct {
	admittedGate  Gate[struct{}]
	completedGate Gate[struct{}]
}

// NewItemFlow returns a flow with both gates open.
func NewItemFlow() *ItemFlow {
	return &ItemFlow{
		admittedGate:  NewGate[struct{}](),
		completedGate: NewGate[struct{}](),
	}
}

// Admit is called by the sequencer's admission loop when the item is chosen.
func (f *ItemFlow) Admit() error {
	return f.admittedGate.WalkThrough(struct{}{})
}

// AwaitAdmitted blocks the owning sequence until Admit is called.
func (f *ItemFlow) AwaitAdmitted(ctx context.Context) error {
	_, err := f.admittedGate.AwaitGateCondition(ctx)
	return err
}

// Complete is called by the consumer when it has finished with the item.
func (f *ItemFlow) Complete() error {
	return f.completedGate.WalkThrough(struct{}{})
}

// AwaitCompleted blocks until Complete is called.
func (f *ItemFlow) AwaitCompleted(ctx context.Context) error {
	_, err := f.completedGate.AwaitGateCondition(ctx)
	return err
}

func (f *ItemFlow) Admitted() bool {
	return f.admittedGate.Signaled()
}

func (f *ItemFlow) Completed() bool {
	return f.completedGate.Signaled()
}

// Settled reports whether the completion gate was signaled or canceled.
func (f *ItemFlow) Settled() bool {
	select {
	case <-f.completedGate.Done():
		return true
	default:
		return false
	}
}

// CompletedOrCanceled returns a channel closed when the completion gate is
// signaled or canceled.
func (f *ItemFlow) CompletedOrCanceled() <-chan struct{} {
	return f.completedGate.Done()
}

// Abandon cancels both gates with err. Gates already signaled are left as they
// are. It reports whether the admission gate was still open, i.e. whether the
// item was withdrawn before it was admitted.
func (f *ItemFlow) Abandon(err error) (withdrawn bool) {
	withdrawn = f.admittedGate.CancelWithError(err)
	f.completedGate.CancelWithError(err)
	return withdrawn
}
