// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tbsync/tbsync/testbench/core"
)

// Item is a unit of work travelling from a sequence to the consumer. The
// consumer may write results into Payload before completing the item.
type Item[T any] struct {
	id         uuid.UUID
	sequenceID uuid.UUID
	Payload    T

	flow       *core.ItemFlow
	reservedAt time.Time

	// an item goes through ReserveTurn and HandOver at most once each
	reserved   atomic.Bool
	handedOver atomic.Bool
}

// NewItem creates an item owned by sequenceID. Use uuid.Nil for items fed to a
// broker directly, outside any sequence.
func NewItem[T any](sequenceID uuid.UUID, payload T) *Item[T] {
	return &Item[T]{
		id:         uuid.New(),
		sequenceID: sequenceID,
		Payload:    payload,
		flow:       core.NewItemFlow(),
	}
}

// ID is the transaction identity responses are correlated with.
func (i *Item[T]) ID() uuid.UUID {
	return i.id
}

func (i *Item[T]) SequenceID() uuid.UUID {
	return i.sequenceID
}

// Admitted reports whether the sequencer has admitted the item.
func (i *Item[T]) Admitted() bool {
	return i.flow.Admitted()
}

// Completed reports whether the consumer has completed the item.
func (i *Item[T]) Completed() bool {
	return i.flow.Completed()
}

// Response is a reply correlated with the request item it answers.
type Response[T any] struct {
	ID         uuid.UUID
	SequenceID uuid.UUID
	Value      T
}

func newResponse[Req, Rsp any](item *Item[Req], value Rsp) *Response[Rsp] {
	return &Response[Rsp]{
		ID:         item.id,
		SequenceID: item.sequenceID,
		Value:      value,
	}
}
