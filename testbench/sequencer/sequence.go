// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tbsync/tbsync/testbench/logging"
)

// Sequence produces items for one sequencer. Items carry the sequence's
// identity so its responses can be told apart from those of other sequences.
type Sequence[Req, Rsp any] struct {
	id        uuid.UUID
	name      string
	sequencer *Sequencer[Req, Rsp]
	log       *log.Entry
}

func NewSequence[Req, Rsp any](name string, sqr *Sequencer[Req, Rsp]) *Sequence[Req, Rsp] {
	return &Sequence[Req, Rsp]{
		id:        uuid.New(),
		name:      name,
		sequencer: sqr,
		log:       logging.WithComponent("sequence", name),
	}
}

// SequenceFromRegistry looks up the sequencer registered at path and creates
// a sequence running on it.
func SequenceFromRegistry[Req, Rsp any](r *Registry, path, name string) (*Sequence[Req, Rsp], error) {
	sqr, err := Lookup[Req, Rsp](r, path)
	if err != nil {
		return nil, err
	}
	return NewSequence(name, sqr), nil
}

func (s *Sequence[Req, Rsp]) ID() uuid.UUID {
	return s.id
}

func (s *Sequence[Req, Rsp]) Name() string {
	return s.name
}

func (s *Sequence[Req, Rsp]) Sequencer() *Sequencer[Req, Rsp] {
	return s.sequencer
}

// NewItem creates an item owned by this sequence.
func (s *Sequence[Req, Rsp]) NewItem(payload Req) *Item[Req] {
	return NewItem(s.id, payload)
}

func (s *Sequence[Req, Rsp]) ReserveTurn(ctx context.Context, item *Item[Req]) error {
	if err := s.checkOwner("ReserveTurn", item); err != nil {
		return err
	}
	return s.sequencer.ReserveTurn(ctx, item)
}

func (s *Sequence[Req, Rsp]) HandOver(ctx context.Context, item *Item[Req]) error {
	if err := s.checkOwner("HandOver", item); err != nil {
		return err
	}
	return s.sequencer.HandOver(ctx, item)
}

// Do creates an item for payload, reserves a turn, lets fill adjust the item
// once admitted and hands it over. fill may be nil. An error from fill
// abandons the item without handing it over.
func (s *Sequence[Req, Rsp]) Do(ctx context.Context, payload Req, fill func(*Item[Req]) error) (*Item[Req], error) {
	item := s.NewItem(payload)
	if err := s.ReserveTurn(ctx, item); err != nil {
		return item, err
	}
	if fill != nil {
		if err := fill(item); err != nil {
			item.flow.Abandon(err)
			return item, err
		}
	}
	return item, s.HandOver(ctx, item)
}

// AwaitResponse returns the oldest response addressed to this sequence.
func (s *Sequence[Req, Rsp]) AwaitResponse(ctx context.Context) (*Response[Rsp], error) {
	return s.sequencer.broker.AwaitSequenceResponse(ctx, s.id)
}

// AwaitResponseFor returns the response to the item with the given id.
func (s *Sequence[Req, Rsp]) AwaitResponseFor(ctx context.Context, id uuid.UUID) (*Response[Rsp], error) {
	return s.sequencer.broker.AwaitResponseFor(ctx, id)
}

// Start runs body in a new goroutine and returns a channel that receives its
// result once.
func (s *Sequence[Req, Rsp]) Start(ctx context.Context, body func(context.Context, *Sequence[Req, Rsp]) error) <-chan error {
	result := make(chan error, 1)
	go func() {
		s.log.Debug("Sequence started")
		err := body(ctx, s)
		if err != nil {
			s.log.WithError(err).Warn("Sequence failed")
		} else {
			s.log.Debug("Sequence finished")
		}
		result <- err
	}()
	return result
}

func (s *Sequence[Req, Rsp]) checkOwner(op string, item *Item[Req]) error {
	if item != nil && item.sequenceID != s.id {
		err := &ProtocolViolationError{Component: s.name, Op: op, Statement: stmtForeignSequence}
		s.sequencer.metrics.Violation(s.sequencer.name, op)
		s.log.Warn(err)
		return err
	}
	return nil
}
