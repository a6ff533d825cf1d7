// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tbsync/tbsync/testbench/channel"
	"github.com/tbsync/tbsync/testbench/metrics"
)

// Sequencer arbitrates between sequences and admits one item at a time.
type Sequencer[Req, Rsp any] struct {
	name    string
	broker  *Broker[Req, Rsp]
	pending *channel.FIFO[*Item[Req]]
	metrics *metrics.Metrics
	log     *log.Entry

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	current *Item[Req]
}

func NewSequencer[Req, Rsp any](name string, opts ...Option) *Sequencer[Req, Rsp] {
	o := newOptions(opts)
	return &Sequencer[Req, Rsp]{
		name:    name,
		broker:  newBroker[Req, Rsp](name+".seq_item_export", name, o),
		pending: channel.NewFIFO[*Item[Req]](name+".pending", channel.Unbounded),
		metrics: o.metrics,
		log:     o.log("sequencer", name),
	}
}

func (s *Sequencer[Req, Rsp]) Name() string {
	return s.name
}

// Broker returns the export the consumer's ItemPort connects to.
func (s *Sequencer[Req, Rsp]) Broker() *Broker[Req, Rsp] {
	return s.broker
}

// Start runs the admission loop in a new goroutine until ctx is done or Stop
// is called.
func (s *Sequencer[Req, Rsp]) Start(ctx context.Context) error {
	loopCtx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		defer s.end(done)
		s.admit(loopCtx)
	}()
	return nil
}

// Run is Start without the goroutine. It returns once ctx is done or Stop is
// called.
func (s *Sequencer[Req, Rsp]) Run(ctx context.Context) error {
	loopCtx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer s.end(done)
	s.admit(loopCtx)
	return nil
}

// Stop terminates the admission loop and releases every sequence waiting in
// ReserveTurn or HandOver with ErrSequencerStopped. A stopped sequencer
// cannot be restarted.
func (s *Sequencer[Req, Rsp]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	released := 0
	for {
		item, ok, _ := s.pending.TryGet()
		if !ok {
			break
		}
		item.flow.Abandon(ErrSequencerStopped)
		released++
	}
	s.metrics.SetPending(s.name, 0)

	s.mu.Lock()
	if cur := s.current; cur != nil {
		cur.flow.Abandon(ErrSequencerStopped)
		s.current = nil
		released++
	}
	s.mu.Unlock()

	s.log.Infof("Stopped, released %d waiting items", released)
}

// ReserveTurn queues item for admission and blocks until the admission loop
// admits it. If ctx ends first the item is withdrawn and never admitted.
func (s *Sequencer[Req, Rsp]) ReserveTurn(ctx context.Context, item *Item[Req]) error {
	if item == nil {
		return fmt.Errorf("%s: nil item", s.name)
	}

	if item.flow.Settled() || !item.reserved.CompareAndSwap(false, true) {
		return s.violation("ReserveTurn", stmtItemReused)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSequencerStopped
	}
	item.reservedAt = time.Now()
	if _, err := s.pending.TryPut(item); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.metrics.SetPending(s.name, s.pending.Len())
	s.log.Debugf("Item %s waiting for admission", item.id)

	if err := item.flow.AwaitAdmitted(ctx); err != nil {
		if item.flow.Abandon(err) {
			s.log.Debugf("Item %s withdrawn before admission: %s", item.id, err)
		}
		return err
	}
	return nil
}

// HandOver queues an admitted item for the consumer and blocks until the
// consumer completes it.
func (s *Sequencer[Req, Rsp]) HandOver(ctx context.Context, item *Item[Req]) error {
	if item == nil {
		return fmt.Errorf("%s: nil item", s.name)
	}
	if !item.flow.Admitted() {
		return s.violation("HandOver", stmtNotAdmitted)
	}
	if item.flow.Settled() {
		return s.violation("HandOver", stmtItemSettled)
	}
	if !item.handedOver.CompareAndSwap(false, true) {
		return s.violation("HandOver", stmtHandedOver)
	}

	if err := s.broker.EnqueueRequest(ctx, item); err != nil {
		item.flow.Abandon(err)
		return err
	}
	if err := item.flow.AwaitCompleted(ctx); err != nil {
		item.flow.Abandon(err)
		return err
	}

	if !item.reservedAt.IsZero() {
		s.metrics.ObserveLatency(s.name, time.Since(item.reservedAt))
	}
	return nil
}

func (s *Sequencer[Req, Rsp]) AwaitResponse(ctx context.Context) (*Response[Rsp], error) {
	return s.broker.AwaitResponse(ctx)
}

func (s *Sequencer[Req, Rsp]) AwaitResponseFor(ctx context.Context, id uuid.UUID) (*Response[Rsp], error) {
	return s.broker.AwaitResponseFor(ctx, id)
}

// PendingAdmission is the number of items queued behind the admitted one.
func (s *Sequencer[Req, Rsp]) PendingAdmission() int {
	return s.pending.Len()
}

func (s *Sequencer[Req, Rsp]) begin(ctx context.Context) (context.Context, chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, nil, ErrSequencerStopped
	}
	if s.running {
		return nil, nil, ErrSequencerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	return loopCtx, s.done, nil
}

func (s *Sequencer[Req, Rsp]) end(done chan struct{}) {
	s.mu.Lock()
	s.running = false
	s.cancel()
	s.mu.Unlock()
	close(done)
}

func (s *Sequencer[Req, Rsp]) admit(ctx context.Context) {
	s.log.Info("Admission loop started")
	defer s.log.Info("Admission loop exited")

	// an item admitted by a previous run is still outstanding
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil && !s.awaitCurrent(ctx, cur) {
		return
	}

	for {
		item, err := s.pending.Get(ctx)
		if err != nil {
			return
		}
		s.metrics.SetPending(s.name, s.pending.Len())

		s.mu.Lock()
		s.current = item
		s.mu.Unlock()
		if err := item.flow.Admit(); err != nil {
			s.mu.Lock()
			s.current = nil
			s.mu.Unlock()
			s.log.Debugf("Skipping withdrawn item %s", item.id)
			continue
		}
		s.metrics.Admitted(s.name)
		s.log.Debugf("Admitted item %s of sequence %s", item.id, item.sequenceID)

		if !s.awaitCurrent(ctx, item) {
			return
		}
	}
}

func (s *Sequencer[Req, Rsp]) awaitCurrent(ctx context.Context, item *Item[Req]) bool {
	select {
	case <-item.flow.CompletedOrCanceled():
	case <-ctx.Done():
		return false
	}

	s.mu.Lock()
	if s.current == item {
		s.current = nil
	}
	s.mu.Unlock()
	return true
}

func (s *Sequencer[Req, Rsp]) violation(op, statement string) error {
	err := &ProtocolViolationError{Component: s.name, Op: op, Statement: statement}
	s.metrics.Violation(s.name, op)
	s.log.Warn(err)
	return err
}
