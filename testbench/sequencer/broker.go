// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tbsync/tbsync/testbench/channel"
	"github.com/tbsync/tbsync/testbench/metrics"
	"github.com/tbsync/tbsync/testbench/tlm"
)

// Broker owns the request queue, the response queue and the checked-out slot
// shared by a sequencer and its consumer.
type Broker[Req, Rsp any] struct {
	name      string
	owner     string
	requests  *channel.FIFO[*Item[Req]]
	responses *channel.FIFO[*Response[Rsp]]
	metrics   *metrics.Metrics
	log       *log.Entry

	mu         sync.Mutex
	checkedOut *Item[Req]
	dequeuing  bool
}

// NewBroker creates a broker. A Sequencer creates its own; standalone brokers
// are useful when items are fed without arbitration.
func NewBroker[Req, Rsp any](name string, opts ...Option) *Broker[Req, Rsp] {
	return newBroker[Req, Rsp](name, name, newOptions(opts))
}

func newBroker[Req, Rsp any](name, owner string, o options) *Broker[Req, Rsp] {
	return &Broker[Req, Rsp]{
		name:      name,
		owner:     owner,
		requests:  channel.NewFIFO[*Item[Req]](name+".requests", channel.Unbounded),
		responses: channel.NewFIFO[*Response[Rsp]](name+".responses", o.responseDepth),
		metrics:   o.metrics,
		log:       o.log("broker", name),
	}
}

func (b *Broker[Req, Rsp]) Name() string {
	return b.name
}

// Capabilities makes the broker connectable by ItemPort and by plain
// get_peek tlm ports.
func (b *Broker[Req, Rsp]) Capabilities() tlm.Capability {
	return tlm.GetPeek
}

// EnqueueRequest appends item to the request queue.
func (b *Broker[Req, Rsp]) EnqueueRequest(ctx context.Context, item *Item[Req]) error {
	if item == nil {
		return fmt.Errorf("%s: nil item", b.name)
	}
	if err := b.requests.Put(ctx, item); err != nil {
		return err
	}
	b.log.Debugf("Enqueued request %s", item.id)
	return nil
}

// NextRequest blocks until a request is available and checks it out.
func (b *Broker[Req, Rsp]) NextRequest(ctx context.Context) (*Item[Req], error) {
	return b.checkOut(ctx, "NextRequest", false)
}

// TryNextRequest checks out the next request if one is queued.
func (b *Broker[Req, Rsp]) TryNextRequest() (*Item[Req], bool, error) {
	if err := b.beginCheckOut("TryNextRequest"); err != nil {
		return nil, false, err
	}

	item, ok, err := b.requests.TryGet()
	b.endCheckOut(item, ok && err == nil)
	return item, ok, err
}

// Complete signals the checked-out item's completion and empties the slot.
func (b *Broker[Req, Rsp]) Complete(item *Item[Req]) error {
	return b.complete("Complete", item, nil)
}

// CompleteWithResponse is Complete plus queuing rsp for the originating sequence.
// The slot is emptied and the item completed even if the response is dropped.
func (b *Broker[Req, Rsp]) CompleteWithResponse(item *Item[Req], rsp Rsp) error {
	return b.complete("CompleteWithResponse", item, func() error {
		return b.postResponse(newResponse(item, rsp))
	})
}

// PostResponse queues rsp without touching the checked-out slot.
func (b *Broker[Req, Rsp]) PostResponse(item *Item[Req], rsp Rsp) error {
	if item == nil {
		return fmt.Errorf("%s: nil item", b.name)
	}
	return b.postResponse(newResponse(item, rsp))
}

// AwaitResponse removes the oldest response, waiting for one if needed.
func (b *Broker[Req, Rsp]) AwaitResponse(ctx context.Context) (*Response[Rsp], error) {
	return b.responses.Get(ctx)
}

// AwaitResponseFor removes the first response correlated with id, waiting
// until one arrives. Other responses keep their place in the queue.
func (b *Broker[Req, Rsp]) AwaitResponseFor(ctx context.Context, id uuid.UUID) (*Response[Rsp], error) {
	return b.responses.GetFunc(ctx, func(r *Response[Rsp]) bool {
		return r.ID == id
	})
}

// AwaitSequenceResponse removes the first response addressed to sequenceID.
func (b *Broker[Req, Rsp]) AwaitSequenceResponse(ctx context.Context, sequenceID uuid.UUID) (*Response[Rsp], error) {
	return b.responses.GetFunc(ctx, func(r *Response[Rsp]) bool {
		return r.SequenceID == sequenceID
	})
}

// Get completes and returns the item left checked out by Peek, or else checks
// out the next request and completes it at once.
func (b *Broker[Req, Rsp]) Get(ctx context.Context) (*Item[Req], error) {
	item, err := b.checkOut(ctx, "Get", true)
	if err != nil {
		return nil, err
	}
	return item, b.Complete(item)
}

func (b *Broker[Req, Rsp]) TryGet() (*Item[Req], bool, error) {
	item, ok, err := b.TryPeek()
	if err != nil || !ok {
		return nil, false, err
	}
	return item, true, b.Complete(item)
}

// Peek returns the checked-out item, checking out the next request if the
// slot is empty. Repeated peeks return the same item until it is completed.
func (b *Broker[Req, Rsp]) Peek(ctx context.Context) (*Item[Req], error) {
	return b.checkOut(ctx, "Peek", true)
}

func (b *Broker[Req, Rsp]) TryPeek() (*Item[Req], bool, error) {
	if item, ok := b.CheckedOut(); ok {
		return item, true, nil
	}
	return b.TryNextRequest()
}

// CheckedOut returns the item between NextRequest and Complete, if any.
func (b *Broker[Req, Rsp]) CheckedOut() (*Item[Req], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkedOut, b.checkedOut != nil
}

func (b *Broker[Req, Rsp]) PendingRequests() int {
	return b.requests.Len()
}

func (b *Broker[Req, Rsp]) PendingResponses() int {
	return b.responses.Len()
}

func (b *Broker[Req, Rsp]) checkOut(ctx context.Context, op string, allowCurrent bool) (*Item[Req], error) {
	if allowCurrent {
		if item, ok := b.CheckedOut(); ok {
			return item, nil
		}
	}
	if err := b.beginCheckOut(op); err != nil {
		return nil, err
	}

	item, err := b.requests.Get(ctx)
	b.endCheckOut(item, err == nil)
	if err != nil {
		return nil, err
	}
	b.log.Debugf("Checked out request %s", item.id)
	return item, nil
}

func (b *Broker[Req, Rsp]) beginCheckOut(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.checkedOut != nil || b.dequeuing {
		return b.violation(op, stmtPendingItem)
	}
	b.dequeuing = true
	return nil
}

func (b *Broker[Req, Rsp]) endCheckOut(item *Item[Req], ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dequeuing = false
	if ok {
		b.checkedOut = item
	}
}

func (b *Broker[Req, Rsp]) complete(op string, item *Item[Req], post func() error) error {
	b.mu.Lock()
	switch {
	case b.checkedOut == nil:
		b.mu.Unlock()
		return b.violation(op, stmtNothingCheckedOut)
	case item != b.checkedOut:
		b.mu.Unlock()
		return b.violation(op, stmtForeignItem)
	}
	b.checkedOut = nil
	b.mu.Unlock()

	var postErr error
	if post != nil {
		postErr = post()
	}

	if err := item.flow.Complete(); err != nil {
		// the owning sequence gave up on the item; the slot is free regardless
		b.log.WithError(err).Debugf("Completed request %s nobody waits for", item.id)
	}
	b.metrics.Completed(b.owner)
	b.log.Debugf("Completed request %s", item.id)
	return postErr
}

func (b *Broker[Req, Rsp]) postResponse(rsp *Response[Rsp]) error {
	ok, err := b.responses.TryPut(rsp)
	if err != nil {
		return err
	}
	if !ok {
		b.metrics.Response(b.owner, "dropped")
		b.log.Errorf("Response queue full (depth %d), dropping response %s", b.responses.Cap(), rsp.ID)
		return fmt.Errorf("%w: %s dropped response %s", ErrResponseQueueOverflow, b.name, rsp.ID)
	}
	b.metrics.Response(b.owner, "queued")
	return nil
}

// violation logs and counts a misuse of the item protocol.
func (b *Broker[Req, Rsp]) violation(op, statement string) error {
	err := &ProtocolViolationError{Component: b.name, Op: op, Statement: statement}
	b.metrics.Violation(b.owner, op)
	b.log.Warn(err)
	return err
}
