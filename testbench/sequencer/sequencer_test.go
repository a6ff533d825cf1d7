// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tbsync/tbsync/testbench/metrics"
)

func newRunningSequencer(t *testing.T, opts ...Option) *Sequencer[int, int] {
	t.Helper()
	sqr := NewSequencer[int, int]("env.agent.sqr", opts...)
	require.NoError(t, sqr.Start(context.Background()))
	t.Cleanup(sqr.Stop)
	return sqr
}

func waitErr(f func() error) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- f() }()
	return errc
}

// driveOne pulls the next item from sqr's broker and completes it.
func driveOne(t *testing.T, sqr *Sequencer[int, int]) *Item[int] {
	t.Helper()
	item, err := sqr.Broker().NextRequest(context.Background())
	require.NoError(t, err)
	require.NoError(t, sqr.Broker().Complete(item))
	return item
}

func TestAdmissionFollowsReserveOrder(t *testing.T) {
	t.Parallel()

	const n = 20
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sqr := NewSequencer[int, int]("sqr")
	defer sqr.Stop()

	items := make([]*Item[int], n)
	var seqs errgroup.Group
	for i := 0; i < n; i++ {
		items[i] = NewItem(NewSequence("seq", sqr).ID(), i)
		item := items[i]
		seqs.Go(func() error {
			if err := sqr.ReserveTurn(ctx, item); err != nil {
				return err
			}
			return sqr.HandOver(ctx, item)
		})
		want := i + 1
		require.Eventually(t, func() bool { return sqr.PendingAdmission() == want }, time.Second, time.Millisecond)
	}

	var (
		mu    sync.Mutex
		order []int
	)
	driver := waitErr(func() error {
		return Serve(ctx, sqr.Broker(), func(_ context.Context, item *Item[int]) (int, bool, error) {
			inFlight := 0
			for _, it := range items {
				if it.Admitted() && !it.Completed() {
					inFlight++
				}
			}
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 1, inFlight, "exactly one item admitted at a time")
			order = append(order, item.Payload)
			return 0, false, nil
		})
	})

	require.NoError(t, sqr.Start(ctx))
	require.NoError(t, seqs.Wait())
	cancel()
	require.NoError(t, <-driver)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, n)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestSecondSequenceWaitsForFirstItem(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	a, b := NewSequence("a", sqr), NewSequence("b", sqr)

	itemA := a.NewItem(1)
	require.NoError(t, a.ReserveTurn(ctx, itemA))

	itemB := b.NewItem(2)
	reservedB := waitErr(func() error { return b.ReserveTurn(ctx, itemB) })
	assertBlocked(t, reservedB, "second sequence admitted while the first item is outstanding")
	assert.False(t, itemB.Admitted())

	handedA := waitErr(func() error { return a.HandOver(ctx, itemA) })
	assert.Same(t, itemA, driveOne(t, sqr))
	require.NoError(t, <-handedA)

	require.NoError(t, <-reservedB)
	assert.True(t, itemB.Admitted())
}

func TestDoFillsFieldsAfterAdmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	driven := make(chan int, 1)
	go func() {
		item, err := sqr.Broker().NextRequest(ctx)
		if err != nil {
			return
		}
		driven <- item.Payload
		_ = sqr.Broker().CompleteWithResponse(item, item.Payload*2)
	}()

	item, err := seq.Do(ctx, 0, func(item *Item[int]) error {
		assert.True(t, item.Admitted())
		item.Payload = 21
		return nil
	})
	require.NoError(t, err)
	assert.True(t, item.Completed())
	assert.Equal(t, 21, <-driven)

	rsp, err := seq.AwaitResponseFor(ctx, item.ID())
	require.NoError(t, err)
	assert.Equal(t, 42, rsp.Value)
}

func TestDoFillErrorReleasesTurn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	_, err := seq.Do(ctx, 1, func(*Item[int]) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)

	reserveCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	assert.NoError(t, seq.ReserveTurn(reserveCtx, seq.NewItem(2)))
	assert.Equal(t, 0, sqr.Broker().PendingRequests())
}

func TestCanceledReserveDoesNotStallAdmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	first := seq.NewItem(1)
	require.NoError(t, seq.ReserveTurn(ctx, first))

	withdrawn := seq.NewItem(2)
	withdrawCtx, cancel := context.WithCancel(ctx)
	reserved := waitErr(func() error { return seq.ReserveTurn(withdrawCtx, withdrawn) })
	require.Eventually(t, func() bool { return sqr.PendingAdmission() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-reserved, context.Canceled)

	third := seq.NewItem(3)
	reservedThird := waitErr(func() error { return seq.ReserveTurn(ctx, third) })

	handed := waitErr(func() error { return seq.HandOver(ctx, first) })
	driveOne(t, sqr)
	require.NoError(t, <-handed)

	require.NoError(t, <-reservedThird)
	assert.False(t, withdrawn.Admitted())
	assert.True(t, third.Admitted())
}

func TestCanceledHandOverReleasesAdmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	first := seq.NewItem(1)
	require.NoError(t, seq.ReserveTurn(ctx, first))
	handCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, seq.HandOver(handCtx, first), context.DeadlineExceeded)

	second := seq.NewItem(2)
	require.NoError(t, seq.ReserveTurn(ctx, second))

	// the abandoned item is still queued ahead of the next one
	assert.Same(t, first, driveOne(t, sqr))
}

func TestHandOverRequiresAdmission(t *testing.T) {
	t.Parallel()

	sqr := NewSequencer[int, int]("sqr")
	seq := NewSequence("seq", sqr)
	assertViolation(t, seq.HandOver(context.Background(), seq.NewItem(1)), stmtNotAdmitted)
}

func TestCompletedItemCannotBeReused(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	a, b := NewSequence("a", sqr), NewSequence("b", sqr)

	first := a.NewItem(1)
	require.NoError(t, a.ReserveTurn(ctx, first))
	handed := waitErr(func() error { return a.HandOver(ctx, first) })
	driveOne(t, sqr)
	require.NoError(t, <-handed)

	second := b.NewItem(2)
	require.NoError(t, b.ReserveTurn(ctx, second))

	assertViolation(t, a.ReserveTurn(ctx, first), stmtItemReused)
	assertViolation(t, a.HandOver(ctx, first), stmtItemSettled)
	assert.Equal(t, 0, sqr.PendingAdmission())
	assert.Equal(t, 0, sqr.Broker().PendingRequests())

	// the admitted item of the other sequence still owns the turn
	handed = waitErr(func() error { return b.HandOver(ctx, second) })
	assert.Same(t, second, driveOne(t, sqr))
	require.NoError(t, <-handed)
}

func TestItemIsHandedOverOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	item := seq.NewItem(1)
	require.NoError(t, seq.ReserveTurn(ctx, item))
	assertViolation(t, seq.ReserveTurn(ctx, item), stmtItemReused)

	handed := waitErr(func() error { return seq.HandOver(ctx, item) })
	require.Eventually(t, func() bool { return sqr.Broker().PendingRequests() == 1 }, time.Second, time.Millisecond)
	assertViolation(t, seq.HandOver(ctx, item), stmtHandedOver)
	assert.Equal(t, 1, sqr.Broker().PendingRequests())

	assert.Same(t, item, driveOne(t, sqr))
	require.NoError(t, <-handed)
	assertViolation(t, seq.HandOver(ctx, item), stmtItemSettled)
}

func TestAbandonedItemCannotBeHandedOver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	var filled *Item[int]
	_, err := seq.Do(ctx, 1, func(item *Item[int]) error {
		filled = item
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	require.NotNil(t, filled)

	assertViolation(t, seq.HandOver(ctx, filled), stmtItemSettled)
	assertViolation(t, seq.ReserveTurn(ctx, filled), stmtItemReused)
	assert.Equal(t, 0, sqr.Broker().PendingRequests())
}

func TestSequenceRejectsForeignItem(t *testing.T) {
	t.Parallel()

	sqr := NewSequencer[int, int]("sqr")
	a, b := NewSequence("a", sqr), NewSequence("b", sqr)
	item := a.NewItem(1)

	assertViolation(t, b.ReserveTurn(context.Background(), item), stmtForeignSequence)
	assertViolation(t, b.HandOver(context.Background(), item), stmtForeignSequence)
}

func TestStopReleasesWaiters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := NewSequencer[int, int]("sqr")
	require.NoError(t, sqr.Start(ctx))
	seq := NewSequence("seq", sqr)

	admitted := seq.NewItem(1)
	require.NoError(t, seq.ReserveTurn(ctx, admitted))
	handed := waitErr(func() error { return seq.HandOver(ctx, admitted) })

	var waiters errgroup.Group
	for i := 0; i < 3; i++ {
		item := seq.NewItem(i)
		waiters.Go(func() error { return seq.ReserveTurn(ctx, item) })
	}
	require.Eventually(t, func() bool { return sqr.PendingAdmission() == 3 }, time.Second, time.Millisecond)

	sqr.Stop()
	assert.ErrorIs(t, waiters.Wait(), ErrSequencerStopped)
	assert.ErrorIs(t, <-handed, ErrSequencerStopped)
	assert.Equal(t, 0, sqr.PendingAdmission())

	assert.ErrorIs(t, seq.ReserveTurn(ctx, seq.NewItem(9)), ErrSequencerStopped)
	assert.ErrorIs(t, sqr.Start(ctx), ErrSequencerStopped)
	sqr.Stop()
}

func TestStartTwiceFails(t *testing.T) {
	t.Parallel()

	sqr := newRunningSequencer(t)
	assert.ErrorIs(t, sqr.Start(context.Background()), ErrSequencerRunning)
	assert.ErrorIs(t, sqr.Run(context.Background()), ErrSequencerRunning)
}

func TestRunReturnsWhenContextEnds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sqr := NewSequencer[int, int]("sqr")
	defer sqr.Stop()

	done := waitErr(func() error { return sqr.Run(ctx) })
	assertBlocked(t, done, "Run returned before its context ended")
	cancel()
	require.NoError(t, <-done)

	// a new run can pick up where the last one ended
	require.NoError(t, sqr.Start(context.Background()))
	seq := NewSequence("seq", sqr)
	assert.NoError(t, seq.ReserveTurn(context.Background(), seq.NewItem(1)))
}

func TestSequenceAwaitResponseIsPerSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	driverCtx, stopDriver := context.WithCancel(ctx)
	defer stopDriver()
	go func() {
		_ = Serve(driverCtx, sqr.Broker(), func(_ context.Context, item *Item[int]) (int, bool, error) {
			return item.Payload * 10, true, nil
		})
	}()

	var errg errgroup.Group
	for _, name := range []string{"a", "b", "c"} {
		seq := NewSequence(name, sqr)
		errg.Go(func() error {
			for i := 1; i <= 5; i++ {
				item, err := seq.Do(ctx, i, nil)
				if err != nil {
					return err
				}
				rsp, err := seq.AwaitResponse(ctx)
				if err != nil {
					return err
				}
				assert.Equal(t, seq.ID(), rsp.SequenceID)
				assert.Equal(t, item.ID(), rsp.ID)
				assert.Equal(t, i*10, rsp.Value)
			}
			return nil
		})
	}
	require.NoError(t, errg.Wait())
	assert.Equal(t, 0, sqr.Broker().PendingResponses())
}

func TestSequenceStartRunsBody(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sqr := newRunningSequencer(t)
	seq := NewSequence("seq", sqr)

	done := seq.Start(ctx, func(ctx context.Context, s *Sequence[int, int]) error {
		_, err := s.Do(ctx, 5, nil)
		return err
	})
	item := driveOne(t, sqr)
	assert.Equal(t, seq.ID(), item.SequenceID())
	assert.NoError(t, <-done)
}

func TestSequencerMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := metrics.NewMetrics()
	sqr := newRunningSequencer(t, WithMetrics(m))
	seq := NewSequence("seq", sqr)

	for i := 0; i < 3; i++ {
		payload := i
		handed := waitErr(func() error {
			_, err := seq.Do(ctx, payload, nil)
			return err
		})
		driveOne(t, sqr)
		require.NoError(t, <-handed)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Admissions.WithLabelValues(sqr.Name())))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Completions.WithLabelValues(sqr.Name())))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ItemLatency))
}
