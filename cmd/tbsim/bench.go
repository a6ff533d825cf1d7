// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tbsync/tbsync/testbench/channel"
	"github.com/tbsync/tbsync/testbench/metrics"
	"github.com/tbsync/tbsync/testbench/sequencer"
	"github.com/tbsync/tbsync/testbench/tlm"
)

const sequencerPath = "env.agent.sqr"

type busOp struct {
	Write bool   `json:"write"`
	Addr  uint32 `json:"addr"`
	Data  uint32 `json:"data"`
}

type busResult struct {
	Data uint32 `json:"data"`
}

// observation is what the monitor sees for each driven item.
type observation struct {
	Item   uuid.UUID
	Op     busOp
	Result busResult
}

type summary struct {
	Driven     int64 `json:"driven"`
	Writes     int64 `json:"writes"`
	Reads      int64 `json:"reads"`
	Mismatches int64 `json:"mismatches"`
}

// bench is a small memory-bus environment: sequences write and read back
// addresses through one sequencer, a driver serves them against a memory
// model and a monitor feeds a scoreboard and an op counter.
type bench struct {
	opts     options
	metrics  *metrics.Metrics
	registry *sequencer.Registry
	sqr      *sequencer.Sequencer[busOp, busResult]

	driverPort  *sequencer.ItemPort[busOp, busResult]
	observed    *tlm.Port[observation]
	monitorFIFO *channel.FIFO[observation]
	monitorPort *tlm.Port[observation]
	analysis    *channel.Broadcast[observation]
	scoreboard  *scoreboard
	counter     *opCounter

	memory map[uint32]uint32
	driven atomic.Int64
}

func newBench(opts options) (*bench, error) {
	if opts.Sequences < 1 || opts.Items < 1 {
		return nil, fmt.Errorf("need at least one sequence and one item, got %d and %d", opts.Sequences, opts.Items)
	}
	if opts.ResponseDepth > 0 && opts.ResponseDepth < opts.Sequences {
		// every sequence keeps one read response outstanding
		return nil, fmt.Errorf("response depth %d cannot hold one response per sequence (%d)", opts.ResponseDepth, opts.Sequences)
	}
	if opts.MonitorDepth < 1 {
		opts.MonitorDepth = 1
	}

	m := metrics.NewMetrics()
	b := &bench{
		opts:        opts,
		metrics:     m,
		registry:    sequencer.NewRegistry(),
		driverPort:  sequencer.NewItemPort[busOp, busResult]("env.agent.driver.seq_item_port"),
		observed:    tlm.NewPort[observation]("env.agent.driver.observed", tlm.BlockingPut),
		monitorFIFO: channel.NewFIFO[observation]("env.agent.monitor.fifo", opts.MonitorDepth),
		monitorPort: tlm.NewPort[observation]("env.agent.monitor.get_port", tlm.Get),
		analysis:    channel.NewBroadcast[observation]("env.agent.monitor.ap"),
		counter:     &opCounter{},
		memory:      make(map[uint32]uint32),
	}
	b.sqr = sequencer.NewSequencer[busOp, busResult](sequencerPath,
		sequencer.WithMetrics(m),
		sequencer.WithResponseQueueDepth(opts.ResponseDepth))
	b.scoreboard = newScoreboard(b.analysis.Subscribe("scoreboard"))

	if err := b.registry.Register(sequencerPath, b.sqr); err != nil {
		return nil, err
	}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *bench) connect() error {
	if err := b.driverPort.Connect(b.sqr.Broker()); err != nil {
		return err
	}
	if err := b.observed.Connect(b.monitorFIFO.PutExport()); err != nil {
		return err
	}
	if err := b.monitorPort.Connect(b.monitorFIFO.GetPeekExport()); err != nil {
		return err
	}
	if err := b.analysis.AnalysisPort().Connect(b.counter); err != nil {
		return err
	}
	return tlm.CheckConnected(b.observed, b.monitorPort)
}

// run starts every component, runs the sequences to completion and tears the
// bench down.
func (b *bench) run(ctx context.Context) (summary, error) {
	defer b.registry.Close()

	g, gctx := errgroup.WithContext(ctx)
	infraCtx, stopInfra := context.WithCancel(gctx)
	defer stopInfra()

	g.Go(func() error { return b.sqr.Run(infraCtx) })
	g.Go(func() error { return sequencer.Serve(infraCtx, b.driverPort, b.drive) })
	g.Go(func() error { return b.monitor(infraCtx) })
	g.Go(func() error { return b.scoreboard.run(infraCtx) })

	var seqs errgroup.Group
	for i := 0; i < b.opts.Sequences; i++ {
		seq, err := sequencer.SequenceFromRegistry[busOp, busResult](b.registry, sequencerPath, fmt.Sprintf("env.seq%d", i))
		if err != nil {
			stopInfra()
			_ = g.Wait()
			return b.summary(), err
		}
		base := uint32(i) << 16
		seqs.Go(func() error { return b.writeReadBack(gctx, seq, base) })
	}
	g.Go(func() error {
		defer stopInfra()
		return seqs.Wait()
	})

	err := g.Wait()
	b.drainMonitor()
	b.scoreboard.drain()

	s := b.summary()
	if err == nil && s.Mismatches > 0 {
		err = fmt.Errorf("scoreboard reported %d mismatches", s.Mismatches)
	}
	return s, err
}

// writeReadBack writes a pattern into the sequence's address window and
// reads every address back, checking the response.
func (b *bench) writeReadBack(ctx context.Context, seq *sequencer.Sequence[busOp, busResult], base uint32) error {
	for j := 0; j < b.opts.Items; j++ {
		addr := base + uint32(j)
		var written uint32

		// the data is only chosen once the write has been admitted
		_, err := seq.Do(ctx, busOp{Write: true, Addr: addr}, func(item *sequencer.Item[busOp]) error {
			written = uint32(time.Now().UnixNano()) ^ addr
			item.Payload.Data = written
			return nil
		})
		if err != nil {
			return err
		}

		read, err := seq.Do(ctx, busOp{Addr: addr}, nil)
		if err != nil {
			return err
		}
		rsp, err := seq.AwaitResponseFor(ctx, read.ID())
		if err != nil {
			return err
		}
		if rsp.Value.Data != written {
			return fmt.Errorf("%s: read 0x%x at 0x%x, wrote 0x%x", seq.Name(), rsp.Value.Data, addr, written)
		}
	}
	log.WithField("sequence", seq.Name()).Debug("Sequence done")
	return nil
}

func (b *bench) drive(ctx context.Context, item *sequencer.Item[busOp]) (busResult, bool, error) {
	if b.opts.DriverLatency > 0 {
		select {
		case <-time.After(b.opts.DriverLatency):
		case <-ctx.Done():
			return busResult{}, false, ctx.Err()
		}
	}

	op := item.Payload
	var res busResult
	if op.Write {
		b.memory[op.Addr] = op.Data
	} else {
		res.Data = b.memory[op.Addr]
	}
	b.driven.Add(1)

	if err := b.observed.Put(ctx, observation{Item: item.ID(), Op: op, Result: res}); err != nil {
		return res, false, err
	}
	return res, !op.Write, nil
}

func (b *bench) monitor(ctx context.Context) error {
	for {
		obs, err := b.monitorPort.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		b.analysis.Publish(obs)
	}
}

func (b *bench) drainMonitor() {
	for {
		obs, ok, err := b.monitorPort.TryGet()
		if err != nil || !ok {
			return
		}
		b.analysis.Publish(obs)
	}
}

func (b *bench) summary() summary {
	return summary{
		Driven:     b.driven.Load(),
		Writes:     b.counter.writes.Load(),
		Reads:      b.counter.reads.Load(),
		Mismatches: b.scoreboard.mismatches.Load(),
	}
}

// opCounter is a plain analysis subscriber.
type opCounter struct {
	reads  atomic.Int64
	writes atomic.Int64
}

func (c *opCounter) Write(obs observation) {
	if obs.Op.Write {
		c.writes.Add(1)
	} else {
		c.reads.Add(1)
	}
}

// scoreboard replays observed writes into its own memory and checks every
// observed read against it.
type scoreboard struct {
	in       *channel.AnalysisFIFO[observation]
	expected map[uint32]uint32

	checked    atomic.Int64
	mismatches atomic.Int64
}

func newScoreboard(in *channel.AnalysisFIFO[observation]) *scoreboard {
	return &scoreboard{in: in, expected: make(map[uint32]uint32)}
}

func (s *scoreboard) run(ctx context.Context) error {
	for {
		obs, err := s.in.Get(ctx)
		if err != nil {
			return nil
		}
		s.check(obs)
	}
}

// drain must only be called once run has returned.
func (s *scoreboard) drain() {
	for {
		obs, ok, _ := s.in.TryGet()
		if !ok {
			return
		}
		s.check(obs)
	}
}

func (s *scoreboard) check(obs observation) {
	if obs.Op.Write {
		s.expected[obs.Op.Addr] = obs.Op.Data
		return
	}
	s.checked.Add(1)
	if want := s.expected[obs.Op.Addr]; want != obs.Result.Data {
		s.mismatches.Add(1)
		log.WithField("item", obs.Item).Errorf("Read 0x%x at 0x%x, expected 0x%x", obs.Result.Data, obs.Op.Addr, want)
	}
}
