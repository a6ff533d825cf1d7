// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package sequencer serializes work items from many concurrently running
sequences into a single consumer.

# Protocol

A sequence reserves a turn, fills in its item, and hands it over:

	item := seq.NewItem(payload)
	seq.ReserveTurn(ctx, item) // blocks until the sequencer admits the item
	item.Payload.Addr = next() // fields may be computed here
	seq.HandOver(ctx, item)    // blocks until the consumer completes the item

The sequencer's admission loop admits items strictly in ReserveTurn call order
and admits the next one only after the current one is completed, so exactly one
item is admitted at a time.

The consumer (driver) connects an ItemPort to the sequencer's Broker and loops:

	item, _ := port.NextRequest(ctx)
	// drive item
	port.Complete(item)

Calling NextRequest twice without Complete, or Complete without a checked-out
item, fails with ErrProtocolViolation. A consumer that fails between the two
calls leaves the item checked out; nothing here repairs that.

# Responses

Responses posted with CompleteWithResponse or PostResponse carry the identity of
their request. AwaitResponse takes the oldest response; AwaitResponseFor scans
for a specific identity and leaves the others queued in order.

# Liveness

Nothing times out on its own. Waits are bounded only by the caller's context.
*/
package sequencer
