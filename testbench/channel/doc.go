// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package channel provides thread-safe FIFOs implementing the full tlm put, get
and peek matrix, and a broadcast variant for analysis traffic.

# Capacity

	0          rendezvous: a put completes only once a getter is waiting
	1          single slot
	N          bounded buffer
	Unbounded  never full

A single consumer sees items in the order they were put. With several competing
consumers no item is delivered twice or skipped, but which consumer gets which
item is unspecified.

# Waiting

Blocking operations wait on a per-FIFO notification channel that is replaced on
every state change, so independent FIFOs never contend. A waiter whose context
is done returns ctx.Err() and leaves the buffer untouched, except on a
rendezvous FIFO where a put already let in for the waiter is taken rather than
abandoned. Peek and GetFunc count as waiting getters like Get does. Non-blocking
operations report a status and never retry.
*/
package channel
