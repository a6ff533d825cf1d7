// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package core provides the synchronization primitives the sequencer protocol is
built on.

# Gates

Gate is a one-shot synchronization aid that allows one or more goroutines to
wait until an event performed in another goroutine happens. A gate is walked
through exactly once; a second WalkThrough is an integrity error. Gates are never
reset or reused.

Example: a sequence waits for the sequencer to admit its item:

	[sequence] flow.AwaitAdmitted(ctx)
	[sequence] // blocked until the admission loop walks through the gate

	[sequencer] flow.Admit()
	[sequencer] // not blocked

A goroutine waiting on a gate that is never walked through or canceled blocks
until its context is done. With context.Background() that is forever; keeping
gates live is the responsibility of whoever owns the other side.

# Flow

ItemFlow wraps the two gates every work item carries: "admitted" and
"completed". Each item owns its own flow, so unrelated items never share a wait
condition.
*/
package core
