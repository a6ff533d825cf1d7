// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package tlm implements run-time wired, capability-checked connection endpoints.

# Capabilities

Every endpoint declares a Capability set: a subset of {put, get, peek,
transport} x {blocking, non-blocking}. The named kinds (Put, BlockingGetPeek,
NonBlockingTransport, Master, ...) are the common combinations. Master and
slave kinds carry a role marker as well: a master puts Req and gets or peeks
Rsp, a slave gets or peeks Req and puts Rsp.

# Ports and exports

An Export carries an implementation of each capability it declares. A Port
declares the capabilities it needs and forwards every call to the single
Provider it is connected to. Connect checks, once, that the provider declares
and implements everything the port needs. Calling an operation outside the
port's set, or calling anything before Connect has succeeded, fails at once
with ErrCapabilityMismatch instead of blocking.

	drv := tlm.NewPort[Packet]("driver.put_port", tlm.BlockingPut)
	exp, _ := tlm.NewExport[Packet]("fifo.put_export", tlm.Put, fifo)
	if err := drv.Connect(exp); err != nil {
		// errors.Is(err, tlm.ErrCapabilityMismatch)
	}

Ports and exports are assembled from small single-capability operation units,
so every endpoint kind shares the same forwarding code.

# Analysis

AnalysisPort fans a non-blocking Write out to any number of Writer subscribers.
*/
package tlm
