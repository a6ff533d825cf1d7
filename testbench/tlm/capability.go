// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"strings"
)

// Capability is a set of endpoint operations.
type Capability uint16

// Single-operation capabilities.
const (
	CapBlockingPut Capability = 1 << iota
	CapNonBlockingPut
	CapBlockingGet
	CapNonBlockingGet
	CapBlockingPeek
	CapNonBlockingPeek
	CapBlockingTransport
	CapNonBlockingTransport

	// Role markers. A master puts requests and gets responses; a slave gets
	// requests and puts responses.
	CapMasterRole
	CapSlaveRole
)

// Named endpoint kinds.
const (
	BlockingPut    = CapBlockingPut
	NonBlockingPut = CapNonBlockingPut
	Put            = BlockingPut | NonBlockingPut

	BlockingGet    = CapBlockingGet
	NonBlockingGet = CapNonBlockingGet
	Get            = BlockingGet | NonBlockingGet

	BlockingPeek    = CapBlockingPeek
	NonBlockingPeek = CapNonBlockingPeek
	Peek            = BlockingPeek | NonBlockingPeek

	BlockingGetPeek    = BlockingGet | BlockingPeek
	NonBlockingGetPeek = NonBlockingGet | NonBlockingPeek
	GetPeek            = BlockingGetPeek | NonBlockingGetPeek

	BlockingTransport    = CapBlockingTransport
	NonBlockingTransport = CapNonBlockingTransport
	Transport            = BlockingTransport | NonBlockingTransport

	BlockingMaster    = CapMasterRole | BlockingPut | BlockingGetPeek
	NonBlockingMaster = CapMasterRole | NonBlockingPut | NonBlockingGetPeek
	Master            = BlockingMaster | NonBlockingMaster

	BlockingSlave    = CapSlaveRole | BlockingPut | BlockingGetPeek
	NonBlockingSlave = CapSlaveRole | NonBlockingPut | NonBlockingGetPeek
	Slave            = BlockingSlave | NonBlockingSlave

	transportCaps = Transport
	dataCaps      = Put | GetPeek
)

var kindNames = []struct {
	caps Capability
	name string
}{
	{BlockingPut, "blocking_put"},
	{NonBlockingPut, "nonblocking_put"},
	{Put, "put"},
	{BlockingGet, "blocking_get"},
	{NonBlockingGet, "nonblocking_get"},
	{Get, "get"},
	{BlockingPeek, "blocking_peek"},
	{NonBlockingPeek, "nonblocking_peek"},
	{Peek, "peek"},
	{BlockingGetPeek, "blocking_get_peek"},
	{NonBlockingGetPeek, "nonblocking_get_peek"},
	{GetPeek, "get_peek"},
	{BlockingTransport, "blocking_transport"},
	{NonBlockingTransport, "nonblocking_transport"},
	{Transport, "transport"},
	{BlockingMaster, "blocking_master"},
	{NonBlockingMaster, "nonblocking_master"},
	{Master, "master"},
	{BlockingSlave, "blocking_slave"},
	{NonBlockingSlave, "nonblocking_slave"},
	{Slave, "slave"},
}

var bitNames = []string{
	"blocking_put",
	"nonblocking_put",
	"blocking_get",
	"nonblocking_get",
	"blocking_peek",
	"nonblocking_peek",
	"blocking_transport",
	"nonblocking_transport",
	"master_role",
	"slave_role",
}

// Has reports whether c contains every capability in other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Missing returns the capabilities of c that are absent from provided.
func (c Capability) Missing(provided Capability) Capability {
	return c &^ provided
}

// String returns the kind name when c matches a named kind exactly,
// otherwise the single capabilities joined by '|'.
func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	for _, k := range kindNames {
		if k.caps == c {
			return k.name
		}
	}

	var parts []string
	for i, name := range bitNames {
		if c&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
