// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"

	"github.com/tbsync/tbsync/testbench/tlm"
)

// ReqRsp pairs a request FIFO with a response FIFO. The master side puts
// requests and takes responses; the slave side takes requests and puts
// responses.
type ReqRsp[Req, Rsp any] struct {
	name      string
	requests  *FIFO[Req]
	responses *FIFO[Rsp]

	masterExport *tlm.MasterExport[Req, Rsp]
	slaveExport  *tlm.SlaveExport[Req, Rsp]
}

func NewReqRsp[Req, Rsp any](name string, requestDepth, responseDepth int) *ReqRsp[Req, Rsp] {
	c := &ReqRsp[Req, Rsp]{
		name:      name,
		requests:  NewFIFO[Req](name+".requests", requestDepth),
		responses: NewFIFO[Rsp](name+".responses", responseDepth),
	}

	var err error
	if c.masterExport, err = tlm.NewMasterExport[Req, Rsp](name+".master_export", tlm.Master, masterSide[Req, Rsp]{c}); err != nil {
		panic(err)
	}
	if c.slaveExport, err = tlm.NewSlaveExport[Req, Rsp](name+".slave_export", tlm.Slave, slaveSide[Req, Rsp]{c}); err != nil {
		panic(err)
	}
	return c
}

func (c *ReqRsp[Req, Rsp]) Name() string {
	return c.name
}

func (c *ReqRsp[Req, Rsp]) MasterExport() *tlm.MasterExport[Req, Rsp] {
	return c.masterExport
}

func (c *ReqRsp[Req, Rsp]) SlaveExport() *tlm.SlaveExport[Req, Rsp] {
	return c.slaveExport
}

func (c *ReqRsp[Req, Rsp]) Requests() *FIFO[Req] {
	return c.requests
}

func (c *ReqRsp[Req, Rsp]) Responses() *FIFO[Rsp] {
	return c.responses
}

type masterSide[Req, Rsp any] struct{ c *ReqRsp[Req, Rsp] }

func (m masterSide[Req, Rsp]) Put(ctx context.Context, r Req) error { return m.c.requests.Put(ctx, r) }
func (m masterSide[Req, Rsp]) TryPut(r Req) (bool, error)            { return m.c.requests.TryPut(r) }
func (m masterSide[Req, Rsp]) Get(ctx context.Context) (Rsp, error)  { return m.c.responses.Get(ctx) }
func (m masterSide[Req, Rsp]) TryGet() (Rsp, bool, error)            { return m.c.responses.TryGet() }
func (m masterSide[Req, Rsp]) Peek(ctx context.Context) (Rsp, error) { return m.c.responses.Peek(ctx) }
func (m masterSide[Req, Rsp]) TryPeek() (Rsp, bool, error)           { return m.c.responses.TryPeek() }

type slaveSide[Req, Rsp any] struct{ c *ReqRsp[Req, Rsp] }

func (s slaveSide[Req, Rsp]) Put(ctx context.Context, r Rsp) error { return s.c.responses.Put(ctx, r) }
func (s slaveSide[Req, Rsp]) TryPut(r Rsp) (bool, error)            { return s.c.responses.TryPut(r) }
func (s slaveSide[Req, Rsp]) Get(ctx context.Context) (Req, error)  { return s.c.requests.Get(ctx) }
func (s slaveSide[Req, Rsp]) TryGet() (Req, bool, error)            { return s.c.requests.TryGet() }
func (s slaveSide[Req, Rsp]) Peek(ctx context.Context) (Req, error) { return s.c.requests.Peek(ctx) }
func (s slaveSide[Req, Rsp]) TryPeek() (Req, bool, error)           { return s.c.requests.TryPeek() }
