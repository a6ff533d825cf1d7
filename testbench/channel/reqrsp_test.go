// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package channel

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tbsync/tbsync/testbench/tlm"
)

func TestReqRspMasterTalksToSlave(t *testing.T) {
	ctx := context.Background()
	c := NewReqRsp[int, string]("bus", 1, 1)

	master := tlm.NewMasterPort[int, string]("seq.master_port", tlm.Master)
	slave := tlm.NewSlavePort[int, string]("drv.slave_port", tlm.Slave)
	require.NoError(t, master.Connect(c.MasterExport()))
	require.NoError(t, slave.Connect(c.SlaveExport()))

	const n = 50
	var errg errgroup.Group
	errg.Go(func() error {
		for i := 0; i < n; i++ {
			req, err := slave.Get(ctx)
			if err != nil {
				return err
			}
			if err := slave.Put(ctx, strconv.Itoa(req*2)); err != nil {
				return err
			}
		}
		return nil
	})

	for i := 0; i < n; i++ {
		require.NoError(t, master.Put(ctx, i))
		rsp, err := master.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i*2), rsp)
	}
	require.NoError(t, errg.Wait())
	assert.True(t, c.Requests().IsEmpty())
	assert.True(t, c.Responses().IsEmpty())
}

func TestReqRspSidesAreNotInterchangeable(t *testing.T) {
	c := NewReqRsp[int, int]("bus", Unbounded, Unbounded)

	master := tlm.NewMasterPort[int, int]("m", tlm.Master)
	assert.ErrorIs(t, master.Connect(c.SlaveExport()), tlm.ErrCapabilityMismatch)

	slave := tlm.NewSlavePort[int, int]("s", tlm.Slave)
	assert.ErrorIs(t, slave.Connect(c.MasterExport()), tlm.ErrCapabilityMismatch)
}

func TestReqRspSlavePeeksRequest(t *testing.T) {
	c := NewReqRsp[int, int]("bus", Unbounded, Unbounded)
	slave := tlm.NewSlavePort[int, int]("s", tlm.NonBlockingSlave)
	require.NoError(t, slave.Connect(c.SlaveExport()))

	_, ok, err := slave.TryPeek()
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.MasterExport().TryPut(9)
	require.NoError(t, err)
	require.True(t, ok)

	v, ok, err := slave.TryPeek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, v)
	assert.Equal(t, 1, c.Requests().Len())
}
