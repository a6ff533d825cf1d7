// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestItemFlowAdmitThenComplete(t *testing.T) {
	f := NewItemFlow()
	ctx := context.Background()

	var errg errgroup.Group
	errg.Go(func() error {
		if err := f.AwaitAdmitted(ctx); err != nil {
			return err
		}
		return f.AwaitCompleted(ctx)
	})

	require.NoError(t, f.Admit())
	assert.True(t, f.Admitted())
	assert.False(t, f.Completed())
	require.NoError(t, f.Complete())
	require.NoError(t, errg.Wait())
	assert.True(t, f.Completed())

	assert.Equal(t, ErrGateIntegrity, f.Admit())
	assert.Equal(t, ErrGateIntegrity, f.Complete())
}

func TestItemFlowAbandonBeforeAdmission(t *testing.T) {
	f := NewItemFlow()
	stop := errors.New("stopped")

	assert.True(t, f.Abandon(stop))
	assert.Equal(t, stop, f.Admit())
	assert.Equal(t, stop, f.AwaitCompleted(context.Background()))
	<-f.CompletedOrCanceled()
}

func TestItemFlowAbandonAfterAdmission(t *testing.T) {
	f := NewItemFlow()
	require.NoError(t, f.Admit())

	assert.False(t, f.Abandon(errors.New("gone")))
	assert.NoError(t, f.AwaitAdmitted(context.Background()))
	assert.Error(t, f.AwaitCompleted(context.Background()))
}

func TestItemFlowSettled(t *testing.T) {
	completed := NewItemFlow()
	assert.False(t, completed.Settled())
	require.NoError(t, completed.Admit())
	assert.False(t, completed.Settled())
	require.NoError(t, completed.Complete())
	assert.True(t, completed.Settled())

	abandoned := NewItemFlow()
	abandoned.Abandon(context.Canceled)
	assert.True(t, abandoned.Settled())
	assert.False(t, abandoned.Completed())
}
