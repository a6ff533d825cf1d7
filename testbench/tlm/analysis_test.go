// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Write(t int) {
	m.Called(t)
}

func TestAnalysisPortFansOut(t *testing.T) {
	ap := NewAnalysisPort[int]("monitor.ap")
	assert.False(t, ap.Connected())

	first, second := &mockWriter{}, &mockWriter{}
	first.On("Write", 1).Once()
	first.On("Write", 2).Once()
	second.On("Write", 1).Once()
	second.On("Write", 2).Once()

	require.NoError(t, ap.Connect(first))
	require.NoError(t, ap.Connect(second))
	assert.Equal(t, 2, ap.Size())

	ap.Write(1)
	ap.Write(2)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestAnalysisPortWithoutSubscribers(t *testing.T) {
	ap := NewAnalysisPort[int]("monitor.ap")
	assert.NotPanics(t, func() { ap.Write(1) })
	assert.ErrorIs(t, ap.Connect(nil), ErrCapabilityMismatch)
}
