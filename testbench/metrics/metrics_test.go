// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Admitted("sqr")
		m.Completed("sqr")
		m.Response("sqr", "queued")
		m.Violation("sqr", "NextRequest")
		m.SetPending("sqr", 3)
		m.ObserveLatency("sqr", time.Millisecond)
	})
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.Admitted("sqr")
	m.Admitted("sqr")
	m.Completed("sqr")
	m.Response("sqr", "dropped")
	m.Violation("sqr", "Complete")
	m.SetPending("sqr", 4)
	m.ObserveLatency("sqr", 2*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Admissions.WithLabelValues("sqr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions.WithLabelValues("sqr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues("sqr", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProtocolViolations.WithLabelValues("sqr", "Complete")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.PendingAdmission.WithLabelValues("sqr")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ItemLatency))
}
