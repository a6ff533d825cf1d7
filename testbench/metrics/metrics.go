// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus meters exported by sequencers and brokers.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus registry and the testbench meters.
type Metrics struct {
	Registry           *prometheus.Registry
	Admissions         *prometheus.CounterVec
	Completions        *prometheus.CounterVec
	Responses          *prometheus.CounterVec
	ProtocolViolations *prometheus.CounterVec
	PendingAdmission   *prometheus.GaugeVec
	ItemLatency        *prometheus.HistogramVec
}

// NewMetrics creates a custom registry with the standard testbench metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbsync_admissions_total",
		Help: "Items admitted by the sequencer admission loop.",
	}, []string{"sequencer"})

	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbsync_completions_total",
		Help: "Items completed by the consumer.",
	}, []string{"sequencer"})

	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbsync_responses_total",
		Help: "Responses queued or dropped, by outcome.",
	}, []string{"sequencer", "outcome"})

	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tbsync_protocol_violations_total",
		Help: "Broker calls rejected for breaking the single-flight protocol.",
	}, []string{"sequencer", "operation"})

	pending := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tbsync_pending_admission",
		Help: "Items waiting for admission.",
	}, []string{"sequencer"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tbsync_item_latency_seconds",
		Help:    "Time from reserving a turn to item completion.",
		Buckets: prometheus.DefBuckets,
	}, []string{"sequencer"})

	reg.MustRegister(admissions, completions, responses, violations, pending, latency)

	return &Metrics{
		Registry:           reg,
		Admissions:         admissions,
		Completions:        completions,
		Responses:          responses,
		ProtocolViolations: violations,
		PendingAdmission:   pending,
		ItemLatency:        latency,
	}
}

func (m *Metrics) Admitted(sequencer string) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(sequencer).Inc()
}

func (m *Metrics) Completed(sequencer string) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(sequencer).Inc()
}

// Response counts a response with outcome "queued" or "dropped".
func (m *Metrics) Response(sequencer, outcome string) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(sequencer, outcome).Inc()
}

func (m *Metrics) Violation(sequencer, operation string) {
	if m == nil {
		return
	}
	m.ProtocolViolations.WithLabelValues(sequencer, operation).Inc()
}

func (m *Metrics) SetPending(sequencer string, n int) {
	if m == nil {
		return
	}
	m.PendingAdmission.WithLabelValues(sequencer).Set(float64(n))
}

func (m *Metrics) ObserveLatency(sequencer string, d time.Duration) {
	if m == nil {
		return
	}
	m.ItemLatency.WithLabelValues(sequencer).Observe(d.Seconds())
}
