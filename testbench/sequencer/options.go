// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	log "github.com/sirupsen/logrus"

	"github.com/tbsync/tbsync/testbench/channel"
	"github.com/tbsync/tbsync/testbench/logging"
	"github.com/tbsync/tbsync/testbench/metrics"
)

type options struct {
	metrics       *metrics.Metrics
	responseDepth int
	logger        *log.Entry
}

// Option configures a Sequencer or Broker.
type Option func(*options)

// WithMetrics records admissions, completions, responses and violations in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithResponseQueueDepth bounds the response queue. Responses arriving while it
// is full are dropped with ErrResponseQueueOverflow. A depth of zero or less,
// the default, means unbounded.
func WithResponseQueueDepth(depth int) Option {
	return func(o *options) {
		o.responseDepth = depth
	}
}

// WithLogger makes the component log through l instead of the package logger.
// Component fields are added to l.
func WithLogger(l *log.Entry) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{responseDepth: channel.Unbounded}
	for _, opt := range opts {
		opt(&o)
	}
	if o.responseDepth <= 0 {
		o.responseDepth = channel.Unbounded
	}
	return o
}

func (o options) log(kind, name string) *log.Entry {
	if o.logger == nil {
		return logging.WithComponent(kind, name)
	}
	return o.logger.WithFields(log.Fields{"component": kind, "name": name})
}
