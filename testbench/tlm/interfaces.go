// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"context"
)

// Putter is the blocking put capability.
type Putter[T any] interface {
	Put(ctx context.Context, t T) error
}

// TryPutter is the non-blocking put capability. A full target reports false
// with a nil error.
type TryPutter[T any] interface {
	TryPut(t T) (bool, error)
}

// Getter is the blocking get capability.
type Getter[T any] interface {
	Get(ctx context.Context) (T, error)
}

// TryGetter is the non-blocking get capability.
type TryGetter[T any] interface {
	TryGet() (T, bool, error)
}

// Peeker is the blocking peek capability.
type Peeker[T any] interface {
	Peek(ctx context.Context) (T, error)
}

// TryPeeker is the non-blocking peek capability.
type TryPeeker[T any] interface {
	TryPeek() (T, bool, error)
}

// Transporter is the blocking request/response capability.
type Transporter[Req, Rsp any] interface {
	Transport(ctx context.Context, req Req) (Rsp, error)
}

// TryTransporter is the non-blocking request/response capability.
type TryTransporter[Req, Rsp any] interface {
	TryTransport(req Req) (Rsp, bool, error)
}

// Writer receives analysis writes. Write must not block.
type Writer[T any] interface {
	Write(t T)
}

// Provider is anything a port can be connected to.
type Provider interface {
	Name() string
	Capabilities() Capability
}

// implementedData returns the data capabilities impl really implements for T.
func implementedData[T any](impl any) Capability {
	var c Capability
	if _, ok := impl.(Putter[T]); ok {
		c |= CapBlockingPut
	}
	if _, ok := impl.(TryPutter[T]); ok {
		c |= CapNonBlockingPut
	}
	if _, ok := impl.(Getter[T]); ok {
		c |= CapBlockingGet
	}
	if _, ok := impl.(TryGetter[T]); ok {
		c |= CapNonBlockingGet
	}
	if _, ok := impl.(Peeker[T]); ok {
		c |= CapBlockingPeek
	}
	if _, ok := impl.(TryPeeker[T]); ok {
		c |= CapNonBlockingPeek
	}
	return c
}

// implementedTransport returns the transport capabilities impl really implements.
func implementedTransport[Req, Rsp any](impl any) Capability {
	var c Capability
	if _, ok := impl.(Transporter[Req, Rsp]); ok {
		c |= CapBlockingTransport
	}
	if _, ok := impl.(TryTransporter[Req, Rsp]); ok {
		c |= CapNonBlockingTransport
	}
	return c
}

// implementedBidi returns role plus the capabilities impl implements when it
// puts P and gets or peeks G. The role itself is a declaration, not a method
// set, so it is always reported.
func implementedBidi[P, G any](role Capability) func(any) Capability {
	return func(impl any) Capability {
		c := role
		if _, ok := impl.(Putter[P]); ok {
			c |= CapBlockingPut
		}
		if _, ok := impl.(TryPutter[P]); ok {
			c |= CapNonBlockingPut
		}
		return c | implementedData[G](impl)&GetPeek
	}
}
