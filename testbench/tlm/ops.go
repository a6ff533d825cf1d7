// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"context"
)

// resolver returns the object that serves capability c, or a mismatch error.
type resolver func(c Capability) (any, error)

type putOp[T any] struct{ r resolver }

func (o putOp[T]) Put(ctx context.Context, t T) error {
	target, err := o.r(CapBlockingPut)
	if err != nil {
		return err
	}
	return target.(Putter[T]).Put(ctx, t)
}

type tryPutOp[T any] struct{ r resolver }

func (o tryPutOp[T]) TryPut(t T) (bool, error) {
	target, err := o.r(CapNonBlockingPut)
	if err != nil {
		return false, err
	}
	return target.(TryPutter[T]).TryPut(t)
}

type getOp[T any] struct{ r resolver }

func (o getOp[T]) Get(ctx context.Context) (T, error) {
	target, err := o.r(CapBlockingGet)
	if err != nil {
		var zero T
		return zero, err
	}
	return target.(Getter[T]).Get(ctx)
}

type tryGetOp[T any] struct{ r resolver }

func (o tryGetOp[T]) TryGet() (T, bool, error) {
	target, err := o.r(CapNonBlockingGet)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return target.(TryGetter[T]).TryGet()
}

type peekOp[T any] struct{ r resolver }

func (o peekOp[T]) Peek(ctx context.Context) (T, error) {
	target, err := o.r(CapBlockingPeek)
	if err != nil {
		var zero T
		return zero, err
	}
	return target.(Peeker[T]).Peek(ctx)
}

type tryPeekOp[T any] struct{ r resolver }

func (o tryPeekOp[T]) TryPeek() (T, bool, error) {
	target, err := o.r(CapNonBlockingPeek)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return target.(TryPeeker[T]).TryPeek()
}

type transportOp[Req, Rsp any] struct{ r resolver }

func (o transportOp[Req, Rsp]) Transport(ctx context.Context, req Req) (Rsp, error) {
	target, err := o.r(CapBlockingTransport)
	if err != nil {
		var zero Rsp
		return zero, err
	}
	return target.(Transporter[Req, Rsp]).Transport(ctx, req)
}

type tryTransportOp[Req, Rsp any] struct{ r resolver }

func (o tryTransportOp[Req, Rsp]) TryTransport(req Req) (Rsp, bool, error) {
	target, err := o.r(CapNonBlockingTransport)
	if err != nil {
		var zero Rsp
		return zero, false, err
	}
	return target.(TryTransporter[Req, Rsp]).TryTransport(req)
}

// dataOps bundles the six put/get/peek units behind one resolver.
type dataOps[T any] struct {
	putOp[T]
	tryPutOp[T]
	getOp[T]
	tryGetOp[T]
	peekOp[T]
	tryPeekOp[T]
}

func newDataOps[T any](r resolver) dataOps[T] {
	return dataOps[T]{
		putOp:     putOp[T]{r},
		tryPutOp:  tryPutOp[T]{r},
		getOp:     getOp[T]{r},
		tryGetOp:  tryGetOp[T]{r},
		peekOp:    peekOp[T]{r},
		tryPeekOp: tryPeekOp[T]{r},
	}
}

type transportOps[Req, Rsp any] struct {
	transportOp[Req, Rsp]
	tryTransportOp[Req, Rsp]
}

func newTransportOps[Req, Rsp any](r resolver) transportOps[Req, Rsp] {
	return transportOps[Req, Rsp]{
		transportOp:    transportOp[Req, Rsp]{r},
		tryTransportOp: tryTransportOp[Req, Rsp]{r},
	}
}

// bidiOps puts P and gets or peeks G. Masters use it with (Req, Rsp),
// slaves with (Rsp, Req).
type bidiOps[P, G any] struct {
	putOp[P]
	tryPutOp[P]
	getOp[G]
	tryGetOp[G]
	peekOp[G]
	tryPeekOp[G]
}

func newBidiOps[P, G any](r resolver) bidiOps[P, G] {
	return bidiOps[P, G]{
		putOp:     putOp[P]{r},
		tryPutOp:  tryPutOp[P]{r},
		getOp:     getOp[G]{r},
		tryGetOp:  tryGetOp[G]{r},
		peekOp:    peekOp[G]{r},
		tryPeekOp: tryPeekOp[G]{r},
	}
}
