// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"errors"
)

// Port needs a set of put/get/peek capabilities for items of type T and
// forwards every call to the provider it is connected to.
type Port[T any] struct {
	*endpoint
	dataOps[T]
}

// NewPort creates an unconnected port. It panics if caps is empty or holds
// transport capabilities; use NewTransportPort for those.
func NewPort[T any](name string, caps Capability) *Port[T] {
	e := newEndpoint(name, caps, dataCaps)
	return &Port[T]{endpoint: e, dataOps: newDataOps[T](e.resolve)}
}

// Connect binds the port to p. It fails with ErrCapabilityMismatch unless p
// declares and implements every capability the port needs for T.
func (p *Port[T]) Connect(provider Provider) error {
	return p.connect(p, provider, implementedData[T])
}

// Export serves a declared set of put/get/peek capabilities from an
// implementation object.
type Export[T any] struct {
	*endpoint
	dataOps[T]
}

// NewExport wraps impl. impl must implement the tlm interface of every
// capability in caps for T.
func NewExport[T any](name string, caps Capability, impl any) (*Export[T], error) {
	e := newEndpoint(name, caps, dataCaps)
	if err := e.bindImpl(impl, implementedData[T]); err != nil {
		return nil, err
	}
	return &Export[T]{endpoint: e, dataOps: newDataOps[T](e.resolve)}, nil
}

// TransportPort needs blocking and/or non-blocking transport from Req to Rsp.
type TransportPort[Req, Rsp any] struct {
	*endpoint
	transportOps[Req, Rsp]
}

// NewTransportPort creates an unconnected transport port. It panics unless
// caps is a non-empty subset of Transport.
func NewTransportPort[Req, Rsp any](name string, caps Capability) *TransportPort[Req, Rsp] {
	e := newEndpoint(name, caps, transportCaps)
	return &TransportPort[Req, Rsp]{endpoint: e, transportOps: newTransportOps[Req, Rsp](e.resolve)}
}

func (p *TransportPort[Req, Rsp]) Connect(provider Provider) error {
	return p.connect(p, provider, implementedTransport[Req, Rsp])
}

// TransportExport serves transport capabilities from an implementation object.
type TransportExport[Req, Rsp any] struct {
	*endpoint
	transportOps[Req, Rsp]
}

func NewTransportExport[Req, Rsp any](name string, caps Capability, impl any) (*TransportExport[Req, Rsp], error) {
	e := newEndpoint(name, caps, transportCaps)
	if err := e.bindImpl(impl, implementedTransport[Req, Rsp]); err != nil {
		return nil, err
	}
	return &TransportExport[Req, Rsp]{endpoint: e, transportOps: newTransportOps[Req, Rsp](e.resolve)}, nil
}

// MasterPort puts requests and gets or peeks responses.
type MasterPort[Req, Rsp any] struct {
	*endpoint
	bidiOps[Req, Rsp]
}

// NewMasterPort creates an unconnected master port. caps must be a master
// kind or a subset of Master that keeps CapMasterRole.
func NewMasterPort[Req, Rsp any](name string, caps Capability) *MasterPort[Req, Rsp] {
	e := newRoleEndpoint(name, caps, CapMasterRole)
	return &MasterPort[Req, Rsp]{endpoint: e, bidiOps: newBidiOps[Req, Rsp](e.resolve)}
}

func (p *MasterPort[Req, Rsp]) Connect(provider Provider) error {
	return p.connect(p, provider, implementedBidi[Req, Rsp](CapMasterRole))
}

// MasterExport serves the master side of a request/response pair.
type MasterExport[Req, Rsp any] struct {
	*endpoint
	bidiOps[Req, Rsp]
}

func NewMasterExport[Req, Rsp any](name string, caps Capability, impl any) (*MasterExport[Req, Rsp], error) {
	e := newRoleEndpoint(name, caps, CapMasterRole)
	if err := e.bindImpl(impl, implementedBidi[Req, Rsp](CapMasterRole)); err != nil {
		return nil, err
	}
	return &MasterExport[Req, Rsp]{endpoint: e, bidiOps: newBidiOps[Req, Rsp](e.resolve)}, nil
}

// SlavePort gets or peeks requests and puts responses.
type SlavePort[Req, Rsp any] struct {
	*endpoint
	bidiOps[Rsp, Req]
}

func NewSlavePort[Req, Rsp any](name string, caps Capability) *SlavePort[Req, Rsp] {
	e := newRoleEndpoint(name, caps, CapSlaveRole)
	return &SlavePort[Req, Rsp]{endpoint: e, bidiOps: newBidiOps[Rsp, Req](e.resolve)}
}

func (p *SlavePort[Req, Rsp]) Connect(provider Provider) error {
	return p.connect(p, provider, implementedBidi[Rsp, Req](CapSlaveRole))
}

// SlaveExport serves the slave side of a request/response pair.
type SlaveExport[Req, Rsp any] struct {
	*endpoint
	bidiOps[Rsp, Req]
}

func NewSlaveExport[Req, Rsp any](name string, caps Capability, impl any) (*SlaveExport[Req, Rsp], error) {
	e := newRoleEndpoint(name, caps, CapSlaveRole)
	if err := e.bindImpl(impl, implementedBidi[Rsp, Req](CapSlaveRole)); err != nil {
		return nil, err
	}
	return &SlaveExport[Req, Rsp]{endpoint: e, bidiOps: newBidiOps[Rsp, Req](e.resolve)}, nil
}

// Connectable is an endpoint whose binding can be inspected.
type Connectable interface {
	Name() string
	Connected() bool
}

// CheckConnected returns one mismatch per unconnected endpoint, joined.
func CheckConnected(endpoints ...Connectable) error {
	var errs []error
	for _, e := range endpoints {
		if !e.Connected() {
			errs = append(errs, &MismatchError{Endpoint: e.Name(), Reason: reasonNotConnected})
		}
	}
	return errors.Join(errs...)
}
