// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"fmt"
	"sync"

	"github.com/tbsync/tbsync/testbench/logging"
)

// endpoint holds the name, capability set and binding shared by every
// port and export kind.
type endpoint struct {
	name string
	caps Capability

	mu     sync.RWMutex
	target any
}

func newEndpoint(name string, caps Capability, allowed Capability) *endpoint {
	if caps == 0 || caps&^allowed != 0 {
		panic(fmt.Sprintf("tlm: invalid capability set %s for endpoint %q", caps, name))
	}
	return &endpoint{name: name, caps: caps}
}

// newRoleEndpoint is newEndpoint for master and slave kinds: caps must carry
// role and at least one operation.
func newRoleEndpoint(name string, caps Capability, role Capability) *endpoint {
	if !caps.Has(role) || caps == role {
		panic(fmt.Sprintf("tlm: invalid capability set %s for endpoint %q", caps, name))
	}
	return newEndpoint(name, caps, role|dataCaps)
}

// Name returns the hierarchical name of the endpoint.
func (e *endpoint) Name() string {
	return e.name
}

// Capabilities returns the declared capability set.
func (e *endpoint) Capabilities() Capability {
	return e.caps
}

// Connected reports whether the endpoint has something to forward to.
func (e *endpoint) Connected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.target != nil
}

func (e *endpoint) resolve(c Capability) (any, error) {
	if !e.caps.Has(c) {
		return nil, &MismatchError{Endpoint: e.name, Missing: c, Reason: reasonNotDeclared}
	}

	e.mu.RLock()
	target := e.target
	e.mu.RUnlock()

	if target == nil {
		return nil, &MismatchError{Endpoint: e.name, Reason: reasonNotConnected}
	}
	return target, nil
}

func (e *endpoint) connect(self Provider, p Provider, implemented func(any) Capability) error {
	if p == nil {
		return &MismatchError{Endpoint: e.name, Reason: reasonNilProvider}
	}
	if p == self {
		return &MismatchError{Endpoint: e.name, Other: p.Name(), Reason: reasonSelfConnection}
	}
	if missing := e.caps.Missing(p.Capabilities()); missing != 0 {
		return &MismatchError{Endpoint: e.name, Other: p.Name(), Missing: missing, Reason: reasonNotProvided}
	}
	if missing := e.caps.Missing(implemented(p)); missing != 0 {
		return &MismatchError{Endpoint: e.name, Other: p.Name(), Missing: missing, Reason: reasonNotImplemented}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.target != nil {
		return &MismatchError{Endpoint: e.name, Other: p.Name(), Reason: reasonAlreadyConnected}
	}
	e.target = p

	logging.WithComponent("port", e.name).Debugf("Connected to %s (%s)", p.Name(), e.caps)
	return nil
}

// bindImpl validates and installs the implementation behind an export.
func (e *endpoint) bindImpl(impl any, implemented func(any) Capability) error {
	if impl == nil {
		return &MismatchError{Endpoint: e.name, Reason: reasonNilProvider}
	}
	if missing := e.caps.Missing(implemented(impl)); missing != 0 {
		return &MismatchError{Endpoint: e.name, Missing: missing, Reason: reasonNotImplemented}
	}
	e.target = impl
	return nil
}
