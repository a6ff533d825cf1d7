// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"context"
	"sync"

	"github.com/tbsync/tbsync/testbench/logging"
	"github.com/tbsync/tbsync/testbench/tlm"
)

// ItemPuller is the consumer-facing half of a Broker.
type ItemPuller[Req, Rsp any] interface {
	tlm.Provider
	NextRequest(ctx context.Context) (*Item[Req], error)
	TryNextRequest() (*Item[Req], bool, error)
	Complete(item *Item[Req]) error
	CompleteWithResponse(item *Item[Req], rsp Rsp) error
	PostResponse(item *Item[Req], rsp Rsp) error
}

var _ ItemPuller[int, int] = (*Broker[int, int])(nil)

// ItemPort is the driver-side endpoint that pulls items from a broker.
type ItemPort[Req, Rsp any] struct {
	name string

	mu     sync.RWMutex
	target ItemPuller[Req, Rsp]
}

func NewItemPort[Req, Rsp any](name string) *ItemPort[Req, Rsp] {
	return &ItemPort[Req, Rsp]{name: name}
}

func (p *ItemPort[Req, Rsp]) Name() string {
	return p.name
}

func (p *ItemPort[Req, Rsp]) Capabilities() tlm.Capability {
	return tlm.GetPeek
}

func (p *ItemPort[Req, Rsp]) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target != nil
}

// Connect binds the port to provider, which must be an ItemPuller with the
// same item types. Connecting twice fails.
func (p *ItemPort[Req, Rsp]) Connect(provider tlm.Provider) error {
	if provider == nil {
		return &tlm.MismatchError{Endpoint: p.name, Reason: "nil provider"}
	}
	if provider == tlm.Provider(p) {
		return &tlm.MismatchError{Endpoint: p.name, Other: p.name, Reason: "cannot connect to itself"}
	}
	if missing := p.Capabilities().Missing(provider.Capabilities()); missing != 0 {
		return &tlm.MismatchError{Endpoint: p.name, Other: provider.Name(), Missing: missing, Reason: "provider lacks capabilities"}
	}
	puller, ok := provider.(ItemPuller[Req, Rsp])
	if !ok {
		return &tlm.MismatchError{Endpoint: p.name, Other: provider.Name(), Missing: p.Capabilities(), Reason: "provider is not an item broker of matching item types"}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target != nil {
		return &tlm.MismatchError{Endpoint: p.name, Other: provider.Name(), Reason: "already connected"}
	}
	p.target = puller

	logging.WithComponent("port", p.name).Debugf("Connected to %s", provider.Name())
	return nil
}

func (p *ItemPort[Req, Rsp]) NextRequest(ctx context.Context) (*Item[Req], error) {
	t, err := p.resolve()
	if err != nil {
		return nil, err
	}
	return t.NextRequest(ctx)
}

func (p *ItemPort[Req, Rsp]) TryNextRequest() (*Item[Req], bool, error) {
	t, err := p.resolve()
	if err != nil {
		return nil, false, err
	}
	return t.TryNextRequest()
}

func (p *ItemPort[Req, Rsp]) Complete(item *Item[Req]) error {
	t, err := p.resolve()
	if err != nil {
		return err
	}
	return t.Complete(item)
}

func (p *ItemPort[Req, Rsp]) CompleteWithResponse(item *Item[Req], rsp Rsp) error {
	t, err := p.resolve()
	if err != nil {
		return err
	}
	return t.CompleteWithResponse(item, rsp)
}

func (p *ItemPort[Req, Rsp]) PostResponse(item *Item[Req], rsp Rsp) error {
	t, err := p.resolve()
	if err != nil {
		return err
	}
	return t.PostResponse(item, rsp)
}

func (p *ItemPort[Req, Rsp]) resolve() (ItemPuller[Req, Rsp], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.target == nil {
		return nil, &tlm.MismatchError{Endpoint: p.name, Reason: "not connected"}
	}
	return p.target, nil
}
