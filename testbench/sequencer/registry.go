// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"fmt"
	"sort"
	"sync"

	cmap "github.com/orcaman/concurrent-map"
	log "github.com/sirupsen/logrus"
)

// Registrant is what a Registry holds. *Sequencer implements it for every
// item type pair.
type Registrant interface {
	Name() string
	Stop()
}

// Registry maps hierarchical paths to sequencers so sequences can find theirs
// without having it injected.
type Registry struct {
	entries cmap.ConcurrentMap

	// closing takes the write lock so no Register slips in after Close
	mu     sync.RWMutex
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{entries: cmap.New()}
}

func (r *Registry) Register(path string, sqr Registrant) error {
	if sqr == nil {
		return fmt.Errorf("register %q: nil sequencer", path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if !r.entries.SetIfAbsent(path, sqr) {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, path)
	}

	log.WithField("path", path).Debugf("Registered sequencer %s", sqr.Name())
	return nil
}

// Unregister removes path without stopping its sequencer.
func (r *Registry) Unregister(path string) error {
	if _, ok := r.entries.Pop(path); !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, path)
	}
	return nil
}

// Lookup returns the sequencer at path. It fails with ErrWrongItemType if the
// sequencer was created for other item types.
func Lookup[Req, Rsp any](r *Registry, path string) (*Sequencer[Req, Rsp], error) {
	v, ok := r.entries.Get(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, path)
	}
	sqr, ok := v.(*Sequencer[Req, Rsp])
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %T", ErrWrongItemType, path, v)
	}
	return sqr, nil
}

// Paths returns the registered paths in lexical order.
func (r *Registry) Paths() []string {
	paths := r.entries.Keys()
	sort.Strings(paths)
	return paths
}

func (r *Registry) Count() int {
	return r.entries.Count()
}

// Close stops and removes every registered sequencer. Register fails
// afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	for _, path := range r.Paths() {
		if v, ok := r.entries.Pop(path); ok {
			v.(Registrant).Stop()
		}
	}
}
