// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tlm

import (
	"errors"
	"fmt"
)

// ErrCapabilityMismatch is the condition every endpoint wiring failure unwraps to.
var ErrCapabilityMismatch = errors.New("capability mismatch")

const (
	reasonNotConnected     = "not connected"
	reasonNotDeclared      = "operation not in capability set"
	reasonNotProvided      = "provider lacks capabilities"
	reasonNotImplemented   = "implementation does not provide capabilities"
	reasonAlreadyConnected = "already connected"
	reasonSelfConnection   = "cannot connect to itself"
	reasonNilProvider      = "nil provider"
)

// MismatchError describes a failed connection or an operation invoked on an
// endpoint that cannot serve it.
type MismatchError struct {
	Endpoint string
	Other    string
	Missing  Capability
	Reason   string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Endpoint, e.Reason)
	if e.Other != "" {
		msg += fmt.Sprintf(" (other: %s)", e.Other)
	}
	if e.Missing != 0 {
		msg += fmt.Sprintf(" (missing: %s)", e.Missing)
	}
	return fmt.Sprintf("%s: %s", ErrCapabilityMismatch, msg)
}

func (e *MismatchError) Unwrap() error {
	return ErrCapabilityMismatch
}
