// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sequencer

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is the condition every single-flight protocol error unwraps to.
var ErrProtocolViolation = errors.New("protocol violation")

var (
	ErrSequencerStopped      = errors.New("sequencer stopped")
	ErrSequencerRunning      = errors.New("sequencer admission loop already running")
	ErrResponseQueueOverflow = errors.New("response queue overflow")
	ErrNotRegistered         = errors.New("sequencer not registered")
	ErrAlreadyRegistered     = errors.New("sequencer already registered")
	ErrRegistryClosed        = errors.New("registry closed")
	ErrWrongItemType         = errors.New("sequencer registered with different item types")
)

const (
	stmtPendingItem       = "must signal completion before requesting the next item"
	stmtNothingCheckedOut = "no item is checked out; request an item before signaling completion"
	stmtForeignItem       = "completed item is not the checked-out item"
	stmtNotAdmitted       = "item must be admitted with ReserveTurn before HandOver"
	stmtForeignSequence   = "item was created by another sequence"
	stmtItemReused        = "item was already reserved; create a new item for each transaction"
	stmtHandedOver        = "item was already handed over"
	stmtItemSettled       = "item was already completed or abandoned"
)

// ProtocolViolationError reports a broker or sequencer call made out of order.
type ProtocolViolationError struct {
	Component string
	Op        string
	Statement string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", ErrProtocolViolation, e.Component, e.Op, e.Statement)
}

func (e *ProtocolViolationError) Unwrap() error {
	return ErrProtocolViolation
}
