//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"errors"
	"fmt"
	"time"
)

// InterruptError represents an interrupt in graph execution that can be
// resumed. A node returns it (usually via Interrupt) to suspend the turn;
// the executor persists a checkpoint and surfaces the interrupt to the
// caller instead of a reply.
type InterruptError struct {
	// Value is the value that was passed to Interrupt. It must be
	// JSON-marshalable so the checkpoint can carry it durably.
	Value any
	// NodeID is the ID of the node where the interrupt occurred.
	// Filled in by the executor.
	NodeID string
	// Timestamp is when the interrupt occurred.
	Timestamp time.Time
}

// Error returns the error message for the interrupt.
func (e *InterruptError) Error() string {
	return fmt.Sprintf("graph interrupted at node %s: %v", e.NodeID, e.Value)
}

// NewInterruptError creates a new InterruptError with the given value.
func NewInterruptError(value any) *InterruptError {
	return &InterruptError{
		Value:     value,
		Timestamp: time.Now().UTC(),
	}
}

// AsInterruptError extracts an InterruptError from an error chain.
func AsInterruptError(err error) (*InterruptError, bool) {
	var ie *InterruptError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// Interrupt suspends execution at the current node with the given prompt
// value. On resume, it returns the resume value that was provided instead.
//
// The resume value is consumed: a node that interrupts, resumes and then
// re-evaluates will not see the same value twice.
func Interrupt(state State, prompt any) (any, error) {
	if resumeValue, exists := state[ResumeChannel]; exists {
		delete(state, ResumeChannel)
		return resumeValue, nil
	}
	return nil, NewInterruptError(prompt)
}

// ResumeValue extracts a typed resume value from the state, consuming it.
func ResumeValue[T any](state State) (T, bool) {
	var zero T
	resumeValue, exists := state[ResumeChannel]
	if !exists {
		return zero, false
	}
	typed, ok := resumeValue.(T)
	if !ok {
		return zero, false
	}
	delete(state, ResumeChannel)
	return typed, true
}
