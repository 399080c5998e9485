//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package graph

import "errors"

// Errors.
var (
	// ErrThreadIDRequired is returned when an operation is missing a thread ID.
	ErrThreadIDRequired = errors.New("thread_id is required")
	// ErrCheckpointNotFound is returned when a resume targets a thread
	// without an outstanding checkpoint.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrMaxStepsExceeded is returned when graph execution hits the step
	// limit without reaching End.
	ErrMaxStepsExceeded = errors.New("maximum execution steps exceeded")
	// ErrCheckpointSaverRequired is returned when an interrupt occurs but
	// no checkpoint saver is configured; reporting suspension without a
	// durable checkpoint would lose the gated request.
	ErrCheckpointSaverRequired = errors.New("interrupt requires a checkpoint saver")
)
