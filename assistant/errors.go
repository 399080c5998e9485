//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package assistant

import "errors"

// ErrNoPendingApproval is returned by Approve and Reject when the thread has
// no outstanding checkpoint. A decision that already consumed the checkpoint
// leaves later replays of that decision here, so the gated tool can never run
// twice.
var ErrNoPendingApproval = errors.New("no pending approval for thread")

// ErrRoutingUnavailable is returned when the routing classifier cannot be
// reached. The turn fails rather than guessing a worker.
var ErrRoutingUnavailable = errors.New("routing classifier unavailable")

// ErrIterationLimit is returned when a worker loop exceeds its step bound
// within a single turn.
var ErrIterationLimit = errors.New("worker iteration limit exceeded")

// ErrInvalidSecurityContext is returned when a turn arrives without a usable
// caller identity.
var ErrInvalidSecurityContext = errors.New("security context with a valid customer id is required")
