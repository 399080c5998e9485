//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/scarolan/music-store-assistant/security"
)

// Checkpoint is a durable snapshot of one thread's suspended execution.
// It holds everything needed to resume: the full graph state as of the
// suspension point, the node to re-execute, and the interrupt payload that
// describes what the thread is waiting on.
//
// At most one checkpoint exists per thread at any time. Put overwrites.
type Checkpoint struct {
	// ID uniquely identifies this checkpoint.
	ID string `json:"id"`
	// ThreadID is the conversation thread this checkpoint belongs to.
	ThreadID string `json:"thread_id"`
	// NodeID is the node to re-execute when the thread resumes.
	NodeID string `json:"node_id"`
	// State is the full graph state as of the suspension point.
	State State `json:"state"`
	// Prompt is the JSON-encoded interrupt payload (for an approval gate,
	// the requested tool name and arguments).
	Prompt json.RawMessage `json:"prompt,omitempty"`
	// Caller records the identity the suspended turn was running under.
	// It rides outside State so it is never visible to the model; a resume
	// operation re-validates it before executing anything.
	Caller security.Context `json:"caller"`
	// CreatedAt is when the checkpoint was written.
	CreatedAt time.Time `json:"created_at"`
}

// NewCheckpoint creates a checkpoint for the given thread and suspension point.
func NewCheckpoint(threadID, nodeID string, state State, prompt json.RawMessage, caller security.Context) *Checkpoint {
	return &Checkpoint{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		NodeID:    nodeID,
		State:     state,
		Prompt:    prompt,
		Caller:    caller,
		CreatedAt: time.Now().UTC(),
	}
}

// CheckpointSaver is the durable storage behind the approval gate.
// Implementations must make Put/Get/Delete atomic per thread ID.
type CheckpointSaver interface {
	// Put stores the checkpoint for its thread, replacing any previous one.
	Put(ctx context.Context, checkpoint *Checkpoint) error
	// Get returns the outstanding checkpoint for the thread, or nil if the
	// thread has none.
	Get(ctx context.Context, threadID string) (*Checkpoint, error)
	// Delete removes the outstanding checkpoint for the thread. Deleting a
	// thread with no checkpoint is a no-op.
	Delete(ctx context.Context, threadID string) error
	// List returns all outstanding checkpoints.
	List(ctx context.Context) ([]*Checkpoint, error)
}
