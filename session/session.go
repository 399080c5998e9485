//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package session stores per-thread conversation state: the append-only
// message history and the last routing decision. The caller identity is
// deliberately not part of a conversation; it arrives out-of-band on every
// request.
package session

import (
	"context"
	"time"

	"github.com/scarolan/music-store-assistant/model"
)

// Conversation is the persistent state of one thread.
type Conversation struct {
	// ThreadID is the stable identifier of the conversation.
	ThreadID string `json:"thread_id"`
	// Messages is the ordered, append-only message history.
	Messages []model.Message `json:"messages"`
	// Route is the last routing decision, one of the configured worker
	// identifiers, or empty for a fresh thread.
	Route string `json:"route"`
	// UpdatedAt is when the conversation was last committed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Service is the conversation state store. Implementations must make
// Get/Put atomic per thread ID.
type Service interface {
	// Get returns the conversation for the thread, or nil if the thread is
	// new.
	Get(ctx context.Context, threadID string) (*Conversation, error)
	// Put commits the conversation, replacing any previous state for its
	// thread.
	Put(ctx context.Context, conversation *Conversation) error
	// Delete removes the conversation for the thread.
	Delete(ctx context.Context, threadID string) error
}
