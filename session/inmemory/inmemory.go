//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory conversation store.
package inmemory

import (
	"context"
	"sync"

	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/session"
)

// Service provides an in-memory implementation of session.Service.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*session.Conversation
}

// NewService creates a new in-memory conversation store.
func NewService() *Service {
	return &Service{
		conversations: make(map[string]*session.Conversation),
	}
}

// Get returns the conversation for the thread, or nil if the thread is new.
func (s *Service) Get(ctx context.Context, threadID string) (*session.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conversation, exists := s.conversations[threadID]
	if !exists {
		return nil, nil
	}
	return snapshot(conversation), nil
}

// Put commits the conversation, replacing any previous state for its thread.
func (s *Service) Put(ctx context.Context, conversation *session.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversation.ThreadID] = snapshot(conversation)
	return nil
}

// Delete removes the conversation for the thread.
func (s *Service) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, threadID)
	return nil
}

// snapshot copies a conversation so callers cannot alias stored messages.
func snapshot(conversation *session.Conversation) *session.Conversation {
	copied := *conversation
	copied.Messages = make([]model.Message, len(conversation.Messages))
	copy(copied.Messages, conversation.Messages)
	return &copied
}
