//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory checkpoint saver. It is suitable
// for demos and tests; a process crash while a thread is suspended loses
// the checkpoint, so production deployments should use a durable saver.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/scarolan/music-store-assistant/graph"
)

// Saver provides an in-memory implementation of graph.CheckpointSaver.
type Saver struct {
	mu          sync.RWMutex
	checkpoints map[string]*graph.Checkpoint // threadID -> checkpoint
}

// NewSaver creates a new in-memory checkpoint saver.
func NewSaver() *Saver {
	return &Saver{
		checkpoints: make(map[string]*graph.Checkpoint),
	}
}

// Put stores the checkpoint for its thread, replacing any previous one.
func (s *Saver) Put(ctx context.Context, checkpoint *graph.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpoint.ThreadID] = snapshot(checkpoint)
	return nil
}

// Get returns the outstanding checkpoint for the thread, or nil.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkpoint, exists := s.checkpoints[threadID]
	if !exists {
		return nil, nil
	}
	return snapshot(checkpoint), nil
}

// Delete removes the outstanding checkpoint for the thread.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, threadID)
	return nil
}

// List returns all outstanding checkpoints, oldest first.
func (s *Saver) List(ctx context.Context) ([]*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkpoints := make([]*graph.Checkpoint, 0, len(s.checkpoints))
	for _, checkpoint := range s.checkpoints {
		checkpoints = append(checkpoints, snapshot(checkpoint))
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.Before(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// snapshot copies a checkpoint so callers cannot alias stored state.
func snapshot(checkpoint *graph.Checkpoint) *graph.Checkpoint {
	copied := *checkpoint
	copied.State = checkpoint.State.Clone()
	return &copied
}
