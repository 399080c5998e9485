//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides SQLite-backed checkpoint storage so suspended
// threads survive a process restart. The caller supplies the *sql.DB; any
// SQLite-compatible driver works.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scarolan/music-store-assistant/graph"
	"github.com/scarolan/music-store-assistant/security"
)

const (
	createCheckpoints = "CREATE TABLE IF NOT EXISTS checkpoints (" +
		"thread_id TEXT NOT NULL, " +
		"checkpoint_id TEXT NOT NULL, " +
		"node_id TEXT NOT NULL, " +
		"state_json BLOB NOT NULL, " +
		"prompt_json BLOB, " +
		"caller_json BLOB NOT NULL, " +
		"ts INTEGER NOT NULL, " +
		"PRIMARY KEY (thread_id)" +
		")"

	insertCheckpoint = "INSERT OR REPLACE INTO checkpoints (" +
		"thread_id, checkpoint_id, node_id, state_json, prompt_json, caller_json, ts) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"

	selectCheckpoint = "SELECT checkpoint_id, node_id, state_json, prompt_json, caller_json, ts " +
		"FROM checkpoints WHERE thread_id = ?"

	selectAllCheckpoints = "SELECT thread_id, checkpoint_id, node_id, state_json, prompt_json, caller_json, ts " +
		"FROM checkpoints ORDER BY ts ASC"

	deleteCheckpoint = "DELETE FROM checkpoints WHERE thread_id = ?"
)

// Saver provides a SQLite implementation of graph.CheckpointSaver.
//
// The state schema is required to rebuild typed state values (message
// histories in particular) from their JSON encoding on load.
type Saver struct {
	db     *sql.DB
	schema *graph.StateSchema
}

// NewSaver creates a SQLite checkpoint saver over the given database,
// creating the checkpoints table if needed.
func NewSaver(db *sql.DB, schema *graph.StateSchema) (*Saver, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if schema == nil {
		return nil, errors.New("state schema is required")
	}
	if _, err := db.Exec(createCheckpoints); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{db: db, schema: schema}, nil
}

// Put stores the checkpoint for its thread, replacing any previous one.
func (s *Saver) Put(ctx context.Context, checkpoint *graph.Checkpoint) error {
	stateJSON, err := json.Marshal(checkpoint.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	callerJSON, err := json.Marshal(checkpoint.Caller)
	if err != nil {
		return fmt.Errorf("marshal caller: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertCheckpoint,
		checkpoint.ThreadID, checkpoint.ID, checkpoint.NodeID,
		stateJSON, []byte(checkpoint.Prompt), callerJSON,
		checkpoint.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// Get returns the outstanding checkpoint for the thread, or nil.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, selectCheckpoint, threadID)
	checkpoint := &graph.Checkpoint{ThreadID: threadID}
	var stateJSON, promptJSON, callerJSON []byte
	var ts int64
	err := row.Scan(&checkpoint.ID, &checkpoint.NodeID, &stateJSON, &promptJSON, &callerJSON, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
	}
	if err := s.hydrate(checkpoint, stateJSON, promptJSON, callerJSON, ts); err != nil {
		return nil, err
	}
	return checkpoint, nil
}

// Delete removes the outstanding checkpoint for the thread.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, deleteCheckpoint, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// List returns all outstanding checkpoints, oldest first.
func (s *Saver) List(ctx context.Context) ([]*graph.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, selectAllCheckpoints)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*graph.Checkpoint
	for rows.Next() {
		checkpoint := &graph.Checkpoint{}
		var stateJSON, promptJSON, callerJSON []byte
		var ts int64
		if err := rows.Scan(&checkpoint.ThreadID, &checkpoint.ID, &checkpoint.NodeID,
			&stateJSON, &promptJSON, &callerJSON, &ts); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		if err := s.hydrate(checkpoint, stateJSON, promptJSON, callerJSON, ts); err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	return checkpoints, rows.Err()
}

// hydrate fills the JSON-encoded columns back into typed checkpoint fields.
func (s *Saver) hydrate(checkpoint *graph.Checkpoint, stateJSON, promptJSON, callerJSON []byte, ts int64) error {
	state, err := s.schema.DecodeState(stateJSON)
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", checkpoint.ID, err)
	}
	checkpoint.State = state
	checkpoint.Prompt = json.RawMessage(promptJSON)
	var caller security.Context
	if err := json.Unmarshal(callerJSON, &caller); err != nil {
		return fmt.Errorf("checkpoint %s: decode caller: %w", checkpoint.ID, err)
	}
	checkpoint.Caller = caller
	checkpoint.CreatedAt = time.Unix(0, ts).UTC()
	return nil
}
