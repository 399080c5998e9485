//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides SQLite-backed conversation storage. The caller
// supplies the *sql.DB; any SQLite-compatible driver works.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/session"
)

const (
	createConversations = "CREATE TABLE IF NOT EXISTS conversations (" +
		"thread_id TEXT NOT NULL, " +
		"messages_json BLOB NOT NULL, " +
		"route TEXT NOT NULL, " +
		"ts INTEGER NOT NULL, " +
		"PRIMARY KEY (thread_id)" +
		")"

	insertConversation = "INSERT OR REPLACE INTO conversations (" +
		"thread_id, messages_json, route, ts) VALUES (?, ?, ?, ?)"

	selectConversation = "SELECT messages_json, route, ts FROM conversations WHERE thread_id = ?"

	deleteConversation = "DELETE FROM conversations WHERE thread_id = ?"
)

// Service provides a SQLite implementation of session.Service.
type Service struct {
	db *sql.DB
}

// NewService creates a SQLite conversation store over the given database,
// creating the conversations table if needed.
func NewService(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if _, err := db.Exec(createConversations); err != nil {
		return nil, fmt.Errorf("create conversations table: %w", err)
	}
	return &Service{db: db}, nil
}

// Get returns the conversation for the thread, or nil if the thread is new.
func (s *Service) Get(ctx context.Context, threadID string) (*session.Conversation, error) {
	row := s.db.QueryRowContext(ctx, selectConversation, threadID)
	var messagesJSON []byte
	var route string
	var ts int64
	err := row.Scan(&messagesJSON, &route, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	var messages []model.Message
	if err := json.Unmarshal(messagesJSON, &messages); err != nil {
		return nil, fmt.Errorf("decode messages for thread %s: %w", threadID, err)
	}
	return &session.Conversation{
		ThreadID:  threadID,
		Messages:  messages,
		Route:     route,
		UpdatedAt: time.Unix(0, ts).UTC(),
	}, nil
}

// Put commits the conversation, replacing any previous state for its thread.
func (s *Service) Put(ctx context.Context, conversation *session.Conversation) error {
	messagesJSON, err := json.Marshal(conversation.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	updatedAt := conversation.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, insertConversation,
		conversation.ThreadID, messagesJSON, conversation.Route, updatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// Delete removes the conversation for the thread.
func (s *Service) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, deleteConversation, threadID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
