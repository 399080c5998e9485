//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/session"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestServiceRoundTrip(t *testing.T) {
	service, err := NewService(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := service.Get(ctx, "thread-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	conversation := &session.Conversation{
		ThreadID: "thread-1",
		Messages: []model.Message{
			model.NewUserMessage("refund invoice 98"),
			{
				Role: model.RoleAssistant,
				ToolCalls: []model.ToolCall{{
					ID:   "call_1",
					Type: "function",
					Function: model.FunctionCall{
						Name:      "process_refund",
						Arguments: []byte(`{"invoice_id":98}`),
					},
				}},
			},
			model.NewToolMessage("call_1", `{"id":98,"total":9.98}`),
			model.NewAssistantMessage("Your refund was submitted."),
		},
		Route: "support",
	}
	require.NoError(t, service.Put(ctx, conversation))

	got, err = service.Get(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "support", got.Route)
	assert.False(t, got.UpdatedAt.IsZero())
	require.Len(t, got.Messages, 4)
	require.Len(t, got.Messages[1].ToolCalls, 1)
	assert.Equal(t, "process_refund", got.Messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", got.Messages[2].ToolID)
}

func TestServicePutReplaces(t *testing.T) {
	service, err := NewService(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, service.Put(ctx, &session.Conversation{
		ThreadID: "thread-1",
		Messages: []model.Message{model.NewUserMessage("hello")},
		Route:    "music",
	}))
	require.NoError(t, service.Put(ctx, &session.Conversation{
		ThreadID: "thread-1",
		Messages: []model.Message{model.NewUserMessage("hello"), model.NewAssistantMessage("hi")},
		Route:    "support",
	}))

	got, err := service.Get(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "support", got.Route)
	assert.Len(t, got.Messages, 2)
}

func TestServiceDelete(t *testing.T) {
	service, err := NewService(openTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, service.Put(ctx, &session.Conversation{
		ThreadID: "thread-1",
		Messages: []model.Message{model.NewUserMessage("hello")},
	}))
	require.NoError(t, service.Delete(ctx, "thread-1"))

	got, err := service.Get(ctx, "thread-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
