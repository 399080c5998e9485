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

	"github.com/scarolan/music-store-assistant/graph"
	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/security"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func suspendedCheckpoint(threadID string) *graph.Checkpoint {
	state := graph.State{
		graph.StateKeyMessages: []model.Message{
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
		},
		graph.StateKeyRoute: "support",
	}
	return graph.NewCheckpoint(threadID, "refund_tools", state,
		[]byte(`{"tool_name":"process_refund","arguments":{"invoice_id":98}}`),
		security.Context{CustomerID: 1})
}

func TestSaverRoundTrip(t *testing.T) {
	saver, err := NewSaver(openTestDB(t), graph.MessagesStateSchema())
	require.NoError(t, err)
	ctx := context.Background()

	checkpoint := suspendedCheckpoint("thread-1")
	require.NoError(t, saver.Put(ctx, checkpoint))

	got, err := saver.Get(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, checkpoint.ID, got.ID)
	assert.Equal(t, "refund_tools", got.NodeID)
	assert.EqualValues(t, 1, got.Caller.CustomerID)
	assert.JSONEq(t, string(checkpoint.Prompt), string(got.Prompt))

	// State comes back with its concrete message types, not raw maps.
	messages := got.State.Messages()
	require.Len(t, messages, 2)
	require.Len(t, messages[1].ToolCalls, 1)
	assert.Equal(t, "process_refund", messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "support", got.State.Route())
}

func TestSaverGetMissing(t *testing.T) {
	saver, err := NewSaver(openTestDB(t), graph.MessagesStateSchema())
	require.NoError(t, err)

	got, err := saver.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaverDeleteAndList(t *testing.T) {
	saver, err := NewSaver(openTestDB(t), graph.MessagesStateSchema())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, saver.Put(ctx, suspendedCheckpoint("thread-1")))
	require.NoError(t, saver.Put(ctx, suspendedCheckpoint("thread-2")))

	checkpoints, err := saver.List(ctx)
	require.NoError(t, err)
	assert.Len(t, checkpoints, 2)

	require.NoError(t, saver.Delete(ctx, "thread-1"))
	checkpoints, err = saver.List(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, "thread-2", checkpoints[0].ThreadID)

	// Delete is idempotent.
	require.NoError(t, saver.Delete(ctx, "thread-1"))
}

func TestSaverSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoints.db")

	db, err := sql.Open("libsql", "file:"+path)
	require.NoError(t, err)
	saver, err := NewSaver(db, graph.MessagesStateSchema())
	require.NoError(t, err)
	checkpoint := suspendedCheckpoint("thread-1")
	require.NoError(t, saver.Put(context.Background(), checkpoint))
	require.NoError(t, db.Close())

	reopened, err := sql.Open("libsql", "file:"+path)
	require.NoError(t, err)
	defer reopened.Close()
	saver2, err := NewSaver(reopened, graph.MessagesStateSchema())
	require.NoError(t, err)

	got, err := saver2.Get(context.Background(), "thread-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, checkpoint.ID, got.ID)
	require.Len(t, got.State.Messages(), 2)
}
