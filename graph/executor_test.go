//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarolan/music-store-assistant/graph"
	"github.com/scarolan/music-store-assistant/graph/checkpoint/inmemory"
	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/security"
)

func appendMessage(content string) graph.NodeFunc {
	return func(ctx context.Context, state graph.State, sec security.Context) (any, error) {
		return graph.State{
			graph.StateKeyMessages: []model.Message{model.NewAssistantMessage(content)},
		}, nil
	}
}

func TestExecutorFollowsConditionalEdges(t *testing.T) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("classify", func(ctx context.Context, state graph.State, sec security.Context) (any, error) {
			return graph.State{graph.StateKeyRoute: "left"}, nil
		}).
		AddNode("left", appendMessage("went left")).
		AddNode("right", appendMessage("went right")).
		SetEntryPoint("classify").
		AddConditionalEdges("classify", func(ctx context.Context, state graph.State) (string, error) {
			return state.Route(), nil
		}, map[string]string{
			"left":  "left",
			"right": "right",
		}).
		Compile()
	require.NoError(t, err)

	executor, err := graph.NewExecutor(g)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), "thread-1", graph.State{}, security.Context{CustomerID: 1})
	require.NoError(t, err)
	require.Nil(t, result.Interrupt)

	messages := result.State.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "went left", messages[0].Content)
	assert.Equal(t, "left", result.State.Route())
}

func TestExecutorCommandOverridesNextNode(t *testing.T) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("start", func(ctx context.Context, state graph.State, sec security.Context) (any, error) {
			return &graph.Command{
				Update: graph.State{graph.StateKeyMessages: []model.Message{model.NewAssistantMessage("skipping ahead")}},
				GoTo:   "final",
			}, nil
		}).
		AddNode("skipped", appendMessage("should not run")).
		AddNode("final", appendMessage("done")).
		SetEntryPoint("start").
		AddEdge("start", "skipped").
		AddEdge("skipped", "final").
		Compile()
	require.NoError(t, err)

	executor, err := graph.NewExecutor(g)
	require.NoError(t, err)

	result, err := executor.Execute(context.Background(), "thread-1", graph.State{}, security.Context{CustomerID: 1})
	require.NoError(t, err)

	messages := result.State.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "skipping ahead", messages[0].Content)
	assert.Equal(t, "done", messages[1].Content)
}

func TestExecutorStepLimit(t *testing.T) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("ping", appendMessage("ping")).
		AddNode("pong", appendMessage("pong")).
		SetEntryPoint("ping").
		AddEdge("ping", "pong").
		AddEdge("pong", "ping").
		Compile()
	require.NoError(t, err)

	executor, err := graph.NewExecutor(g, graph.WithMaxSteps(4))
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), "thread-1", graph.State{}, security.Context{CustomerID: 1})
	require.ErrorIs(t, err, graph.ErrMaxStepsExceeded)
}

func TestExecutorRequiresThreadID(t *testing.T) {
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("only", appendMessage("hi")).
		SetEntryPoint("only").
		Compile()
	require.NoError(t, err)

	executor, err := graph.NewExecutor(g)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), "", graph.State{}, security.Context{CustomerID: 1})
	require.ErrorIs(t, err, graph.ErrThreadIDRequired)
}

// gatedGraph suspends at the gate node and records the decision and the
// caller identity it resumed under.
func gatedGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode("gate", func(ctx context.Context, state graph.State, sec security.Context) (any, error) {
			value, err := graph.Interrupt(state, map[string]string{"tool": "process_refund"})
			if err != nil {
				return nil, err
			}
			approved, _ := value.(bool)
			return graph.State{
				"approved": approved,
				"caller":   sec.CustomerID,
			}, nil
		}).
		AddNode("reply", appendMessage("all done")).
		SetEntryPoint("gate").
		AddEdge("gate", "reply").
		Compile()
	require.NoError(t, err)
	return g
}

func TestExecutorSuspendAndResume(t *testing.T) {
	saver := inmemory.NewSaver()
	executor, err := graph.NewExecutor(gatedGraph(t), graph.WithCheckpointSaver(saver))
	require.NoError(t, err)
	ctx := context.Background()

	result, err := executor.Execute(ctx, "thread-1",
		graph.State{graph.StateKeyMessages: []model.Message{model.NewUserMessage("refund please")}},
		security.Context{CustomerID: 7})
	require.NoError(t, err)
	require.NotNil(t, result.Interrupt)
	assert.Equal(t, "gate", result.Interrupt.NodeID)

	checkpoint, err := saver.Get(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, "gate", checkpoint.NodeID)
	assert.EqualValues(t, 7, checkpoint.Caller.CustomerID)
	assert.JSONEq(t, `{"tool":"process_refund"}`, string(checkpoint.Prompt))
	assert.NotContains(t, checkpoint.State, graph.ResumeChannel)

	resumed, err := executor.Resume(ctx, "thread-1", true)
	require.NoError(t, err)
	require.Nil(t, resumed.Interrupt)
	assert.Equal(t, true, resumed.State["approved"])
	assert.EqualValues(t, 7, resumed.State["caller"])

	messages := resumed.State.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "all done", messages[1].Content)

	// The decision consumed the checkpoint.
	_, err = executor.Resume(ctx, "thread-1", true)
	require.ErrorIs(t, err, graph.ErrCheckpointNotFound)
}

func TestExecutorResumeWithoutCheckpoint(t *testing.T) {
	executor, err := graph.NewExecutor(gatedGraph(t), graph.WithCheckpointSaver(inmemory.NewSaver()))
	require.NoError(t, err)

	_, err = executor.Resume(context.Background(), "missing", true)
	require.ErrorIs(t, err, graph.ErrCheckpointNotFound)
}

func TestExecutorSuspendWithoutSaver(t *testing.T) {
	executor, err := graph.NewExecutor(gatedGraph(t))
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), "thread-1", graph.State{}, security.Context{CustomerID: 1})
	require.ErrorIs(t, err, graph.ErrCheckpointSaverRequired)
}

func TestExecutorPending(t *testing.T) {
	saver := inmemory.NewSaver()
	executor, err := graph.NewExecutor(gatedGraph(t), graph.WithCheckpointSaver(saver))
	require.NoError(t, err)
	ctx := context.Background()

	pending, err := executor.Pending(ctx, "thread-1")
	require.NoError(t, err)
	assert.Nil(t, pending)

	_, err = executor.Execute(ctx, "thread-1", graph.State{}, security.Context{CustomerID: 1})
	require.NoError(t, err)

	pending, err = executor.Pending(ctx, "thread-1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "thread-1", pending.ThreadID)
}
