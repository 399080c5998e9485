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
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/scarolan/music-store-assistant/log"
	"github.com/scarolan/music-store-assistant/security"
	"github.com/scarolan/music-store-assistant/telemetry/trace"
)

// defaultMaxSteps bounds the node loop of a single turn. A worker that keeps
// requesting tools past this limit is aborted rather than allowed to spin.
const defaultMaxSteps = 25

// Executor executes a graph with the given initial state.
//
// The executor itself is stateless between calls: a suspended thread lives
// entirely in the checkpoint saver, and a resume is a fresh top-level
// invocation against that stored state, not a parked stack frame.
type Executor struct {
	graph    *Graph
	saver    CheckpointSaver
	maxSteps int
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*executorOptions)

type executorOptions struct {
	saver    CheckpointSaver
	maxSteps int
}

// WithCheckpointSaver sets the checkpoint saver used at suspension points.
func WithCheckpointSaver(saver CheckpointSaver) ExecutorOption {
	return func(opts *executorOptions) {
		opts.saver = saver
	}
}

// WithMaxSteps sets the maximum number of node executions per turn.
func WithMaxSteps(maxSteps int) ExecutorOption {
	return func(opts *executorOptions) {
		opts.maxSteps = maxSteps
	}
}

// NewExecutor creates a new graph executor.
func NewExecutor(graph *Graph, opts ...ExecutorOption) (*Executor, error) {
	if err := graph.validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	options := executorOptions{maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(&options)
	}
	return &Executor{
		graph:    graph,
		saver:    options.saver,
		maxSteps: options.maxSteps,
	}, nil
}

// ExecutionResult is the outcome of one Execute or Resume call.
type ExecutionResult struct {
	// State is the graph state when the run stopped, whether it completed
	// or suspended.
	State State
	// Interrupt is non-nil when the run suspended at an approval gate. The
	// corresponding checkpoint has already been persisted.
	Interrupt *InterruptError
}

// Execute runs the graph from its entry point with the given initial state.
// If a node interrupts, the execution state is checkpointed under threadID
// and the result carries the interrupt instead of a completed state.
func (e *Executor) Execute(ctx context.Context, threadID string, initial State, sec security.Context) (*ExecutionResult, error) {
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}
	ctx, span := trace.Tracer.Start(ctx, "execute_graph")
	defer span.End()
	span.SetAttributes(attribute.String("assistant.thread_id", threadID))

	return e.run(ctx, threadID, initial.Clone(), e.graph.EntryPoint(), sec)
}

// Resume continues a suspended thread from its checkpoint. The resume value
// is delivered to the interrupted node in place of a fresh interrupt.
//
// The checkpoint is consumed before the graph re-enters: a second Resume for
// the same decision finds no checkpoint and fails with ErrCheckpointNotFound
// instead of replaying the gated step.
func (e *Executor) Resume(ctx context.Context, threadID string, resume any) (*ExecutionResult, error) {
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}
	if e.saver == nil {
		return nil, ErrCheckpointSaverRequired
	}
	ctx, span := trace.Tracer.Start(ctx, "resume_graph")
	defer span.End()
	span.SetAttributes(attribute.String("assistant.thread_id", threadID))

	checkpoint, err := e.saver.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return nil, ErrCheckpointNotFound
	}
	if !checkpoint.Caller.Valid() {
		return nil, fmt.Errorf("checkpoint %s: no valid caller identity", checkpoint.ID)
	}
	if err := e.saver.Delete(ctx, threadID); err != nil {
		return nil, fmt.Errorf("consume checkpoint: %w", err)
	}

	state := checkpoint.State.Clone()
	state[ResumeChannel] = resume
	log.Debugf("resuming thread %s at node %s", threadID, checkpoint.NodeID)
	// The resumed run executes under the identity recorded at suspension
	// time, checked above before the checkpoint was consumed.
	return e.run(ctx, threadID, state, checkpoint.NodeID, checkpoint.Caller)
}

// Pending returns the outstanding checkpoint for a thread, or nil.
func (e *Executor) Pending(ctx context.Context, threadID string) (*Checkpoint, error) {
	if e.saver == nil {
		return nil, nil
	}
	return e.saver.Get(ctx, threadID)
}

// run executes nodes starting at startNodeID until End, an interrupt, or an
// error.
func (e *Executor) run(ctx context.Context, threadID string, state State, startNodeID string, caller security.Context) (*ExecutionResult, error) {
	currentNodeID := startNodeID
	var stepCount int
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		stepCount++
		if stepCount > e.maxSteps {
			return nil, fmt.Errorf("%w: %d steps on thread %s", ErrMaxStepsExceeded, e.maxSteps, threadID)
		}
		if currentNodeID == End {
			return &ExecutionResult{State: state}, nil
		}

		nextNodeID, newState, interrupt, err := e.executeNode(ctx, threadID, state, currentNodeID, caller)
		if err != nil {
			return nil, err
		}
		state = newState
		if interrupt != nil {
			return &ExecutionResult{State: state, Interrupt: interrupt}, nil
		}
		currentNodeID = nextNodeID
	}
}

// executeNode executes a single node and returns the next node ID. An
// interrupt from the node function is turned into a persisted checkpoint.
func (e *Executor) executeNode(ctx context.Context, threadID string, state State, nodeID string, caller security.Context) (string, State, *InterruptError, error) {
	node, exists := e.graph.Node(nodeID)
	if !exists {
		return "", state, nil, fmt.Errorf("node %s not found", nodeID)
	}

	ctx, span := trace.Tracer.Start(ctx, fmt.Sprintf("execute_node %s", nodeID))
	defer span.End()
	span.SetAttributes(
		attribute.String("assistant.node_id", nodeID),
		attribute.String("assistant.node_name", node.Name),
	)

	result, err := node.Function(ctx, state, caller)
	if err != nil {
		if interrupt, ok := AsInterruptError(err); ok {
			interrupt.NodeID = nodeID
			if err := e.suspend(ctx, threadID, state, nodeID, interrupt, caller); err != nil {
				return "", state, nil, err
			}
			return "", state, interrupt, nil
		}
		span.SetAttributes(attribute.String("assistant.error", err.Error()))
		return "", state, nil, fmt.Errorf("node %s: %w", nodeID, err)
	}

	// Handle different result types.
	switch typed := result.(type) {
	case *Command:
		if typed.Update != nil {
			state = e.graph.Schema().ApplyUpdate(state, typed.Update)
		}
		if typed.GoTo != "" {
			span.SetAttributes(attribute.String("assistant.next_node", typed.GoTo))
			return typed.GoTo, state, nil, nil
		}
	case State:
		state = e.graph.Schema().ApplyUpdate(state, typed)
	case nil:
		// No state update.
	default:
		return "", state, nil, fmt.Errorf("node %s returned invalid result type: %T", nodeID, result)
	}

	nextNode, err := e.selectNextNode(ctx, state, nodeID)
	if err != nil {
		return "", state, nil, err
	}
	span.SetAttributes(attribute.String("assistant.next_node", nextNode))
	return nextNode, state, nil, nil
}

// suspend persists a checkpoint for an interrupted node. Failure to persist
// is fatal to the turn: reporting a suspension that was never made durable
// would lose the gated request.
func (e *Executor) suspend(ctx context.Context, threadID string, state State, nodeID string, interrupt *InterruptError, caller security.Context) error {
	if e.saver == nil {
		return ErrCheckpointSaverRequired
	}
	prompt, err := json.Marshal(interrupt.Value)
	if err != nil {
		return fmt.Errorf("marshal interrupt value: %w", err)
	}
	snapshot := state.Clone()
	delete(snapshot, ResumeChannel)
	checkpoint := NewCheckpoint(threadID, nodeID, snapshot, prompt, caller)
	if err := e.saver.Put(ctx, checkpoint); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	log.Infof("thread %s suspended at node %s awaiting approval", threadID, nodeID)
	return nil
}

// selectNextNode selects the next node based on edges and conditional logic.
func (e *Executor) selectNextNode(ctx context.Context, state State, currentNodeID string) (string, error) {
	// Conditional edges take precedence.
	if condEdge, exists := e.graph.ConditionalEdge(currentNodeID); exists {
		conditionResult, err := condEdge.Condition(ctx, state)
		if err != nil {
			return "", fmt.Errorf("conditional edge from %s: %w", currentNodeID, err)
		}
		if nextNode, exists := condEdge.PathMap[conditionResult]; exists {
			return nextNode, nil
		}
		return "", fmt.Errorf("condition result %s not found in path map of %s", conditionResult, currentNodeID)
	}
	edges := e.graph.Edges(currentNodeID)
	if len(edges) == 0 {
		// No outgoing edges, assume we should go to End.
		return End, nil
	}
	return edges[0].To, nil
}
