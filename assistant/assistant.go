//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package assistant is the music store's conversation engine. It wires the
// routing supervisor, the two workers and their tool nodes into an execution
// graph, and exposes the four operations the outside world needs: run a turn,
// list pending approvals, approve, reject.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scarolan/music-store-assistant/catalog"
	"github.com/scarolan/music-store-assistant/graph"
	"github.com/scarolan/music-store-assistant/graph/checkpoint/inmemory"
	"github.com/scarolan/music-store-assistant/log"
	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/security"
	"github.com/scarolan/music-store-assistant/session"
	sessioninmemory "github.com/scarolan/music-store-assistant/session/inmemory"
)

// ApprovalRequest is the durable payload of a suspension: which tool the
// worker asked for and with what arguments. It is what a reviewer sees.
type ApprovalRequest struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	CallID    string          `json:"call_id"`
}

// PendingApproval is the reviewer-facing projection of a suspended thread.
type PendingApproval struct {
	ThreadID  string          `json:"thread_id"`
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Requested time.Time       `json:"requested"`
}

// Reply is the outcome of a turn. Exactly one of Content or Pending is
// meaningful: a suspended turn carries the pending approval instead of a
// reply.
type Reply struct {
	ThreadID string           `json:"thread_id"`
	Content  string           `json:"content,omitempty"`
	Route    string           `json:"route,omitempty"`
	Pending  *PendingApproval `json:"pending,omitempty"`
}

// Option configures the engine.
type Option func(*options)

type options struct {
	classifier Classifier
	saver      graph.CheckpointSaver
	sessions   session.Service
	maxSteps   int
}

// WithClassifier overrides the routing classifier. The default asks the
// engine's model.
func WithClassifier(classifier Classifier) Option {
	return func(o *options) { o.classifier = classifier }
}

// WithCheckpointSaver sets the checkpoint store. The default is in-memory;
// production deployments pass the SQLite saver so suspended threads survive
// restarts.
func WithCheckpointSaver(saver graph.CheckpointSaver) Option {
	return func(o *options) { o.saver = saver }
}

// WithSessionService sets the conversation store. The default is in-memory.
func WithSessionService(sessions session.Service) Option {
	return func(o *options) { o.sessions = sessions }
}

// WithMaxSteps bounds the node loop of a single turn.
func WithMaxSteps(maxSteps int) Option {
	return func(o *options) { o.maxSteps = maxSteps }
}

// Engine runs conversations through the worker graph and owns the approval
// lifecycle for gated tools.
type Engine struct {
	model      model.Model
	classifier Classifier
	executor   *graph.Executor
	saver      graph.CheckpointSaver
	sessions   session.Service

	mu sync.Mutex
	// locks entries are created per thread and never reclaimed; thread
	// cardinality stays small at demo scale.
	locks map[string]*sync.Mutex
}

// New creates an engine over the given model and catalog service.
func New(m model.Model, cat *catalog.Service, opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.classifier == nil {
		o.classifier = NewLLMClassifier(m)
	}
	if o.saver == nil {
		o.saver = inmemory.NewSaver()
	}
	if o.sessions == nil {
		o.sessions = sessioninmemory.NewService()
	}

	e := &Engine{
		model:      m,
		classifier: o.classifier,
		saver:      o.saver,
		sessions:   o.sessions,
		locks:      make(map[string]*sync.Mutex),
	}

	compiled, err := e.buildGraph(cat)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	executorOpts := []graph.ExecutorOption{graph.WithCheckpointSaver(o.saver)}
	if o.maxSteps > 0 {
		executorOpts = append(executorOpts, graph.WithMaxSteps(o.maxSteps))
	}
	executor, err := graph.NewExecutor(compiled, executorOpts...)
	if err != nil {
		return nil, fmt.Errorf("create executor: %w", err)
	}
	e.executor = executor
	return e, nil
}

// buildGraph assembles the supervisor/worker graph. Each worker loops through
// its tools node until it emits a plain reply; the support worker has an
// extra path through the approval gate.
func (e *Engine) buildGraph(cat *catalog.Service) (*graph.Graph, error) {
	music := musicTools(cat)
	support := supportTools(cat)

	return graph.NewStateGraph(graph.MessagesStateSchema()).
		AddNode(nodeSupervisor, e.supervise, graph.WithName("Supervisor")).
		AddNode(nodeMusicExpert, e.worker(musicExpertPrompt, music), graph.WithName("Music expert")).
		AddNode(nodeSupportRep, e.worker(supportRepPrompt, support), graph.WithName("Support rep")).
		AddNode(nodeMusicTools, e.toolsNode(music)).
		AddNode(nodeSupportTools, e.toolsNode(support)).
		AddNode(nodeRefundTools, e.gatedToolsNode(support)).
		SetEntryPoint(nodeSupervisor).
		AddConditionalEdges(nodeSupervisor, routeSupervisor, map[string]string{
			RouteMusic:   nodeMusicExpert,
			RouteSupport: nodeSupportRep,
		}).
		AddConditionalEdges(nodeMusicExpert, shouldContinue, map[string]string{
			pathTools: nodeMusicTools,
			pathGated: nodeMusicTools,
			pathEnd:   graph.End,
		}).
		AddConditionalEdges(nodeSupportRep, shouldContinue, map[string]string{
			pathTools: nodeSupportTools,
			pathGated: nodeRefundTools,
			pathEnd:   graph.End,
		}).
		AddEdge(nodeMusicTools, nodeMusicExpert).
		AddEdge(nodeSupportTools, nodeSupportRep).
		AddEdge(nodeRefundTools, nodeSupportRep).
		Compile()
}

// Chat runs one turn for the thread. A new thread ID starts a fresh
// conversation. If the turn hits the approval gate, the reply carries the
// pending approval instead of content; a turn against an already suspended
// thread re-reports that pending approval without running the graph.
func (e *Engine) Chat(ctx context.Context, threadID, userMessage string, sec security.Context) (*Reply, error) {
	if threadID == "" {
		return nil, graph.ErrThreadIDRequired
	}
	if !sec.Valid() {
		return nil, ErrInvalidSecurityContext
	}
	unlock := e.lockThread(threadID)
	defer unlock()

	pending, err := e.pendingFor(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		log.Infof("thread %s already suspended, re-reporting pending approval", threadID)
		return &Reply{ThreadID: threadID, Pending: pending}, nil
	}

	conversation, err := e.sessions.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	initial := graph.State{
		graph.StateKeyMessages: append(history(conversation), model.NewUserMessage(userMessage)),
	}
	if conversation != nil {
		initial[graph.StateKeyRoute] = conversation.Route
	}

	result, err := e.executor.Execute(ctx, threadID, initial, sec)
	if err != nil {
		return nil, e.mapError(err)
	}
	return e.conclude(ctx, threadID, result)
}

// Approve resumes a suspended thread and lets the gated tool execute. The
// decision consumes the checkpoint, so a replay of the same approval returns
// ErrNoPendingApproval instead of running the tool again.
func (e *Engine) Approve(ctx context.Context, threadID string) (*Reply, error) {
	return e.resolve(ctx, threadID, true)
}

// Reject resumes a suspended thread without executing the gated tool. The
// worker sees a synthetic rejection result and produces a reply acknowledging
// it.
func (e *Engine) Reject(ctx context.Context, threadID string) (*Reply, error) {
	return e.resolve(ctx, threadID, false)
}

func (e *Engine) resolve(ctx context.Context, threadID string, approved bool) (*Reply, error) {
	if threadID == "" {
		return nil, graph.ErrThreadIDRequired
	}
	unlock := e.lockThread(threadID)
	defer unlock()

	result, err := e.executor.Resume(ctx, threadID, approved)
	if errors.Is(err, graph.ErrCheckpointNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoPendingApproval, threadID)
	}
	if err != nil {
		return nil, e.mapError(err)
	}
	return e.conclude(ctx, threadID, result)
}

// PendingApprovals lists every suspended thread awaiting a decision.
func (e *Engine) PendingApprovals(ctx context.Context) ([]PendingApproval, error) {
	checkpoints, err := e.saver.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	approvals := make([]PendingApproval, 0, len(checkpoints))
	for _, checkpoint := range checkpoints {
		approval, err := projectApproval(checkpoint)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, *approval)
	}
	return approvals, nil
}

// conclude finishes a run: a suspension yields a pending reply, a completed
// run commits the conversation and yields the worker's final message. The
// conversation store is only written here, so an aborted turn leaves the
// previous committed state untouched.
func (e *Engine) conclude(ctx context.Context, threadID string, result *graph.ExecutionResult) (*Reply, error) {
	if result.Interrupt != nil {
		pending, err := e.pendingFor(ctx, threadID)
		if err != nil {
			return nil, err
		}
		return &Reply{ThreadID: threadID, Pending: pending}, nil
	}

	messages := result.State.Messages()
	route := result.State.Route()
	err := e.sessions.Put(ctx, &session.Conversation{
		ThreadID: threadID,
		Messages: messages,
		Route:    route,
	})
	if err != nil {
		return nil, fmt.Errorf("commit conversation: %w", err)
	}

	reply := &Reply{ThreadID: threadID, Route: route}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleAssistant && messages[i].Content != "" {
			reply.Content = messages[i].Content
			break
		}
	}
	return reply, nil
}

// pendingFor returns the pending approval projection for a thread, or nil.
func (e *Engine) pendingFor(ctx context.Context, threadID string) (*PendingApproval, error) {
	checkpoint, err := e.executor.Pending(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return nil, nil
	}
	return projectApproval(checkpoint)
}

func projectApproval(checkpoint *graph.Checkpoint) (*PendingApproval, error) {
	var request ApprovalRequest
	if err := json.Unmarshal(checkpoint.Prompt, &request); err != nil {
		return nil, fmt.Errorf("decode approval request for thread %s: %w", checkpoint.ThreadID, err)
	}
	return &PendingApproval{
		ThreadID:  checkpoint.ThreadID,
		ToolName:  request.ToolName,
		Arguments: request.Arguments,
		Requested: checkpoint.CreatedAt,
	}, nil
}

func (e *Engine) mapError(err error) error {
	if errors.Is(err, graph.ErrMaxStepsExceeded) {
		return fmt.Errorf("%w: %v", ErrIterationLimit, err)
	}
	return err
}

// lockThread serializes turns and decisions per thread.
func (e *Engine) lockThread(threadID string) func() {
	e.mu.Lock()
	lock, exists := e.locks[threadID]
	if !exists {
		lock = &sync.Mutex{}
		e.locks[threadID] = lock
	}
	e.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func history(conversation *session.Conversation) []model.Message {
	if conversation == nil {
		return nil
	}
	messages := make([]model.Message, len(conversation.Messages))
	copy(messages, conversation.Messages)
	return messages
}
