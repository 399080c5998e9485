//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scarolan/music-store-assistant/graph"
	"github.com/scarolan/music-store-assistant/log"
	"github.com/scarolan/music-store-assistant/model"
	"github.com/scarolan/music-store-assistant/security"
	"github.com/scarolan/music-store-assistant/tool"
)

// Graph node IDs.
const (
	nodeSupervisor   = "supervisor"
	nodeMusicExpert  = "music_expert"
	nodeSupportRep   = "support_rep"
	nodeMusicTools   = "music_tools"
	nodeSupportTools = "support_tools"
	nodeRefundTools  = "refund_tools"
)

// Conditional edge results.
const (
	pathTools = "tools"
	pathGated = "gated"
	pathEnd   = "end"
)

const musicExpertPrompt = `You are the music catalog expert for the Algorhythm
record store. Answer questions about artists, albums, songs and genres using
your tools, never from memory. If a lookup returns nothing, say so and suggest
the customer try a different spelling. Keep replies short and friendly.`

const supportRepPrompt = `You are a support representative for the Algorhythm
record store. You help the customer with their own account: profile details,
invoices and refunds. Use your tools for every account lookup; never invent
invoice data. To refund an invoice use the process_refund tool; it is reviewed
by a store operator before it takes effect, so tell the customer the request
was submitted for review. If a refund comes back rejected, apologize and let
them know the store declined it. Keep replies short and friendly.`

// supervise classifies the latest user message and records the route. It
// touches no other state field.
func (e *Engine) supervise(ctx context.Context, state graph.State, _ security.Context) (any, error) {
	decision, err := e.classifier.Classify(ctx, lastUserContent(state.Messages()), state.Route())
	if err != nil {
		return nil, err
	}
	log.Debugf("routed to %s: %s", decision.Route, decision.Reasoning)
	return graph.State{graph.StateKeyRoute: decision.Route}, nil
}

// routeSupervisor dispatches to the worker the supervisor selected.
func routeSupervisor(_ context.Context, state graph.State) (string, error) {
	return state.Route(), nil
}

// worker builds a reasoning node: one completion over the conversation with
// the worker's system prompt and tool declarations.
func (e *Engine) worker(prompt string, tools tool.Set) graph.NodeFunc {
	declarations := tools.Declarations()
	return func(ctx context.Context, state graph.State, _ security.Context) (any, error) {
		response, err := e.model.GenerateContent(ctx, &model.Request{
			Messages: append([]model.Message{model.NewSystemMessage(prompt)}, state.Messages()...),
			Tools:    declarations,
		})
		if err != nil {
			return nil, fmt.Errorf("worker completion: %w", err)
		}
		return graph.State{graph.StateKeyMessages: []model.Message{response.Message}}, nil
	}
}

// toolsNode executes every tool call from the worker's latest message and
// appends one tool result message per call.
func (e *Engine) toolsNode(tools tool.Set) graph.NodeFunc {
	return func(ctx context.Context, state graph.State, sec security.Context) (any, error) {
		var results []model.Message
		for _, call := range lastToolCalls(state.Messages()) {
			results = append(results, invokeTool(ctx, tools, call, sec))
		}
		return graph.State{graph.StateKeyMessages: results}, nil
	}
}

// gatedToolsNode handles a tool batch containing an approval-gated call. It
// suspends before executing anything; once resumed it runs the batch, with
// the gated call either executed (approved) or answered by a synthetic
// rejection message (rejected). Because the suspension happens before any
// execution, a batch never runs twice.
func (e *Engine) gatedToolsNode(tools tool.Set) graph.NodeFunc {
	return func(ctx context.Context, state graph.State, sec security.Context) (any, error) {
		calls := lastToolCalls(state.Messages())
		request, found := gatedRequest(calls)
		if !found {
			return nil, fmt.Errorf("no gated tool call in batch")
		}

		resumeValue, err := graph.Interrupt(state, request)
		if err != nil {
			return nil, err
		}
		approved, _ := resumeValue.(bool)

		var results []model.Message
		for _, call := range calls {
			if gatedToolNames[call.Function.Name] && !approved {
				results = append(results, model.NewToolMessage(call.ID,
					`{"status":"rejected","detail":"the refund request was reviewed and declined by the store"}`))
				continue
			}
			results = append(results, invokeTool(ctx, tools, call, sec))
		}
		return graph.State{graph.StateKeyMessages: results}, nil
	}
}

// shouldContinue decides where a worker goes after a completion: finished,
// auto tools, or the approval gate.
func shouldContinue(_ context.Context, state graph.State) (string, error) {
	calls := lastToolCalls(state.Messages())
	if len(calls) == 0 {
		return pathEnd, nil
	}
	for _, call := range calls {
		if gatedToolNames[call.Function.Name] {
			return pathGated, nil
		}
	}
	return pathTools, nil
}

// invokeTool runs one tool call. Execution failures are not fatal to the
// turn: the error is fed back to the worker as a structured tool result so
// it can recover or explain.
func invokeTool(ctx context.Context, tools tool.Set, call model.ToolCall, sec security.Context) model.Message {
	name := call.Function.Name
	callable, exists := tools[name]
	if !exists {
		log.Warnf("worker requested unknown tool %s", name)
		return model.NewToolMessage(call.ID, toolError(fmt.Errorf("unknown tool %s", name)))
	}
	result, err := callable.Call(ctx, call.Function.Arguments, sec)
	if err != nil {
		log.Warnf("tool %s failed: %v", name, err)
		return model.NewToolMessage(call.ID, toolError(err))
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return model.NewToolMessage(call.ID, toolError(fmt.Errorf("encode result: %w", err)))
	}
	return model.NewToolMessage(call.ID, string(encoded))
}

func toolError(err error) string {
	encoded, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(encoded)
}

// gatedRequest builds the approval prompt from the first gated call in the
// batch. A batch carries at most one decision; every gated call in it shares
// that decision.
func gatedRequest(calls []model.ToolCall) (ApprovalRequest, bool) {
	for _, call := range calls {
		if gatedToolNames[call.Function.Name] {
			return ApprovalRequest{
				ToolName:  call.Function.Name,
				Arguments: json.RawMessage(call.Function.Arguments),
				CallID:    call.ID,
			}, true
		}
	}
	return ApprovalRequest{}, false
}

// lastToolCalls returns the tool calls of the most recent assistant message,
// unless a later message already answered them.
func lastToolCalls(messages []model.Message) []model.ToolCall {
	for i := len(messages) - 1; i >= 0; i-- {
		switch messages[i].Role {
		case model.RoleAssistant:
			return messages[i].ToolCalls
		case model.RoleTool:
			return nil
		}
	}
	return nil
}

// lastUserContent returns the content of the most recent user message.
func lastUserContent(messages []model.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
