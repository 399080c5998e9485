//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package model defines the message types exchanged with a language model
// and the Model interface the engine calls for every reasoning step.
package model

import (
	"context"

	"github.com/scarolan/music-store-assistant/tool"
)

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Message represents a single message in a conversation.
type Message struct {
	Role      Role       `json:"role"`                 // The role of the message author.
	Content   string     `json:"content"`              // The message content.
	ToolID    string     `json:"tool_id,omitempty"`    // Used by tool response messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // Optional tool calls requested by the model.
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a new tool response message for the given call ID.
func NewToolMessage(toolID, content string) Message {
	return Message{Role: RoleTool, ToolID: toolID, Content: content}
}

// ToolCall represents a call to a tool (function) in the model response.
type ToolCall struct {
	// Type of the tool. Currently, only `function` is supported.
	Type string `json:"type"`
	// Function holds the function name and JSON-encoded arguments.
	Function FunctionCall `json:"function,omitempty"`
	// ID is the ID of the tool call returned by the model.
	ID string `json:"id,omitempty"`
}

// FunctionCall holds the target function of a tool call.
type FunctionCall struct {
	// Name of the function to be called.
	Name string `json:"name"`
	// Arguments to pass to the function, JSON-encoded.
	Arguments []byte `json:"arguments,omitempty"`
}

// GenerationConfig contains configuration for text generation.
type GenerationConfig struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`
	// Temperature controls randomness (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`
	// Stop sequences where the model stops generating further tokens.
	Stop []string `json:"stop,omitempty"`
}

// Request is the request to the model.
type Request struct {
	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// GenerationConfig contains the generation parameters.
	GenerationConfig `json:",inline"`

	// Tools the model may call. Not serialized, handled separately.
	Tools []*tool.Declaration `json:"-"`
}

// Response is a single completion from the model. The engine treats each
// reasoning step as a synchronous, atomic call, so there is no streaming
// surface here.
type Response struct {
	// Message is the completion message. It either carries plain content
	// or one or more tool calls.
	Message Message `json:"message"`

	// Usage reports token accounting when the backend provides it.
	Usage *Usage `json:"usage,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`
	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`
	// TotalTokens is the total number of tokens in the response.
	TotalTokens int `json:"total_tokens"`
}

// Model is the interface for a reasoning step. Implementations wrap a
// concrete provider; the engine only ever sees this interface.
type Model interface {
	// GenerateContent performs a single completion. The returned message
	// contains either plain content or structured tool calls.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a model.
type Info struct {
	// Name is the name of the model, e.g. "gpt-4o-mini".
	Name string `json:"name"`
}
