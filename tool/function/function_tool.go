//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as callable tools.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	itool "github.com/scarolan/music-store-assistant/internal/tool"
	"github.com/scarolan/music-store-assistant/security"
	"github.com/scarolan/music-store-assistant/tool"
)

// Func is the signature wrapped by FunctionTool. The security context is
// supplied by the engine per invocation; it never appears in the input
// schema the model sees.
type Func[I, O any] func(ctx context.Context, sec security.Context, input I) (O, error)

// FunctionTool implements the CallableTool interface for executing functions
// with JSON arguments. It provides a generic way to wrap any function as a
// tool.
type FunctionTool[I, O any] struct {
	name         string
	description  string
	inputSchema  *tool.Schema
	outputSchema *tool.Schema
	fn           Func[I, O]
}

// Option is a function that configures a FunctionTool.
type Option func(*options)

type options struct {
	name        string
	description string
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(opts *options) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *options) {
		opts.description = description
	}
}

// New creates a new FunctionTool wrapping fn. The input and output JSON
// schemas are derived from the function's type parameters via reflection.
func New[I, O any](fn Func[I, O], opts ...Option) *FunctionTool[I, O] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		emptyI I
		emptyO O
	)
	return &FunctionTool[I, O]{
		name:         o.name,
		description:  o.description,
		fn:           fn,
		inputSchema:  itool.GenerateJSONSchema(reflect.TypeOf(emptyI)),
		outputSchema: itool.GenerateJSONSchema(reflect.TypeOf(emptyO)),
	}
}

// Call executes the function tool with the provided JSON arguments and
// caller identity. Empty arguments are treated as an empty object so that
// zero-argument tools work with models that omit the arguments field.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte, sec security.Context) (any, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &input); err != nil {
			return nil, fmt.Errorf("tool %s: unmarshal arguments: %w", ft.name, err)
		}
	}
	return ft.fn(ctx, sec, input)
}

// Declaration returns the tool's declaration information.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:         ft.name,
		Description:  ft.description,
		InputSchema:  ft.inputSchema,
		OutputSchema: ft.outputSchema,
	}
}
