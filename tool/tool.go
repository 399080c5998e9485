//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package tool provides tool interfaces and implementations for the assistant.
package tool

import (
	"context"

	"github.com/scarolan/music-store-assistant/security"
)

// Tool is the base interface implemented by every tool.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool defines the interface for tools that support calling operations.
//
// The security context is an explicit parameter: identity-scoped tools read
// the caller identity from it and never from the model-supplied arguments.
type CallableTool interface {
	// Call calls the tool with the provided context, JSON arguments and
	// caller identity. Returns the result of execution or an error if the
	// operation fails.
	Call(ctx context.Context, jsonArgs []byte, sec security.Context) (any, error)

	Tool
}

// Declaration describes the metadata of a tool, such as its name,
// description, and expected arguments. Only the fields below are ever
// exposed to the model; in particular the caller identity is not part of
// any input schema.
type Declaration struct {
	// Name is the unique identifier of the tool.
	Name string `json:"name"`

	// Description explains the tool's purpose and functionality.
	Description string `json:"description"`

	// InputSchema defines the expected input for the tool in JSON schema format.
	InputSchema *Schema `json:"inputSchema"`

	// OutputSchema defines the expected output for the tool in JSON schema format.
	OutputSchema *Schema `json:"outputSchema,omitempty"`
}

// Schema represents the structure of JSON Schema used for defining arguments
// and responses. It follows the JSON Schema standard, supporting various
// types, properties, and validation rules.
type Schema struct {
	// Type specifies the data type (e.g., "object", "array", "string", "number").
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether properties not defined in
	// Properties are allowed.
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// Set is a named collection of callable tools. The set is fixed at
// configuration time; a tool name the model invents simply is not present.
type Set map[string]CallableTool

// NewSet builds a Set from the given tools, keyed by declared name.
func NewSet(tools ...CallableTool) Set {
	s := make(Set, len(tools))
	for _, t := range tools {
		s[t.Declaration().Name] = t
	}
	return s
}

// Declarations returns the declarations of all tools in the set.
func (s Set) Declarations() []*Declaration {
	decls := make([]*Declaration, 0, len(s))
	for _, t := range s {
		decls = append(decls, t.Declaration())
	}
	return decls
}
