//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/scarolan/music-store-assistant/model"
)

const (
	// StateKeyMessages is the key of the conversation history.
	// It is append-only within a turn; the message reducer enforces that.
	StateKeyMessages = "messages"
	// StateKeyRoute is the key of the last routing decision.
	// Mutated only by the router node.
	StateKeyRoute = "route"
)

// ResumeChannel is the internal state key carrying the resume value injected
// by the executor when a suspended thread is resumed. It is consumed by
// Interrupt and never persisted in a checkpoint.
const ResumeChannel = "__resume__"

// State represents the state that flows through the graph.
// This is the shared data structure that flows between nodes.
type State map[string]any

// Clone creates a shallow copy of the state.
func (s State) Clone() State {
	clone := make(State, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// Messages returns the conversation history stored in the state.
func (s State) Messages() []model.Message {
	msgs, _ := s[StateKeyMessages].([]model.Message)
	return msgs
}

// Route returns the routing decision stored in the state.
func (s State) Route() string {
	route, _ := s[StateKeyRoute].(string)
	return route
}

// StateReducer is a function that determines how state updates are merged.
// It takes existing and new values and returns the merged result.
type StateReducer func(existing, update any) any

// StateField defines a field in the state schema with its type and reducer.
type StateField struct {
	Type    reflect.Type
	Reducer StateReducer
	Default func() any
}

// StateSchema defines the structure and behavior of graph state.
type StateSchema struct {
	mu     sync.RWMutex
	Fields map[string]StateField
}

// NewStateSchema creates a new state schema.
func NewStateSchema() *StateSchema {
	return &StateSchema{
		Fields: make(map[string]StateField),
	}
}

// AddField adds a field to the state schema.
func (s *StateSchema) AddField(name string, field StateField) *StateSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field.Reducer == nil {
		field.Reducer = DefaultReducer
	}
	s.Fields[name] = field
	return s
}

// ApplyUpdate applies a state update using the defined reducers.
func (s *StateSchema) ApplyUpdate(currentState State, update State) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := currentState.Clone()
	for key, updateValue := range update {
		field, exists := s.Fields[key]
		if !exists {
			// No field definition: plain override.
			result[key] = updateValue
			continue
		}
		currentValue, hasCurrentValue := result[key]
		if !hasCurrentValue && field.Default != nil {
			currentValue = field.Default()
		}
		result[key] = field.Reducer(currentValue, updateValue)
	}
	return result
}

// DecodeState rebuilds a typed State from its JSON encoding. Fields present
// in the schema are decoded into their declared Go types; unknown fields are
// decoded generically. This is what lets a durable checkpoint saver restore
// a state whose values keep their concrete types across a process restart.
func (s *StateSchema) DecodeState(data []byte) (State, error) {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := make(State, len(raw))
	for key, rawValue := range raw {
		field, exists := s.Fields[key]
		if !exists {
			var value any
			if err := json.Unmarshal(rawValue, &value); err != nil {
				return nil, fmt.Errorf("decode state field %s: %w", key, err)
			}
			state[key] = value
			continue
		}
		value := reflect.New(field.Type)
		if err := json.Unmarshal(rawValue, value.Interface()); err != nil {
			return nil, fmt.Errorf("decode state field %s: %w", key, err)
		}
		state[key] = value.Elem().Interface()
	}
	return state, nil
}

// Common reducer functions.

// DefaultReducer overwrites the existing value with the update.
func DefaultReducer(existing, update any) any {
	return update
}

// MessageReducer appends update messages to the existing history. Appending
// is the only mutation it allows; history is never truncated or reordered.
func MessageReducer(existing, update any) any {
	if existing == nil {
		existing = []model.Message{}
	}
	existingMsgs, ok1 := existing.([]model.Message)
	updateMsgs, ok2 := update.([]model.Message)
	if !ok1 || !ok2 {
		return update
	}
	merged := make([]model.Message, 0, len(existingMsgs)+len(updateMsgs))
	merged = append(merged, existingMsgs...)
	return append(merged, updateMsgs...)
}

// MessagesStateSchema returns the schema used by conversational graphs:
// an append-only message history plus a routing decision field.
func MessagesStateSchema() *StateSchema {
	return NewStateSchema().
		AddField(StateKeyMessages, StateField{
			Type:    reflect.TypeOf([]model.Message{}),
			Reducer: MessageReducer,
			Default: func() any { return []model.Message{} },
		}).
		AddField(StateKeyRoute, StateField{
			Type:    reflect.TypeOf(""),
			Reducer: DefaultReducer,
		})
}
