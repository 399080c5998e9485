//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package graph

// StateGraph is the builder used to construct a Graph. Methods are chainable
// and collect errors until Compile, so graph construction reads as a single
// declaration.
type StateGraph struct {
	graph *Graph
	err   error
}

// NewStateGraph creates a new state graph builder with the given schema.
func NewStateGraph(schema *StateSchema) *StateGraph {
	return &StateGraph{graph: New(schema)}
}

// NodeOption configures a node added via AddNode.
type NodeOption func(*Node)

// WithName sets a human-readable name for the node.
func WithName(name string) NodeOption {
	return func(n *Node) { n.Name = name }
}

// WithDescription sets a description for the node.
func WithDescription(description string) NodeOption {
	return func(n *Node) { n.Description = description }
}

// AddNode adds a node with the given ID and function.
func (sg *StateGraph) AddNode(id string, fn NodeFunc, opts ...NodeOption) *StateGraph {
	if sg.err != nil {
		return sg
	}
	node := &Node{ID: id, Name: id, Function: fn}
	for _, opt := range opts {
		opt(node)
	}
	sg.err = sg.graph.addNode(node)
	return sg
}

// AddEdge adds an unconditional edge between two nodes.
func (sg *StateGraph) AddEdge(from, to string) *StateGraph {
	if sg.err != nil {
		return sg
	}
	sg.err = sg.graph.addEdge(&Edge{From: from, To: to})
	return sg
}

// AddConditionalEdges adds a conditional edge whose condition result is
// mapped to a target node through pathMap.
func (sg *StateGraph) AddConditionalEdges(from string, condition ConditionalFunc, pathMap map[string]string) *StateGraph {
	if sg.err != nil {
		return sg
	}
	sg.err = sg.graph.addConditionalEdge(&ConditionalEdge{
		From:      from,
		Condition: condition,
		PathMap:   pathMap,
	})
	return sg
}

// SetEntryPoint sets the entry point of the graph.
func (sg *StateGraph) SetEntryPoint(nodeID string) *StateGraph {
	if sg.err != nil {
		return sg
	}
	sg.err = sg.graph.setEntryPoint(nodeID)
	return sg
}

// Compile validates the graph and returns the immutable runtime structure.
func (sg *StateGraph) Compile() (*Graph, error) {
	if sg.err != nil {
		return nil, sg.err
	}
	if err := sg.graph.validate(); err != nil {
		return nil, err
	}
	return sg.graph, nil
}
