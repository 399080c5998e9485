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
	"strings"

	"github.com/scarolan/music-store-assistant/log"
	"github.com/scarolan/music-store-assistant/model"
)

// Worker route identifiers. The route field of a conversation always holds
// one of these; anything else a classifier emits is coerced before it enters
// the graph.
const (
	RouteMusic   = "music"
	RouteSupport = "support"
)

// RouteDecision is a routing verdict with the classifier's reasoning.
type RouteDecision struct {
	Reasoning string `json:"reasoning"`
	Route     string `json:"route"`
}

// Classifier decides which worker should handle the next turn. The prior
// route is provided so ambiguous follow-ups can stay with the worker that is
// already mid-topic.
type Classifier interface {
	Classify(ctx context.Context, userMessage, priorRoute string) (RouteDecision, error)
}

const routerPrompt = `You are a router for a music store assistant.
Read the customer's latest message and pick exactly one department:

- "music": questions about the catalog. Artists, albums, songs, genres.
- "support": account questions. Profile, invoices, billing, refunds.

If the message is an ambiguous follow-up (for example "what about the second
one?") and a previous department is given, keep that department. Greetings and
anything you cannot classify go to "support".

Respond with JSON only, no prose:
{"reasoning": "<one sentence>", "route": "music" or "support"}`

// LLMClassifier routes turns with a single model call.
type LLMClassifier struct {
	model model.Model
}

// NewLLMClassifier creates a classifier backed by the given model.
func NewLLMClassifier(m model.Model) *LLMClassifier {
	return &LLMClassifier{model: m}
}

// Classify asks the model for a route and validates the answer against the
// known worker set. A transport failure surfaces ErrRoutingUnavailable; the
// router never guesses when the classifier is down.
func (c *LLMClassifier) Classify(ctx context.Context, userMessage, priorRoute string) (RouteDecision, error) {
	content := userMessage
	if priorRoute != "" {
		content = fmt.Sprintf("Previous department: %s\n\n%s", priorRoute, userMessage)
	}
	response, err := c.model.GenerateContent(ctx, &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage(routerPrompt),
			model.NewUserMessage(content),
		},
	})
	if err != nil {
		return RouteDecision{}, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}

	decision := parseRouteDecision(response.Message.Content)
	if !validRoute(decision.Route) {
		log.Warnf("classifier returned unknown route %q, defaulting to support", decision.Route)
		decision.Route = RouteSupport
	}
	return decision, nil
}

// parseRouteDecision extracts the JSON verdict from the model's reply,
// tolerating code fences and surrounding prose.
func parseRouteDecision(content string) RouteDecision {
	var decision RouteDecision
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return decision
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &decision); err != nil {
		log.Warnf("unparsable route decision: %v", err)
		return RouteDecision{}
	}
	decision.Route = strings.ToLower(strings.TrimSpace(decision.Route))
	return decision
}

func validRoute(route string) bool {
	return route == RouteMusic || route == RouteSupport
}

var musicKeywords = []string{
	"album", "track", "song", "artist", "band", "genre", "music", "play",
}

// KeywordClassifier is a deterministic fallback router. It needs no model
// call, which also makes it the classifier of choice for tests and load
// generation.
type KeywordClassifier struct{}

// Classify routes by keyword match, falling back to the prior route and then
// to support.
func (KeywordClassifier) Classify(ctx context.Context, userMessage, priorRoute string) (RouteDecision, error) {
	lowered := strings.ToLower(userMessage)
	for _, keyword := range musicKeywords {
		if strings.Contains(lowered, keyword) {
			return RouteDecision{Route: RouteMusic, Reasoning: "matched keyword " + keyword}, nil
		}
	}
	if strings.Contains(lowered, "refund") || strings.Contains(lowered, "invoice") ||
		strings.Contains(lowered, "account") || strings.Contains(lowered, "bill") {
		return RouteDecision{Route: RouteSupport, Reasoning: "matched account keyword"}, nil
	}
	if validRoute(priorRoute) {
		return RouteDecision{Route: priorRoute, Reasoning: "no keyword match, keeping prior route"}, nil
	}
	return RouteDecision{Route: RouteSupport, Reasoning: "unclassifiable, defaulting to support"}, nil
}
