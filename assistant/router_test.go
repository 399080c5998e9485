//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarolan/music-store-assistant/model"
)

type fakeRouterModel struct {
	content string
	err     error
}

func (m *fakeRouterModel) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.Response{Message: model.NewAssistantMessage(m.content)}, nil
}

func (m *fakeRouterModel) Info() model.Info {
	return model.Info{Name: "fake-router"}
}

func TestLLMClassifierParsesVerdict(t *testing.T) {
	classifier := NewLLMClassifier(&fakeRouterModel{
		content: `{"reasoning": "asks about albums", "route": "music"}`,
	})

	decision, err := classifier.Classify(context.Background(), "What albums does AC/DC have?", "")
	require.NoError(t, err)
	assert.Equal(t, RouteMusic, decision.Route)
	assert.Equal(t, "asks about albums", decision.Reasoning)
}

func TestLLMClassifierToleratesCodeFences(t *testing.T) {
	classifier := NewLLMClassifier(&fakeRouterModel{
		content: "```json\n{\"reasoning\": \"billing question\", \"route\": \"Support\"}\n```",
	})

	decision, err := classifier.Classify(context.Background(), "Where is my invoice?", "")
	require.NoError(t, err)
	assert.Equal(t, RouteSupport, decision.Route)
}

func TestLLMClassifierRejectsUnknownRoute(t *testing.T) {
	classifier := NewLLMClassifier(&fakeRouterModel{
		content: `{"reasoning": "hmm", "route": "billing-department"}`,
	})

	decision, err := classifier.Classify(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, RouteSupport, decision.Route)
}

func TestLLMClassifierGarbageOutput(t *testing.T) {
	classifier := NewLLMClassifier(&fakeRouterModel{content: "I think music? Maybe."})

	decision, err := classifier.Classify(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, RouteSupport, decision.Route)
}

func TestLLMClassifierTransportFailure(t *testing.T) {
	classifier := NewLLMClassifier(&fakeRouterModel{err: errors.New("connection refused")})

	_, err := classifier.Classify(context.Background(), "hello", "")
	require.ErrorIs(t, err, ErrRoutingUnavailable)
}

func TestKeywordClassifier(t *testing.T) {
	classifier := KeywordClassifier{}
	ctx := context.Background()

	tests := []struct {
		message    string
		priorRoute string
		want       string
	}{
		{"What albums does AC/DC have?", "", RouteMusic},
		{"I want a refund for invoice 98", "", RouteSupport},
		{"show me my account", "", RouteSupport},
		{"which one is newer?", RouteMusic, RouteMusic},
		{"which one is newer?", RouteSupport, RouteSupport},
		{"hello there", "", RouteSupport},
	}
	for _, tt := range tests {
		decision, err := classifier.Classify(ctx, tt.message, tt.priorRoute)
		require.NoError(t, err)
		assert.Equal(t, tt.want, decision.Route, "message %q", tt.message)
	}
}

func TestParseRouteDecision(t *testing.T) {
	decision := parseRouteDecision(`prefix {"reasoning":"x","route":"MUSIC"} suffix`)
	assert.Equal(t, RouteMusic, decision.Route)

	decision = parseRouteDecision("no json here")
	assert.Empty(t, decision.Route)
}
