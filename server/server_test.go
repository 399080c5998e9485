//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/scarolan/music-store-assistant/assistant"
	"github.com/scarolan/music-store-assistant/catalog"
	"github.com/scarolan/music-store-assistant/model"
)

type scriptedModel struct {
	mu        sync.Mutex
	responses []*model.Response
}

func (m *scriptedModel) push(responses ...*model.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

func (m *scriptedModel) GenerateContent(ctx context.Context, req *model.Request) (*model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil, errors.New("scripted model: no responses left")
	}
	response := m.responses[0]
	m.responses = m.responses[1:]
	return response, nil
}

func (m *scriptedModel) Info() model.Info { return model.Info{Name: "scripted"} }

func newTestServer(t *testing.T, scripted *scriptedModel) *httptest.Server {
	t.Helper()
	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, catalog.Migrate(db))

	engine, err := assistant.New(scripted, catalog.NewService(db),
		assistant.WithClassifier(assistant.KeywordClassifier{}))
	require.NoError(t, err)

	testServer := httptest.NewServer(New(engine).Handler())
	t.Cleanup(testServer.Close)
	return testServer
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	response, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)
	return response
}

func decodeBody(t *testing.T, response *http.Response, v any) {
	t.Helper()
	defer response.Body.Close()
	require.NoError(t, json.NewDecoder(response.Body).Decode(v))
}

func TestChatEndpoint(t *testing.T) {
	scripted := &scriptedModel{}
	scripted.push(&model.Response{Message: model.NewAssistantMessage("Hi! How can I help?")})
	testServer := newTestServer(t, scripted)

	response := postJSON(t, testServer.URL+"/chat", map[string]any{
		"message":     "hello there, what music do you have",
		"customer_id": 1,
	})
	require.Equal(t, http.StatusOK, response.StatusCode)

	var reply chatResponse
	decodeBody(t, response, &reply)
	assert.NotEmpty(t, reply.ThreadID)
	assert.Equal(t, "Hi! How can I help?", reply.Content)
	assert.Nil(t, reply.Pending)
}

func TestChatEndpointValidation(t *testing.T) {
	testServer := newTestServer(t, &scriptedModel{})

	response := postJSON(t, testServer.URL+"/chat", map[string]any{"customer_id": 1})
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	response.Body.Close()

	response = postJSON(t, testServer.URL+"/chat", map[string]any{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	scripted := &scriptedModel{}
	scripted.push(&model.Response{Message: model.Message{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: model.FunctionCall{Name: "process_refund", Arguments: []byte(`{"invoice_id":98}`)},
		}},
	}})
	testServer := newTestServer(t, scripted)

	response := postJSON(t, testServer.URL+"/chat", map[string]any{
		"message":     "refund invoice 98",
		"customer_id": 1,
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	var reply chatResponse
	decodeBody(t, response, &reply)
	require.NotNil(t, reply.Pending)
	assert.Equal(t, "process_refund", reply.Pending.ToolName)
	threadID := reply.ThreadID

	listResponse, err := http.Get(testServer.URL + "/admin/pending")
	require.NoError(t, err)
	var listing struct {
		Pending []assistant.PendingApproval `json:"pending"`
	}
	decodeBody(t, listResponse, &listing)
	require.Len(t, listing.Pending, 1)
	assert.Equal(t, threadID, listing.Pending[0].ThreadID)

	scripted.push(&model.Response{Message: model.NewAssistantMessage("Refund submitted.")})
	approveResponse := postJSON(t, testServer.URL+"/admin/approve/"+threadID, nil)
	require.Equal(t, http.StatusOK, approveResponse.StatusCode)
	var resolved assistant.Reply
	decodeBody(t, approveResponse, &resolved)
	assert.Equal(t, "Refund submitted.", resolved.Content)

	// The decision consumed the checkpoint.
	again := postJSON(t, testServer.URL+"/admin/approve/"+threadID, nil)
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
	again.Body.Close()
}

func TestRejectUnknownThread(t *testing.T) {
	testServer := newTestServer(t, &scriptedModel{})

	response := postJSON(t, testServer.URL+"/admin/reject/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
	response.Body.Close()
}

func TestHealthz(t *testing.T) {
	testServer := newTestServer(t, &scriptedModel{})

	response, err := http.Get(testServer.URL + "/healthz")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)
}
