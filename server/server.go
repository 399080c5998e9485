//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the assistant over HTTP: a chat endpoint for
// customers and an admin surface for reviewing and resolving pending refund
// approvals.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/scarolan/music-store-assistant/assistant"
	"github.com/scarolan/music-store-assistant/log"
	"github.com/scarolan/music-store-assistant/security"
)

// Server is the HTTP front of the assistant engine.
type Server struct {
	engine *assistant.Engine
	router *mux.Router
}

// New creates the HTTP server around an engine.
func New(engine *assistant.Engine) *Server {
	s := &Server{
		engine: engine,
		router: mux.NewRouter(),
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	s.router.HandleFunc("/admin/pending", s.handlePending).Methods(http.MethodGet)
	s.router.HandleFunc("/admin/approve/{threadID}", s.handleApprove).Methods(http.MethodPost)
	s.router.HandleFunc("/admin/reject/{threadID}", s.handleReject).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

type chatRequest struct {
	// ThreadID continues an existing conversation. Empty starts a new one.
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
	// CustomerID stands in for an authenticated identity. A real deployment
	// would derive this from the session, never from the request body.
	CustomerID int64 `json:"customer_id"`
}

type chatResponse struct {
	assistant.Reply
	// Degraded flags a canned reply produced after a turn failure.
	Degraded bool `json:"degraded,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var request chatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if request.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	threadID := request.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}
	sec := security.Context{CustomerID: request.CustomerID}

	reply, err := s.engine.Chat(r.Context(), threadID, request.Message, sec)
	switch {
	case errors.Is(err, assistant.ErrInvalidSecurityContext):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, assistant.ErrIterationLimit):
		// The turn is lost but the customer still gets an answer.
		log.Warnf("thread %s: %v", threadID, err)
		writeJSON(w, http.StatusOK, chatResponse{
			Reply: assistant.Reply{
				ThreadID: threadID,
				Content:  "Sorry, I got stuck working on that. Please try rephrasing your question.",
			},
			Degraded: true,
		})
		return
	case errors.Is(err, assistant.ErrRoutingUnavailable):
		writeError(w, http.StatusServiceUnavailable, "assistant temporarily unavailable, please retry")
		return
	case err != nil:
		log.Errorf("chat on thread %s: %v", threadID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: *reply})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	approvals, err := s.engine.PendingApprovals(r.Context())
	if err != nil {
		log.Errorf("list pending approvals: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": approvals})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, s.engine.Approve)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.resolve(w, r, s.engine.Reject)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request,
	decide func(ctx context.Context, threadID string) (*assistant.Reply, error)) {
	threadID := mux.Vars(r)["threadID"]
	reply, err := decide(r.Context(), threadID)
	switch {
	case errors.Is(err, assistant.ErrNoPendingApproval):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		log.Errorf("resolve thread %s: %v", threadID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
