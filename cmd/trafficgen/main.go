//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package main generates demo traffic against a running assistant. Each
// simulated customer runs a short scripted conversation; a fraction of them
// request a refund so the admin approval queue fills up.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/scarolan/music-store-assistant/log"
)

var scripts = [][]string{
	{
		"What albums does AC/DC have?",
		"Which of their songs is the longest?",
	},
	{
		"What genres do you carry?",
		"Who are the top metal artists?",
	},
	{
		"Can you show me my recent invoices?",
		"What's on invoice 98?",
	},
	{
		"I want a refund for invoice 98",
	},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "assistant base URL")
	customers := flag.Int("customers", 20, "number of simulated customers")
	workers := flag.Int("workers", 5, "concurrent conversations")
	flag.Parse()

	pool, err := ants.NewPool(*workers)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Release()

	client := &http.Client{Timeout: 60 * time.Second}
	var wg sync.WaitGroup
	for i := 0; i < *customers; i++ {
		script := scripts[i%len(scripts)]
		customerID := int64(i%3 + 1)
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			runConversation(client, *baseURL, customerID, script)
		}); err != nil {
			wg.Done()
			log.Errorf("submit conversation: %v", err)
		}
	}
	wg.Wait()
	log.Infof("done: %d conversations", *customers)
}

type chatRequest struct {
	ThreadID   string `json:"thread_id"`
	Message    string `json:"message"`
	CustomerID int64  `json:"customer_id"`
}

type chatResponse struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
	Pending  *struct {
		ToolName string `json:"tool_name"`
	} `json:"pending"`
}

func runConversation(client *http.Client, baseURL string, customerID int64, script []string) {
	threadID := uuid.NewString()
	for _, message := range script {
		body, _ := json.Marshal(chatRequest{
			ThreadID:   threadID,
			Message:    message,
			CustomerID: customerID,
		})
		response, err := client.Post(baseURL+"/chat", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Errorf("thread %s: %v", threadID, err)
			return
		}
		var reply chatResponse
		err = json.NewDecoder(response.Body).Decode(&reply)
		response.Body.Close()
		if err != nil {
			log.Errorf("thread %s: decode reply: %v", threadID, err)
			return
		}
		if reply.Pending != nil {
			fmt.Printf("%s  awaiting approval of %s\n", threadID, reply.Pending.ToolName)
			return
		}
		fmt.Printf("%s  %s\n", threadID, truncate(reply.Content, 80))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
