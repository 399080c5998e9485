//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package main is the entry point for the music store assistant. It serves
// the HTTP API or runs an interactive chat session in the terminal.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/scarolan/music-store-assistant/assistant"
	"github.com/scarolan/music-store-assistant/catalog"
	"github.com/scarolan/music-store-assistant/graph"
	checkpointsqlite "github.com/scarolan/music-store-assistant/graph/checkpoint/sqlite"
	"github.com/scarolan/music-store-assistant/log"
	"github.com/scarolan/music-store-assistant/model/openai"
	"github.com/scarolan/music-store-assistant/security"
	"github.com/scarolan/music-store-assistant/server"
	sessionsqlite "github.com/scarolan/music-store-assistant/session/sqlite"
	"github.com/scarolan/music-store-assistant/telemetry/trace"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve ServeCmd `cmd:"" help:"Serve the HTTP API"`
	Chat  ChatCmd  `cmd:"" help:"Chat with the assistant in the terminal"`

	Model    string `default:"gpt-4o-mini" env:"ASSISTANT_MODEL" help:"Chat completion model name"`
	BaseURL  string `env:"OPENAI_BASE_URL" help:"OpenAI-compatible endpoint override"`
	DB       string `default:"assistant.db" env:"ASSISTANT_DB" help:"SQLite database path"`
	LogLevel string `default:"info" enum:"debug,info,warn,error" help:"Log level"`
	Tracing  bool   `env:"ASSISTANT_TRACING" help:"Export OpenTelemetry traces"`
}

// ServeCmd serves the HTTP API.
type ServeCmd struct {
	Addr string `default:":8080" env:"ASSISTANT_ADDR" help:"Listen address"`
}

// ChatCmd runs an interactive terminal session.
type ChatCmd struct {
	CustomerID int64 `default:"1" help:"Customer identity to chat as"`
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("assistant"),
		kong.Description("Algorhythm music store assistant"),
	)
	log.SetLevel(cli.LogLevel)

	app, err := newApp(context.Background(), &cli)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer app.close()

	switch ctx.Command() {
	case "serve":
		err = app.serve(cli.Serve.Addr)
	case "chat":
		err = app.chat(context.Background(), cli.Chat.CustomerID)
	default:
		err = fmt.Errorf("unknown command %s", ctx.Command())
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

type app struct {
	engine    *assistant.Engine
	db        *sql.DB
	stopTrace func() error
}

func newApp(ctx context.Context, cli *CLI) (*app, error) {
	a := &app{}
	if cli.Tracing {
		clean, err := trace.Start(ctx)
		if err != nil {
			return nil, fmt.Errorf("start tracing: %w", err)
		}
		a.stopTrace = clean
	}

	db, err := sql.Open("libsql", "file:"+cli.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	if err := catalog.Migrate(db); err != nil {
		return nil, err
	}

	saver, err := checkpointsqlite.NewSaver(db, graph.MessagesStateSchema())
	if err != nil {
		return nil, err
	}
	sessions, err := sessionsqlite.NewService(db)
	if err != nil {
		return nil, err
	}

	var modelOpts []openai.Option
	if cli.BaseURL != "" {
		modelOpts = append(modelOpts, openai.WithBaseURL(cli.BaseURL))
	}
	m := openai.New(cli.Model, modelOpts...)

	engine, err := assistant.New(m, catalog.NewService(db),
		assistant.WithCheckpointSaver(saver),
		assistant.WithSessionService(sessions),
	)
	if err != nil {
		return nil, err
	}
	a.engine = engine
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.stopTrace != nil {
		if err := a.stopTrace(); err != nil {
			log.Warnf("stop tracing: %v", err)
		}
	}
}

func (a *app) serve(addr string) error {
	log.Infof("serving on %s", addr)
	return http.ListenAndServe(addr, server.New(a.engine).Handler())
}

// chat runs a REPL against the engine. Pending refunds can be resolved in
// place with /pending, /approve and /reject, standing in for the admin API.
func (a *app) chat(ctx context.Context, customerID int64) error {
	sec := security.Context{CustomerID: customerID}
	threadID := fmt.Sprintf("cli-%d", os.Getpid())
	fmt.Println("Algorhythm music store assistant. Type /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case line == "/quit":
			return nil
		case line == "/pending":
			a.printPending(ctx)
			continue
		case strings.HasPrefix(line, "/approve "):
			a.printDecision(ctx, a.engine.Approve, strings.TrimPrefix(line, "/approve "))
			continue
		case strings.HasPrefix(line, "/reject "):
			a.printDecision(ctx, a.engine.Reject, strings.TrimPrefix(line, "/reject "))
			continue
		}

		reply, err := a.engine.Chat(ctx, threadID, line, sec)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printReply(reply)
	}
}

func (a *app) printPending(ctx context.Context) {
	approvals, err := a.engine.PendingApprovals(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if len(approvals) == 0 {
		fmt.Println("no pending approvals")
		return
	}
	for _, approval := range approvals {
		fmt.Printf("%s  %s %s\n", approval.ThreadID, approval.ToolName, approval.Arguments)
	}
}

func (a *app) printDecision(ctx context.Context,
	decide func(context.Context, string) (*assistant.Reply, error), threadID string) {
	reply, err := decide(ctx, strings.TrimSpace(threadID))
	if err != nil {
		if errors.Is(err, assistant.ErrNoPendingApproval) {
			fmt.Println("no pending approval for that thread")
			return
		}
		fmt.Printf("error: %v\n", err)
		return
	}
	printReply(reply)
}

func printReply(reply *assistant.Reply) {
	if reply.Pending != nil {
		fmt.Printf("[pending approval] %s %s on thread %s\n",
			reply.Pending.ToolName, reply.Pending.Arguments, reply.Pending.ThreadID)
		return
	}
	fmt.Println(reply.Content)
}
