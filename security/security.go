//
// Copyright (C) 2025 Algorhythm.  All rights reserved.
//
// music-store-assistant is licensed under the Apache License Version 2.0.
//
//

// Package security carries the authenticated caller identity through the
// engine. The identity is injected by the application layer (simulating a
// JWT claim), passed explicitly to every operation that needs it, and is
// never placed in graph state or any structure visible to the model.
package security

// Context identifies the authenticated caller of the current invocation.
// The zero value means "not authenticated"; identity-scoped tools must
// refuse to run with it.
type Context struct {
	// CustomerID scopes all identity-sensitive catalog queries.
	CustomerID int64
}

// Valid reports whether the context carries an authenticated identity.
func (c Context) Valid() bool {
	return c.CustomerID > 0
}
