// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formatter runs converted markdown through an LLM formatting pass.
// A document is split into chunks, each chunk is sent to a Provider under a
// shared rate gate with bounded retries, and the responses are reassembled
// in chunk order.
package formatter

import (
	"context"
	"fmt"
)

// Request is the unit of work sent to a Provider: exactly one chunk.
type Request struct {
	Index     int
	System    string
	User      string
	MaxTokens int
}

// Provider submits one formatting request and returns the formatted text.
// Implementations classify failures as *ProviderError or *TransientError.
type Provider interface {
	Name() string
	Model() string
	Submit(ctx context.Context, req Request) (string, error)
}

// ProviderError is a non-transient provider failure such as an
// authentication error or a malformed request. It aborts the formatting
// pass for the whole document.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// TransientError is a failure worth retrying: timeouts, rate limiting,
// server errors and dropped connections.
type TransientError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: transient status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: transient: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
