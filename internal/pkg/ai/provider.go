// Package ai builds chat requests from repository state and sends them to a
// chat completion backend.
package ai

import (
	"context"
	"time"
)

// RoleUser is the only role gitcamus sends.
const RoleUser = "user"

// ChatMessage is one role-tagged turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are sampling hints passed to the backend, never enforced locally.
type Options struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

// ChatRequest is the backend-neutral request. Its JSON encoding is the
// Ollama /api/chat body.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  Options       `json:"options"`
}

// PromptLength returns the total size of all message contents.
func (r *ChatRequest) PromptLength() int {
	n := 0
	for _, m := range r.Messages {
		n += len(m.Content)
	}
	return n
}

// ProviderConfig contains what a backend needs to connect.
type ProviderConfig struct {
	Host    string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Provider sends one chat request and returns the raw generated text.
type Provider interface {
	Chat(ctx context.Context, req *ChatRequest) (string, error)
	// Name is the display name used in user-facing messages.
	Name() string
	// Endpoint is the full URL requests are sent to.
	Endpoint() string
}
