package ai

import "context"

// Runtime is a chat backend: it takes the user's text and returns the
// assistant's reply.
type Runtime interface {
	Send(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderWebhook = "webhook"
	ProviderOpenAI  = "openai"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries the new user text. History holds earlier turns for
// runtimes that keep no server-side memory; the webhook ignores it.
type ChatRequest struct {
	Text    string    `json:"text"`
	History []Message `json:"history,omitempty"`
}

// ChatResponse is the assistant reply. Raw holds the undecoded body when
// the runtime has one.
type ChatResponse struct {
	Text      string `json:"text"`
	Raw       []byte `json:"-"`
	RequestID string `json:"request_id,omitempty"`
}
