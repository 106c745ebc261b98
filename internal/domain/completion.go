package domain

import "context"

// Message is one turn of a chat conversation.
type Message struct {
	Role    string
	Content string
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completer produces a chat completion for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
}

// Completion is the assistant reply plus token usage.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}
