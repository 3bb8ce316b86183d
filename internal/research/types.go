// Package research produces LLM answers for the bot features. Completions go to
// Groq first and Gemini second, optionally grounded with public search results.
package research

import "context"

// Unavailable is shown to users whenever no provider produced an answer.
const Unavailable = "Sorry, the research service is temporarily unavailable."

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion.
type Request struct {
	Prompt  string
	Persona Persona
	History []Message
	// Search grounds the answer with results from the configured search backends.
	Search bool
	// Query is sent to the search backends; Prompt is used when empty.
	Query string
}

// Reply never carries an error. Degraded replies hold Unavailable.
type Reply struct {
	Text     string
	Degraded bool
}

// Completion is what a Provider receives.
type Completion struct {
	System   string
	Messages []Message
}

// Provider is a single completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, c Completion) (string, error)
}

// Completer is the consumer-side view of Client.
type Completer interface {
	Complete(ctx context.Context, req Request) Reply
}

// Result is one search hit.
type Result struct {
	Source  string
	Title   string
	Snippet string
	URL     string
}

// Searcher is a single search backend.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}
