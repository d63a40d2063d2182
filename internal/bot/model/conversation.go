package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// sentAtKey stamps each stored turn with its creation time in message Extra.
const sentAtKey = "sent_at"

type HistoryRepository interface {
	// AddMessages appends the given turns, in order, to the session's history.
	AddMessages(ctx context.Context, sessionID string, messages ...*schema.Message) error

	// LoadHistory retrieves the conversation history for a session. A session
	// that has never been seen yields an empty history, never an error.
	LoadHistory(ctx context.Context, sessionID string) (*ConversationHistory, error)

	// ClearHistory removes all conversation history for a session.
	ClearHistory(ctx context.Context, sessionID string) error

	// MessageCount returns the number of turns in the session's history.
	MessageCount(ctx context.Context, sessionID string) (int, error)
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	SessionID string
	Messages  []*schema.Message
}

// UserTurn builds a timestamped user message for history storage.
func UserTurn(content string) *schema.Message {
	return stamp(schema.UserMessage(content))
}

// AssistantTurn builds a timestamped assistant message for history storage.
func AssistantTurn(content string) *schema.Message {
	return stamp(schema.AssistantMessage(content, nil))
}

func stamp(m *schema.Message) *schema.Message {
	if m.Extra == nil {
		m.Extra = map[string]any{}
	}
	m.Extra[sentAtKey] = time.Now().UTC().Format(time.RFC3339Nano)
	return m
}

// SentAt returns the stored timestamp of a turn, or the zero time when absent.
func SentAt(m *schema.Message) time.Time {
	if m == nil || m.Extra == nil {
		return time.Time{}
	}
	raw, ok := m.Extra[sentAtKey].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// QueryInput represents one chat invocation.
type QueryInput struct {
	// SessionID selects the conversation history; empty means stateless.
	SessionID string `json:"session_id"`
	Query     string `json:"query"`

	// Persona overrides the configured system persona when non-empty.
	Persona string `json:"persona,omitempty"`

	// Context carries retrieved snippets (web search results, document chunks)
	// appended to the system message for this invocation only.
	Context string `json:"context,omitempty"`
}
