package session

import (
	"time"

	"github.com/suPer8Hu/supportbot/internal/intent"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provenance records how the intent of an assistant turn was decided.
type Provenance struct {
	FinalIntent     intent.Label `json:"final_intent"`
	Source          string       `json:"source"`
	LocalIntent     intent.Label `json:"local_intent"`
	LocalConfidence float64      `json:"local_confidence"`
	RemoteIntent    intent.Label `json:"remote_intent"`
}

type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Provenance *Provenance `json:"provenance,omitempty"`
}

// Summary is the diagnostic view of one session.
type Summary struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	IsExpired    bool      `json:"is_expired"`
}
