// Package session tracks per-conversation message history used as model
// context for follow-up questions.
package session

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one history entry.
type Message struct {
	Role    string
	Content string
}

// Store provides conversation history persistence. Implementations must be
// safe for concurrent use; mutations on one session id are serialized by
// the store.
type Store interface {
	// Create starts a new session and returns its opaque id.
	Create() string
	// AddMessage appends one message, creating the session when the id is
	// unknown.
	AddMessage(sessionID, role, content string)
	// AddExchange appends a user question and its assistant answer as one
	// ordered pair.
	AddExchange(sessionID, userText, assistantText string)
	// History renders the session transcript for model context. Unknown or
	// empty sessions render as "".
	History(sessionID string) string
	// Clear drops the history of one session. Clearing an unknown session
	// is a no-op.
	Clear(sessionID string)
}
