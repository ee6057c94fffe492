// Package inmemory provides a thread-safe in-memory session store with a
// bounded history window.
package inmemory

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quillback/studium/kernel/session"
)

const defaultMaxHistory = 2

// Store keeps session transcripts in memory, truncated to the most recent
// 2*maxHistory messages per session.
type Store struct {
	mu         sync.RWMutex
	maxHistory int
	sessions   map[string][]session.Message
}

// New returns an empty store. maxHistory is the number of retained
// exchanges; non-positive values use the default.
func New(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Store{
		maxHistory: maxHistory,
		sessions:   map[string][]session.Message{},
	}
}

func (s *Store) Create() string {
	id := "session_" + uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = nil
	return id
}

func (s *Store) AddMessage(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(sessionID, session.Message{Role: role, Content: content})
}

func (s *Store) AddExchange(sessionID, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(sessionID, session.Message{Role: session.RoleUser, Content: userText})
	s.appendLocked(sessionID, session.Message{Role: session.RoleAssistant, Content: assistantText})
}

func (s *Store) History(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := s.sessions[sessionID]
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, titleRole(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		s.sessions[sessionID] = nil
	}
}

// appendLocked adds one message and drops the oldest beyond the window.
func (s *Store) appendLocked(sessionID string, m session.Message) {
	messages := append(s.sessions[sessionID], m)
	if limit := 2 * s.maxHistory; len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	s.sessions[sessionID] = messages
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
