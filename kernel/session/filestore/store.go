// Package filestore persists session transcripts to jsonl files on local
// disk so conversations survive process restarts.
package filestore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quillback/studium/kernel/session"
)

const defaultMaxHistory = 2

// Store keeps one jsonl file per session under root, truncated to the most
// recent 2*maxHistory messages. Write failures are swallowed so a full disk
// degrades to in-memory-like behavior instead of failing queries.
type Store struct {
	root       string
	maxHistory int
	mu         sync.Mutex
}

type record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// New creates root when missing. maxHistory is the number of retained
// exchanges; non-positive values use the default.
func New(root string, maxHistory int) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("filestore: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create root: %w", err)
	}
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Store{root: root, maxHistory: maxHistory}, nil
}

func (s *Store) Create() string {
	id := "session_" + uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.writeAll(id, nil)
	return id
}

func (s *Store) AddMessage(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.readAll(sessionID)
	messages = append(messages, record{Role: role, Content: content})
	_ = s.writeAll(sessionID, s.trim(messages))
}

func (s *Store) AddExchange(sessionID, userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.readAll(sessionID)
	messages = append(messages,
		record{Role: session.RoleUser, Content: userText},
		record{Role: session.RoleAssistant, Content: assistantText},
	)
	_ = s.writeAll(sessionID, s.trim(messages))
}

func (s *Store) History(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.readAll(sessionID)
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
	path := s.sessionPath(sessionID)
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = s.writeAll(sessionID, nil)
}

func (s *Store) trim(messages []record) []record {
	if limit := 2 * s.maxHistory; len(messages) > limit {
		return messages[len(messages)-limit:]
	}
	return messages
}

func (s *Store) readAll(sessionID string) []record {
	file, err := os.Open(s.sessionPath(sessionID))
	if err != nil {
		return nil
	}
	defer file.Close()
	var out []record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec record
		// Corrupt lines are skipped rather than failing the whole session.
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (s *Store) writeAll(sessionID string, messages []record) error {
	path := s.sessionPath(sessionID)
	var b strings.Builder
	for _, rec := range messages {
		raw, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		b.Write(raw)
		b.WriteByte('\n')
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.root, sanitizeID(sessionID)+".jsonl")
}

// sanitizeID keeps session files inside root even for ids taken from user
// input.
func sanitizeID(sessionID string) string {
	var b strings.Builder
	b.Grow(len(sessionID))
	for _, r := range sessionID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
