// Package assistant composes the document pipeline, retrieval tools,
// session history and the model loop into the course QA service.
package assistant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quillback/studium/kernel/document"
	"github.com/quillback/studium/kernel/generator"
	"github.com/quillback/studium/kernel/model"
	"github.com/quillback/studium/kernel/session"
	sessioninmemory "github.com/quillback/studium/kernel/session/inmemory"
	"github.com/quillback/studium/kernel/tool"
	"github.com/quillback/studium/kernel/tool/builtin/courses"
	"github.com/quillback/studium/kernel/vectorstore"
)

// Config tunes the assistant's collaborators.
type Config struct {
	ChunkSize     int
	ChunkOverlap  int
	MaxToolRounds int
	MaxHistory    int
	// Sessions overrides the default in-memory history store, e.g. with a
	// file-backed one that survives restarts.
	Sessions session.Store
}

// Answer is one query outcome.
type Answer struct {
	Text      string
	Sources   []tool.Source
	SessionID string
}

// Assistant is the top-level course QA service. One instance serves one
// query at a time; sources are snapshotted per query.
type Assistant struct {
	parser        *document.Parser
	store         vectorstore.Store
	registry      *tool.Registry
	gen           *generator.Generator
	sessions      session.Store
	maxToolRounds int
}

// New wires an assistant over the given model and retrieval store.
func New(llm model.LLM, store vectorstore.Store, cfg Config) (*Assistant, error) {
	if store == nil {
		return nil, fmt.Errorf("assistant: store is nil")
	}
	registry, err := tool.NewRegistry(
		courses.NewSearch(store),
		courses.NewOutline(store),
	)
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(llm, generator.Config{MaxToolRounds: cfg.MaxToolRounds})
	if err != nil {
		return nil, err
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = sessioninmemory.New(cfg.MaxHistory)
	}
	return &Assistant{
		parser:        document.NewParser(cfg.ChunkSize, cfg.ChunkOverlap),
		store:         store,
		registry:      registry,
		gen:           gen,
		sessions:      sessions,
		maxToolRounds: cfg.MaxToolRounds,
	}, nil
}

// SetLLM swaps the underlying model, keeping courses and sessions.
func (a *Assistant) SetLLM(llm model.LLM) error {
	gen, err := generator.New(llm, generator.Config{MaxToolRounds: a.maxToolRounds})
	if err != nil {
		return err
	}
	a.gen = gen
	return nil
}

// Query answers one user question. An empty sessionID starts a new
// session; the returned Answer carries the id to continue it. On model
// failure the session history is left untouched.
func (a *Assistant) Query(ctx context.Context, text, sessionID string) (Answer, error) {
	if strings.TrimSpace(text) == "" {
		return Answer{}, fmt.Errorf("assistant: query is empty")
	}
	if sessionID == "" {
		sessionID = a.sessions.Create()
	}
	defer a.registry.ResetSources()

	history := a.sessions.History(sessionID)
	answer, err := a.gen.Answer(ctx, text, history, a.registry.Definitions(), a.registry)
	if err != nil {
		return Answer{}, fmt.Errorf("assistant: %w", err)
	}

	sources := a.registry.LastSources()
	a.sessions.AddExchange(sessionID, text, answer)
	return Answer{Text: answer, Sources: sources, SessionID: sessionID}, nil
}

// AddCourseDocument ingests one course document into the store.
func (a *Assistant) AddCourseDocument(path string) (document.Course, int, error) {
	course, chunks, err := a.parser.ParseFile(path)
	if err != nil {
		return document.Course{}, 0, err
	}
	if err := a.store.AddCourseMetadata(course); err != nil {
		return document.Course{}, 0, fmt.Errorf("assistant: index %s: %w", path, err)
	}
	if err := a.store.AddCourseContent(chunks); err != nil {
		return document.Course{}, 0, fmt.Errorf("assistant: index %s: %w", path, err)
	}
	return course, len(chunks), nil
}

// AddCourseFolder ingests every course document in dir, skipping files
// with unknown extensions and courses already in the store. Per-file
// failures are skipped so one bad document never blocks the rest.
func (a *Assistant) AddCourseFolder(dir string, clearExisting bool) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("assistant: read folder %s: %w", dir, err)
	}
	if clearExisting {
		if err := a.store.Clear(); err != nil {
			return 0, 0, fmt.Errorf("assistant: clear store: %w", err)
		}
	}

	existing := map[string]struct{}{}
	for _, title := range a.store.CourseTitles() {
		existing[title] = struct{}{}
	}

	coursesAdded, chunksAdded := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !ingestibleFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		course, parsed, err := a.parser.ParseFile(path)
		if err != nil {
			continue
		}
		if _, dup := existing[course.Title]; dup {
			continue
		}
		if err := a.store.AddCourseMetadata(course); err != nil {
			continue
		}
		if err := a.store.AddCourseContent(parsed); err != nil {
			continue
		}
		existing[course.Title] = struct{}{}
		coursesAdded++
		chunksAdded += len(parsed)
	}
	return coursesAdded, chunksAdded, nil
}

// Analytics reports the course catalog.
func (a *Assistant) Analytics() (int, []string) {
	return a.store.CourseCount(), a.store.CourseTitles()
}

// CourseOutline renders one course outline without a model round trip,
// reusing the outline tool's formatting.
func (a *Assistant) CourseOutline(ctx context.Context, courseName string) string {
	defer a.registry.ResetSources()
	return a.registry.Execute(ctx, courses.OutlineToolName, map[string]any{
		"course_name": courseName,
	})
}

// NewSession starts a fresh conversation.
func (a *Assistant) NewSession() string {
	return a.sessions.Create()
}

// ClearSession drops the history of one session.
func (a *Assistant) ClearSession(sessionID string) {
	a.sessions.Clear(sessionID)
}

func ingestibleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf", ".docx":
		return true
	}
	return false
}
