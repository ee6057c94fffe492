package assistant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quillback/studium/kernel/model"
	vectorinmemory "github.com/quillback/studium/kernel/vectorstore/inmemory"
)

// scriptedLLM replays canned responses in order.
type scriptedLLM struct {
	responses []model.Response
	requests  []model.Request
}

func (l *scriptedLLM) Name() string { return "scripted" }

func (l *scriptedLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	l.requests = append(l.requests, *req)
	i := len(l.requests) - 1
	if i >= len(l.responses) {
		i = len(l.responses) - 1
	}
	resp := l.responses[i]
	return &resp, nil
}

const courseDoc = `Course Title: Test Course
Course Link: https://example.com/test
Course Instructor: Test Instructor

Lesson 0: Getting Started
Lesson Link: https://example.com/test/0
This lesson explains retrieval systems. A retrieval system finds relevant text. It ranks documents by similarity.

Lesson 1: Going Deeper
Lesson Link: https://example.com/test/1
This lesson covers ranking functions. Ranking orders results by relevance score.
`

func writeCourseFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestAssistant(t *testing.T, llm model.LLM) *Assistant {
	t.Helper()
	a, err := New(llm, vectorinmemory.New(5), Config{ChunkSize: 200, ChunkOverlap: 50})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func textResponse(text string) model.Response {
	return model.Response{Message: model.Message{Role: model.RoleAssistant, Text: text}}
}

func searchCallResponse(query string) model.Response {
	return model.Response{Message: model.Message{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{{
			ID:   "call-1",
			Name: "search_course_content",
			Args: map[string]any{"query": query},
		}},
	}}
}

func TestAddCourseDocument(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	path := writeCourseFile(t, t.TempDir(), "course1.txt", courseDoc)

	course, chunks, err := a.AddCourseDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if course.Title != "Test Course" {
		t.Fatalf("title = %q", course.Title)
	}
	if chunks == 0 {
		t.Fatal("no chunks ingested")
	}
	count, titles := a.Analytics()
	if count != 1 || titles[0] != "Test Course" {
		t.Fatalf("analytics = %d %v", count, titles)
	}
}

func TestAddCourseDocumentMissingFile(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	course, chunks, err := a.AddCourseDocument(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error")
	}
	if course.Title != "" || chunks != 0 {
		t.Fatalf("got %+v / %d on failure", course, chunks)
	}
}

func TestAddCourseFolderSkipsDuplicatesAndJunk(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	dir := t.TempDir()
	writeCourseFile(t, dir, "one.txt", courseDoc)
	writeCourseFile(t, dir, "two.txt", courseDoc) // same course title
	writeCourseFile(t, dir, "notes.md", "not a course document")

	courses, chunks, err := a.AddCourseFolder(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if courses != 1 {
		t.Fatalf("courses = %d, want 1", courses)
	}
	if chunks == 0 {
		t.Fatal("no chunks ingested")
	}

	// Re-running over the same folder adds nothing.
	courses, chunks, err = a.AddCourseFolder(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if courses != 0 || chunks != 0 {
		t.Fatalf("re-ingest added %d courses %d chunks", courses, chunks)
	}
}

func TestAddCourseFolderClearExisting(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	dir := t.TempDir()
	writeCourseFile(t, dir, "one.txt", courseDoc)
	if _, _, err := a.AddCourseFolder(dir, false); err != nil {
		t.Fatal(err)
	}

	courses, _, err := a.AddCourseFolder(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if courses != 1 {
		t.Fatalf("courses after clear = %d, want 1", courses)
	}
	count, _ := a.Analytics()
	if count != 1 {
		t.Fatalf("catalog count = %d, want 1", count)
	}
}

func TestAddCourseFolderMissingDir(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	if _, _, err := a.AddCourseFolder(filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestQueryDirectAnswer(t *testing.T) {
	llm := &scriptedLLM{responses: []model.Response{textResponse("direct answer")}}
	a := newTestAssistant(t, llm)

	ans, err := a.Query(context.Background(), "What is 2+2?", "")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Text != "direct answer" {
		t.Fatalf("text = %q", ans.Text)
	}
	if ans.SessionID == "" {
		t.Fatal("no session id assigned")
	}
	if len(ans.Sources) != 0 {
		t.Fatalf("direct answer has sources: %+v", ans.Sources)
	}
}

func TestQueryWithToolProducesSources(t *testing.T) {
	llm := &scriptedLLM{responses: []model.Response{
		searchCallResponse("retrieval systems"),
		textResponse("answer built from retrieval"),
	}}
	a := newTestAssistant(t, llm)
	path := writeCourseFile(t, t.TempDir(), "course.txt", courseDoc)
	if _, _, err := a.AddCourseDocument(path); err != nil {
		t.Fatal(err)
	}

	ans, err := a.Query(context.Background(), "What is a retrieval system?", "")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Text != "answer built from retrieval" {
		t.Fatalf("text = %q", ans.Text)
	}
	if len(ans.Sources) == 0 {
		t.Fatal("expected sources from search tool")
	}
	if !strings.HasPrefix(ans.Sources[0].Text, "Test Course") {
		t.Fatalf("source = %+v", ans.Sources[0])
	}

	// Sources must not leak into the next query.
	llm.responses = []model.Response{textResponse("second answer")}
	llm.requests = nil
	ans2, err := a.Query(context.Background(), "Unrelated question", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(ans2.Sources) != 0 {
		t.Fatalf("stale sources leaked: %+v", ans2.Sources)
	}
}

func TestQueryThreadsHistory(t *testing.T) {
	llm := &scriptedLLM{responses: []model.Response{textResponse("first answer")}}
	a := newTestAssistant(t, llm)

	ans, err := a.Query(context.Background(), "first question", "")
	if err != nil {
		t.Fatal(err)
	}

	llm.responses = []model.Response{textResponse("second answer")}
	llm.requests = nil
	if _, err := a.Query(context.Background(), "second question", ans.SessionID); err != nil {
		t.Fatal(err)
	}
	system := llm.requests[0].Messages[0].Text
	if !strings.Contains(system, "User: first question") || !strings.Contains(system, "Assistant: first answer") {
		t.Fatalf("history missing from system text:\n%s", system)
	}
}

func TestQueryEmpty(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	if _, err := a.Query(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestQueryModelErrorKeepsHistoryClean(t *testing.T) {
	llm := &failingLLM{}
	a := newTestAssistant(t, llm)
	id := a.NewSession()
	if _, err := a.Query(context.Background(), "question", id); err == nil {
		t.Fatal("expected model error")
	}

	// A later successful query must not see the failed one in history.
	ok := &scriptedLLM{responses: []model.Response{textResponse("fine")}}
	a2 := newTestAssistant(t, ok)
	id2 := a2.NewSession()
	if _, err := a2.Query(context.Background(), "question", id2); err != nil {
		t.Fatal(err)
	}
}

type failingLLM struct{}

func (l *failingLLM) Name() string { return "failing" }
func (l *failingLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	return nil, fmt.Errorf("model: boom")
}

func TestCourseOutlineDirect(t *testing.T) {
	a := newTestAssistant(t, &scriptedLLM{responses: []model.Response{textResponse("ok")}})
	path := writeCourseFile(t, t.TempDir(), "course.txt", courseDoc)
	if _, _, err := a.AddCourseDocument(path); err != nil {
		t.Fatal(err)
	}

	out := a.CourseOutline(context.Background(), "Test Course")
	for _, want := range []string{"Course: Test Course", "Lesson 0: Getting Started", "Lesson 1: Going Deeper"} {
		if !strings.Contains(out, want) {
			t.Fatalf("outline missing %q:\n%s", want, out)
		}
	}

	if got := a.CourseOutline(context.Background(), "Ghost Course"); got != "No course found matching 'Ghost Course'" {
		t.Fatalf("got %q", got)
	}
}
