package courses

import (
	"context"
	"strings"
	"testing"

	"github.com/quillback/studium/kernel/document"
	"github.com/quillback/studium/kernel/vectorstore"
)

func intPtr(n int) *int { return &n }

// fakeStore is a scripted vectorstore.Store.
type fakeStore struct {
	results  vectorstore.SearchResults
	outline  *vectorstore.CourseOutline
	links    map[int]string
	lastArgs struct {
		query      string
		courseName string
		lesson     *int
	}
}

func (f *fakeStore) AddCourseMetadata(document.Course) error  { return nil }
func (f *fakeStore) AddCourseContent([]document.Chunk) error  { return nil }
func (f *fakeStore) CourseCount() int                         { return 0 }
func (f *fakeStore) CourseTitles() []string                   { return nil }
func (f *fakeStore) Clear() error                             { return nil }
func (f *fakeStore) ResolveCourseName(string) (string, bool)  { return "", false }

func (f *fakeStore) Search(query, courseName string, lesson *int, limit int) vectorstore.SearchResults {
	f.lastArgs.query = query
	f.lastArgs.courseName = courseName
	f.lastArgs.lesson = lesson
	return f.results
}

func (f *fakeStore) Outline(string) (*vectorstore.CourseOutline, bool) {
	if f.outline == nil {
		return nil, false
	}
	return f.outline, true
}

func (f *fakeStore) LessonLink(courseTitle string, lesson int) (string, bool) {
	link, ok := f.links[lesson]
	return link, ok
}

func TestSearchFormatsResults(t *testing.T) {
	store := &fakeStore{
		results: vectorstore.SearchResults{
			Documents: []string{"Lesson content about MCP servers."},
			Metadata:  []vectorstore.ChunkMeta{{CourseTitle: "MCP Course", LessonNumber: intPtr(1), ChunkIndex: 0}},
			Distances: []float64{0.2},
		},
		links: map[int]string{1: "https://example.com/mcp/1"},
	}
	res, err := NewSearch(store).Execute(context.Background(), map[string]any{"query": "what is MCP"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Text, "[MCP Course - Lesson 1]\n") {
		t.Fatalf("text = %q", res.Text)
	}
	if len(res.Sources) != 1 {
		t.Fatalf("sources = %+v", res.Sources)
	}
	if res.Sources[0].Text != "MCP Course - Lesson 1" || res.Sources[0].URL != "https://example.com/mcp/1" {
		t.Fatalf("source = %+v", res.Sources[0])
	}
}

func TestSearchHeaderWithoutLesson(t *testing.T) {
	store := &fakeStore{
		results: vectorstore.SearchResults{
			Documents: []string{"Intro text."},
			Metadata:  []vectorstore.ChunkMeta{{CourseTitle: "Some Course"}},
			Distances: []float64{0.1},
		},
	}
	res, err := NewSearch(store).Execute(context.Background(), map[string]any{"query": "intro"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Text, "[Some Course]\n") {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Sources[0].URL != "" {
		t.Fatalf("expected empty url, got %q", res.Sources[0].URL)
	}
}

func TestSearchEmptyNoFilters(t *testing.T) {
	store := &fakeStore{}
	res, err := NewSearch(store).Execute(context.Background(), map[string]any{"query": "nothing"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "No relevant content found." {
		t.Fatalf("text = %q", res.Text)
	}
	if len(res.Sources) != 0 {
		t.Fatalf("empty search produced sources: %+v", res.Sources)
	}
}

func TestSearchEmptyWithFilters(t *testing.T) {
	store := &fakeStore{}
	res, err := NewSearch(store).Execute(context.Background(), map[string]any{
		"query":         "nothing",
		"course_name":   "MCP",
		"lesson_number": 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "No relevant content found in course 'MCP' in lesson 3." {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestSearchPassesFilters(t *testing.T) {
	store := &fakeStore{}
	_, err := NewSearch(store).Execute(context.Background(), map[string]any{
		"query":         "topic",
		"course_name":   "Advanced",
		"lesson_number": 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if store.lastArgs.query != "topic" || store.lastArgs.courseName != "Advanced" {
		t.Fatalf("args = %+v", store.lastArgs)
	}
	if store.lastArgs.lesson == nil || *store.lastArgs.lesson != 2 {
		t.Fatalf("lesson arg = %v", store.lastArgs.lesson)
	}
}

func TestSearchStoreError(t *testing.T) {
	store := &fakeStore{
		results: vectorstore.SearchResults{Err: "No course found matching 'Ghost'"},
	}
	res, err := NewSearch(store).Execute(context.Background(), map[string]any{
		"query":       "anything",
		"course_name": "Ghost",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "No course found matching 'Ghost'" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestOutlineComplete(t *testing.T) {
	store := &fakeStore{
		outline: &vectorstore.CourseOutline{
			Title:      "Complete Course",
			Link:       "https://example.com/complete",
			Instructor: "Dr. Complete",
			Lessons: []vectorstore.LessonSummary{
				{Number: 0, Title: "Lesson Zero"},
				{Number: 1, Title: "Lesson One"},
				{Number: 2, Title: "Lesson Two"},
			},
		},
	}
	res, err := NewOutline(store).Execute(context.Background(), map[string]any{"course_name": "Complete"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Course: Complete Course",
		"Course Link: https://example.com/complete",
		"Instructor: Dr. Complete",
		"3 total",
		"Lesson 0: Lesson Zero",
		"Lesson 2: Lesson Two",
	} {
		if !strings.Contains(res.Text, want) {
			t.Fatalf("output missing %q:\n%s", want, res.Text)
		}
	}
}

func TestOutlineNoLessons(t *testing.T) {
	store := &fakeStore{
		outline: &vectorstore.CourseOutline{Title: "Bare Course"},
	}
	res, err := NewOutline(store).Execute(context.Background(), map[string]any{"course_name": "Bare"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, "No lessons found") {
		t.Fatalf("output = %q", res.Text)
	}
}

func TestOutlineUnknownCourse(t *testing.T) {
	store := &fakeStore{}
	res, err := NewOutline(store).Execute(context.Background(), map[string]any{"course_name": "Ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "No course found matching 'Ghost'" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestDeclarations(t *testing.T) {
	store := &fakeStore{}
	decl := NewSearch(store).Declaration()
	if decl.Name != SearchToolName {
		t.Fatalf("name = %q", decl.Name)
	}
	props, ok := decl.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatal("missing properties")
	}
	for _, p := range []string{"query", "course_name", "lesson_number"} {
		if _, ok := props[p]; !ok {
			t.Fatalf("missing property %q", p)
		}
	}
	required, ok := decl.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "query" {
		t.Fatalf("required = %v", decl.Parameters["required"])
	}

	odecl := NewOutline(store).Declaration()
	if odecl.Name != OutlineToolName {
		t.Fatalf("name = %q", odecl.Name)
	}
}
