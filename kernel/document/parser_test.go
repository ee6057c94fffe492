package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `Course Title: Building Things
Course Link: https://example.com/course
Course Instructor: Dr. Smith

Lesson 0: Introduction
Lesson Link: https://example.com/lesson0
Welcome to the course. This lesson introduces the main ideas. We cover goals and structure.

Lesson 1: Fundamentals
Lesson Link: https://example.com/lesson1
This lesson covers the fundamentals. There is a lot of ground here. Each concept builds on the last.
`

func newTestParser() *Parser {
	return NewParser(800, 100)
}

func TestParseMetadataHeader(t *testing.T) {
	course, _ := newTestParser().Parse(sampleDoc)
	if course.Title != "Building Things" {
		t.Fatalf("title = %q", course.Title)
	}
	if course.Link != "https://example.com/course" {
		t.Fatalf("link = %q", course.Link)
	}
	if course.Instructor != "Dr. Smith" {
		t.Fatalf("instructor = %q", course.Instructor)
	}
}

func TestParseLessons(t *testing.T) {
	course, _ := newTestParser().Parse(sampleDoc)
	if len(course.Lessons) != 2 {
		t.Fatalf("got %d lessons", len(course.Lessons))
	}
	if course.Lessons[0].Number != 0 || course.Lessons[0].Title != "Introduction" {
		t.Fatalf("lesson 0 = %+v", course.Lessons[0])
	}
	if course.Lessons[0].Link != "https://example.com/lesson0" {
		t.Fatalf("lesson 0 link = %q", course.Lessons[0].Link)
	}
	if course.Lessons[1].Number != 1 || course.Lessons[1].Title != "Fundamentals" {
		t.Fatalf("lesson 1 = %+v", course.Lessons[1])
	}
}

func TestParseChunkAttribution(t *testing.T) {
	course, chunks := newTestParser().Parse(sampleDoc)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, c := range chunks {
		if c.CourseTitle != course.Title {
			t.Fatalf("chunk %d course title = %q", i, c.CourseTitle)
		}
		if c.ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.LessonNumber == nil {
			t.Fatalf("chunk %d has no lesson number", i)
		}
	}
	if !strings.HasPrefix(chunks[0].Content, "Course Building Things Lesson 0 content: ") {
		t.Fatalf("first chunk = %q", chunks[0].Content)
	}
}

func TestParseLessonBoundary(t *testing.T) {
	_, chunks := newTestParser().Parse(sampleDoc)
	sawLesson1 := false
	for _, c := range chunks {
		if c.LessonNumber != nil && *c.LessonNumber == 1 {
			sawLesson1 = true
			if strings.Contains(c.Content, "introduces the main ideas") {
				t.Fatalf("lesson 1 chunk contains lesson 0 text: %q", c.Content)
			}
		}
	}
	if !sawLesson1 {
		t.Fatal("no chunks for lesson 1")
	}
}

func TestParseNoLessons(t *testing.T) {
	doc := `Course Title: Flat Course
Course Link: https://example.com/flat
Course Instructor: Someone

This course has no lesson markers. It is just one long body of text. All of it is content.
`
	course, chunks := newTestParser().Parse(doc)
	if course.Title != "Flat Course" {
		t.Fatalf("title = %q", course.Title)
	}
	if len(course.Lessons) != 0 {
		t.Fatalf("expected no lessons, got %d", len(course.Lessons))
	}
	if len(chunks) == 0 {
		t.Fatal("expected content chunks")
	}
	for i, c := range chunks {
		if c.LessonNumber != nil {
			t.Fatalf("chunk %d has lesson number %d", i, *c.LessonNumber)
		}
	}
	if !strings.HasPrefix(chunks[0].Content, "Course Flat Course content: ") {
		t.Fatalf("first chunk = %q", chunks[0].Content)
	}
}

func TestParsePartialHeader(t *testing.T) {
	doc := `Course Title: Only Title Here

Lesson 0: Start
Some lesson content goes here. It should still parse.
`
	course, chunks := newTestParser().Parse(doc)
	if course.Title != "Only Title Here" {
		t.Fatalf("title = %q", course.Title)
	}
	if course.Link != "" || course.Instructor != "" {
		t.Fatalf("expected empty link/instructor, got %q / %q", course.Link, course.Instructor)
	}
	if len(course.Lessons) != 1 || course.Lessons[0].Title != "Start" {
		t.Fatalf("lessons = %+v", course.Lessons)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
}

func TestParseMalformedHeader(t *testing.T) {
	doc := "Some random text.\nWith no course structure.\nJust plain content that keeps going."
	course, chunks := newTestParser().Parse(doc)
	if course.Title == "" {
		t.Fatal("expected a derived title")
	}
	if len(chunks) == 0 {
		t.Fatal("expected best-effort chunks")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	course, chunks := newTestParser().Parse("")
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks from empty input", len(chunks))
	}
	if len(course.Lessons) != 0 {
		t.Fatalf("got lessons from empty input: %+v", course.Lessons)
	}
}

func TestParseLessonWithoutLink(t *testing.T) {
	doc := `Course Title: Linkless
Lesson 0: Plain
Body text for the plain lesson. It has enough words to chunk.
`
	course, _ := newTestParser().Parse(doc)
	if len(course.Lessons) != 1 {
		t.Fatalf("lessons = %+v", course.Lessons)
	}
	if course.Lessons[0].Link != "" {
		t.Fatalf("expected empty lesson link, got %q", course.Lessons[0].Link)
	}
}

func TestParseFileFallbackTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orphan_course.txt")
	if err := os.WriteFile(path, []byte("Just content without any header lines at all."), 0o644); err != nil {
		t.Fatal(err)
	}
	course, chunks, err := newTestParser().ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if course.Title != "orphan_course" {
		t.Fatalf("title = %q", course.Title)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
}

func TestParseFileMissing(t *testing.T) {
	_, _, err := newTestParser().ParseFile(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
