// Package document models course documents and turns raw course scripts
// into retrieval-ready chunks.
package document

// Lesson is a single numbered lesson inside a course.
type Lesson struct {
	Number int
	Title  string
	// Link is the lesson URL, empty when the document has none.
	Link string
}

// Course is the parsed identity of one course document.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// Chunk is one retrieval unit of course content. ChunkIndex runs over the
// whole document, not per lesson. LessonNumber is nil for text outside any
// lesson section.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}
