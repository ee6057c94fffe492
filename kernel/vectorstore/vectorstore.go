// Package vectorstore defines the retrieval backend contract used by the
// course tools and the ingestion pipeline.
package vectorstore

import "github.com/quillback/studium/kernel/document"

// ChunkMeta is the attribution carried with every stored chunk.
type ChunkMeta struct {
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// SearchResults is one retrieval response. Err distinguishes a backend or
// filter failure from an ordinary empty result set.
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMeta
	Distances []float64
	Err       string
}

// IsEmpty reports whether the search matched nothing.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// LessonSummary is one lesson row of a course outline.
type LessonSummary struct {
	Number int
	Title  string
	Link   string
}

// CourseOutline is the catalog view of one course.
type CourseOutline struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []LessonSummary
}

// Store is the retrieval backend. Implementations must be safe for
// concurrent use and must report failures through SearchResults.Err on the
// query path rather than panicking.
type Store interface {
	// AddCourseMetadata registers a course in the catalog, replacing any
	// previous entry with the same title.
	AddCourseMetadata(course document.Course) error
	// AddCourseContent indexes content chunks for retrieval.
	AddCourseContent(chunks []document.Chunk) error
	// Search retrieves up to limit chunks relevant to query, optionally
	// narrowed to a course (fuzzy name) and lesson number. A limit of zero
	// means the store default.
	Search(query, courseName string, lessonNumber *int, limit int) SearchResults
	// Outline returns the catalog entry for a course by fuzzy name.
	Outline(courseName string) (*CourseOutline, bool)
	// ResolveCourseName maps a partial or fuzzy name to an exact catalog
	// title.
	ResolveCourseName(name string) (string, bool)
	// LessonLink returns the link for one lesson of a course.
	LessonLink(courseTitle string, lessonNumber int) (string, bool)
	CourseCount() int
	CourseTitles() []string
	// Clear drops all catalog entries and indexed content.
	Clear() error
}
