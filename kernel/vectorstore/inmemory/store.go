// Package inmemory provides a brute-force vector store backed by term
// frequency vectors and cosine ranking. It exists so the system runs
// without an external vector database; swap it out through the
// vectorstore.Store interface for anything stronger.
package inmemory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/quillback/studium/kernel/document"
	"github.com/quillback/studium/kernel/vectorstore"
)

// resolveThreshold is the minimum title similarity accepted when mapping a
// fuzzy course name to a catalog entry.
const resolveThreshold = 0.3

const defaultMaxResults = 5

type docEntry struct {
	text string
	meta vectorstore.ChunkMeta
	vec  map[string]float64
}

type courseEntry struct {
	course document.Course
	vec    map[string]float64
}

// Store is an in-memory vectorstore.Store implementation.
type Store struct {
	mu         sync.RWMutex
	maxResults int
	order      []string
	courses    map[string]courseEntry
	docs       []docEntry
}

// New returns an empty store. maxResults bounds Search when the caller
// passes no limit; non-positive values use the default.
func New(maxResults int) *Store {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Store{
		maxResults: maxResults,
		courses:    map[string]courseEntry{},
	}
}

func (s *Store) AddCourseMetadata(course document.Course) error {
	title := strings.TrimSpace(course.Title)
	if title == "" {
		return fmt.Errorf("inmemory: course title is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.courses[title]; !exists {
		s.order = append(s.order, title)
	}
	s.courses[title] = courseEntry{course: course, vec: titleVector(title)}
	return nil
}

func (s *Store) AddCourseContent(chunks []document.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		s.docs = append(s.docs, docEntry{
			text: c.Content,
			meta: vectorstore.ChunkMeta{
				CourseTitle:  c.CourseTitle,
				LessonNumber: c.LessonNumber,
				ChunkIndex:   c.ChunkIndex,
			},
			vec: termVector(c.Content),
		})
	}
	return nil
}

func (s *Store) Search(query, courseName string, lessonNumber *int, limit int) vectorstore.SearchResults {
	s.mu.RLock()
	defer s.mu.RUnlock()

	courseTitle := ""
	if strings.TrimSpace(courseName) != "" {
		title, ok := s.resolveLocked(courseName)
		if !ok {
			return vectorstore.SearchResults{
				Err: fmt.Sprintf("No course found matching '%s'", courseName),
			}
		}
		courseTitle = title
	}

	if limit <= 0 {
		limit = s.maxResults
	}
	queryVec := termVector(query)

	type scored struct {
		entry docEntry
		sim   float64
	}
	candidates := make([]scored, 0, len(s.docs))
	for _, d := range s.docs {
		if courseTitle != "" && d.meta.CourseTitle != courseTitle {
			continue
		}
		if lessonNumber != nil {
			if d.meta.LessonNumber == nil || *d.meta.LessonNumber != *lessonNumber {
				continue
			}
		}
		sim := cosine(queryVec, d.vec)
		if sim <= 0 {
			continue
		}
		candidates = append(candidates, scored{entry: d, sim: sim})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := vectorstore.SearchResults{}
	for _, c := range candidates {
		out.Documents = append(out.Documents, c.entry.text)
		out.Metadata = append(out.Metadata, c.entry.meta)
		out.Distances = append(out.Distances, 1-c.sim)
	}
	return out
}

func (s *Store) Outline(courseName string) (*vectorstore.CourseOutline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	title, ok := s.resolveLocked(courseName)
	if !ok {
		return nil, false
	}
	entry := s.courses[title]
	outline := &vectorstore.CourseOutline{
		Title:      entry.course.Title,
		Link:       entry.course.Link,
		Instructor: entry.course.Instructor,
	}
	for _, l := range entry.course.Lessons {
		outline.Lessons = append(outline.Lessons, vectorstore.LessonSummary{
			Number: l.Number,
			Title:  l.Title,
			Link:   l.Link,
		})
	}
	return outline, true
}

func (s *Store) ResolveCourseName(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(name)
}

func (s *Store) LessonLink(courseTitle string, lessonNumber int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.courses[courseTitle]
	if !ok {
		return "", false
	}
	for _, l := range entry.course.Lessons {
		if l.Number == lessonNumber {
			return l.Link, l.Link != ""
		}
	}
	return "", false
}

func (s *Store) CourseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) CourseTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.courses = map[string]courseEntry{}
	s.docs = nil
	return nil
}

// resolveLocked maps a fuzzy course name to an exact title. Exact and
// substring matches win outright; otherwise the best cosine over title
// term vectors is accepted above resolveThreshold.
func (s *Store) resolveLocked(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}
	if _, ok := s.courses[strings.TrimSpace(name)]; ok {
		return strings.TrimSpace(name), true
	}
	for _, title := range s.order {
		if strings.Contains(strings.ToLower(title), needle) {
			return title, true
		}
	}
	nameVec := titleVector(name)
	best := ""
	bestSim := 0.0
	for _, title := range s.order {
		sim := cosine(nameVec, s.courses[title].vec)
		if sim > bestSim {
			best, bestSim = title, sim
		}
	}
	if bestSim >= resolveThreshold {
		return best, true
	}
	return "", false
}

// titleStopwords are tokens too common across course titles to carry any
// signal when resolving a fuzzy name.
var titleStopwords = map[string]struct{}{
	"course":  {},
	"courses": {},
	"the":     {},
	"a":       {},
	"an":      {},
	"to":      {},
	"of":      {},
	"and":     {},
	"in":      {},
	"on":      {},
	"for":     {},
	"with":    {},
}

// termVector builds an L2-normalized term frequency vector.
func termVector(text string) map[string]float64 {
	return buildVector(tokenize(text))
}

// titleVector is termVector with title stopwords removed, used only for
// course name resolution.
func titleVector(text string) map[string]float64 {
	tokens := tokenize(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := titleStopwords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	return buildVector(kept)
}

func buildVector(tokens []string) map[string]float64 {
	vec := map[string]float64{}
	for _, tok := range tokens {
		vec[tok]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for k, v := range vec {
		vec[k] = v / norm
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, v := range a {
		dot += v * b[k]
	}
	return dot
}
