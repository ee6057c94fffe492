package document

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/quillback/studium/kernel/chunker"
)

const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

var lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Parser turns raw course scripts into a Course plus content chunks.
type Parser struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewParser returns a parser with the given chunking bounds. Non-positive
// values fall back to defaults.
func NewParser(chunkSize, chunkOverlap int) *Parser {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 {
		chunkOverlap = 100
	}
	return &Parser{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// ParseFile reads and parses one course document. Invalid UTF-8 bytes are
// dropped rather than failing the read. The file name (without extension)
// is the fallback course title when the metadata header is absent.
func (p *Parser) ParseFile(path string) (Course, []Chunk, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Course{}, nil, fmt.Errorf("document: read %s: %w", path, err)
	}
	base := filepath.Base(path)
	fallback := strings.TrimSuffix(base, filepath.Ext(base))
	course, chunks := p.parse(strings.ToValidUTF8(string(raw), ""), fallback)
	return course, chunks, nil
}

// Parse parses a raw course script. Malformed structure never errors; the
// parser extracts what it can and chunks the rest as plain content.
func (p *Parser) Parse(raw string) (Course, []Chunk) {
	return p.parse(raw, "")
}

func (p *Parser) parse(raw, fallbackTitle string) (Course, []Chunk) {
	lines := strings.Split(raw, "\n")
	course, bodyStart := parseHeader(lines, fallbackTitle)

	var chunks []Chunk
	chunkIndex := 0

	flush := func(body []string, lessonNumber *int) {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text == "" {
			return
		}
		pieces := chunker.Chunk(text, p.ChunkSize, p.ChunkOverlap)
		for i, piece := range pieces {
			if i == 0 {
				piece = contextPrefix(course.Title, lessonNumber) + piece
			}
			chunks = append(chunks, Chunk{
				Content:      piece,
				CourseTitle:  course.Title,
				LessonNumber: lessonNumber,
				ChunkIndex:   chunkIndex,
			})
			chunkIndex++
		}
	}

	var body []string
	var currentLesson *int

	for i := bodyStart; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if m := lessonHeaderRe.FindStringSubmatch(trimmed); m != nil {
			flush(body, currentLesson)
			body = nil

			number, _ := strconv.Atoi(m[1])
			lesson := Lesson{Number: number, Title: strings.TrimSpace(m[2])}
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if strings.HasPrefix(next, lessonLinkPrefix) {
					lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, lessonLinkPrefix))
					i++
				}
			}
			course.Lessons = append(course.Lessons, lesson)
			currentLesson = &lesson.Number
			continue
		}
		body = append(body, line)
	}
	flush(body, currentLesson)

	return course, chunks
}

// parseHeader claims up to three labeled metadata lines from the top of the
// document. Claiming stops at the first non-empty line that matches no
// label, so lesson headers and body text stay untouched.
func parseHeader(lines []string, fallbackTitle string) (Course, int) {
	course := Course{}
	claimed := 0
	seen := 0
scan:
	for i := 0; i < len(lines) && seen < 3; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, titlePrefix) && course.Title == "":
			course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, titlePrefix))
		case strings.HasPrefix(trimmed, linkPrefix) && course.Link == "":
			course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, linkPrefix))
		case strings.HasPrefix(trimmed, instructorPrefix) && course.Instructor == "":
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, instructorPrefix))
		default:
			// not a header line, leave it for the body
			break scan
		}
		seen++
		claimed = i + 1
	}
	if course.Title == "" {
		if fallbackTitle != "" {
			course.Title = fallbackTitle
		} else {
			course.Title = firstNonEmpty(lines[claimed:])
		}
	}
	return course, claimed
}

func firstNonEmpty(lines []string) string {
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			return t
		}
	}
	return "Unknown Course"
}

// contextPrefix labels the first chunk of each section so retrieval hits
// stay attributable without their surrounding document.
func contextPrefix(courseTitle string, lessonNumber *int) string {
	if lessonNumber != nil {
		return fmt.Sprintf("Course %s Lesson %d content: ", courseTitle, *lessonNumber)
	}
	return fmt.Sprintf("Course %s content: ", courseTitle)
}
