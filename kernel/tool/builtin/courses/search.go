// Package courses provides the course content tools exposed to the model:
// semantic content search and course outline lookup.
package courses

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillback/studium/kernel/model"
	"github.com/quillback/studium/kernel/tool"
	"github.com/quillback/studium/kernel/vectorstore"
)

// SearchToolName is the model-visible name of the content search tool.
const SearchToolName = "search_course_content"

type searchArgs struct {
	Query        string `json:"query" desc:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" desc:"Course title (partial matches work, e.g. 'MCP' or 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" desc:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// SearchTool retrieves course content chunks relevant to a query.
type SearchTool struct {
	store vectorstore.Store
}

// NewSearch returns a content search tool over the given store.
func NewSearch(store vectorstore.Store) *SearchTool {
	return &SearchTool{store: store}
}

func (t *SearchTool) Name() string { return SearchToolName }

func (t *SearchTool) Description() string {
	return "Search course materials with smart course name matching and lesson filtering"
}

func (t *SearchTool) Declaration() model.ToolDefinition {
	return model.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  tool.SchemaFor[searchArgs](),
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	in, err := tool.DecodeArgs[searchArgs](args)
	if err != nil {
		return tool.Result{}, fmt.Errorf("%s: %w", SearchToolName, err)
	}

	res := t.store.Search(in.Query, in.CourseName, in.LessonNumber, 0)
	if res.Err != "" {
		return tool.Result{Text: res.Err}, nil
	}
	if res.IsEmpty() {
		return tool.Result{Text: emptyMessage(in)}, nil
	}
	return t.format(res), nil
}

// emptyMessage names the active filters so the model can tell an empty
// result from a failed one.
func emptyMessage(in searchArgs) string {
	var filter strings.Builder
	if in.CourseName != "" {
		fmt.Fprintf(&filter, " in course '%s'", in.CourseName)
	}
	if in.LessonNumber != nil {
		fmt.Fprintf(&filter, " in lesson %d", *in.LessonNumber)
	}
	return fmt.Sprintf("No relevant content found%s.", filter.String())
}

// format renders hits as bracketed attribution headers over chunk text and
// collects one citation per hit.
func (t *SearchTool) format(res vectorstore.SearchResults) tool.Result {
	blocks := make([]string, 0, len(res.Documents))
	sources := make([]tool.Source, 0, len(res.Documents))

	for i, doc := range res.Documents {
		meta := res.Metadata[i]
		header := fmt.Sprintf("[%s]", meta.CourseTitle)
		label := meta.CourseTitle
		url := ""
		if meta.LessonNumber != nil {
			header = fmt.Sprintf("[%s - Lesson %d]", meta.CourseTitle, *meta.LessonNumber)
			label = fmt.Sprintf("%s - Lesson %d", meta.CourseTitle, *meta.LessonNumber)
			if link, ok := t.store.LessonLink(meta.CourseTitle, *meta.LessonNumber); ok {
				url = link
			}
		}
		blocks = append(blocks, header+"\n"+doc)
		sources = append(sources, tool.Source{Text: label, URL: url})
	}

	return tool.Result{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}
