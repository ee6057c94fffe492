package courses

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillback/studium/kernel/model"
	"github.com/quillback/studium/kernel/tool"
	"github.com/quillback/studium/kernel/vectorstore"
)

// OutlineToolName is the model-visible name of the outline tool.
const OutlineToolName = "get_course_outline"

type outlineArgs struct {
	CourseName string `json:"course_name" desc:"Course title to get the outline for (partial matches work)"`
}

// OutlineTool returns the structure of one course: identity plus the full
// lesson list.
type OutlineTool struct {
	store vectorstore.Store
}

// NewOutline returns an outline tool over the given store.
func NewOutline(store vectorstore.Store) *OutlineTool {
	return &OutlineTool{store: store}
}

func (t *OutlineTool) Name() string { return OutlineToolName }

func (t *OutlineTool) Description() string {
	return "Get the complete outline of a course including title, link, and all lessons"
}

func (t *OutlineTool) Declaration() model.ToolDefinition {
	return model.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  tool.SchemaFor[outlineArgs](),
	}
}

func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	in, err := tool.DecodeArgs[outlineArgs](args)
	if err != nil {
		return tool.Result{}, fmt.Errorf("%s: %w", OutlineToolName, err)
	}

	outline, ok := t.store.Outline(in.CourseName)
	if !ok {
		return tool.Result{Text: fmt.Sprintf("No course found matching '%s'", in.CourseName)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", outline.Title)
	if outline.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.Link)
	}
	if outline.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", outline.Instructor)
	}
	b.WriteString("\n")
	if len(outline.Lessons) == 0 {
		b.WriteString("No lessons found")
	} else {
		fmt.Fprintf(&b, "Lessons (%d total):\n", len(outline.Lessons))
		for _, l := range outline.Lessons {
			fmt.Fprintf(&b, "Lesson %d: %s\n", l.Number, l.Title)
		}
	}

	return tool.Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}
