// Package generator runs the bounded tool-calling answer loop: one model
// call, then up to a fixed number of tool rounds, then a forced text-only
// wrap-up when the round budget runs out.
package generator

import (
	"context"
	"fmt"

	"github.com/quillback/studium/kernel/model"
)

// DefaultMaxToolRounds bounds sequential tool rounds per query.
const DefaultMaxToolRounds = 2

const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for course information.

Available Tools:
1. **get_course_outline**: Get complete course structure including course title, course link, instructor, and ALL lessons (with lesson numbers and titles)
2. **search_course_content**: Search for specific content within course materials

Tool Selection - CRITICAL:
- Use **get_course_outline** when the question asks about:
  - "outline", "structure", "syllabus", "overview" of a course
  - "what does the course cover", "what's in the course"
  - "list of lessons", "course lessons", "course contents"
  - Any request for high-level course information or lesson titles

- Use **search_course_content** ONLY when the question asks about:
  - Specific lesson content or details ("what is covered IN lesson 5")
  - Technical concepts or definitions
  - Specific topics or examples from the course material

Tool Usage Guidelines:
- **Up to 2 sequential tool call rounds**: You can use tools, analyze results, and make additional tool calls if needed
- Sequential Tool Usage:
  - After receiving tool results, you can make additional tool calls if:
    - Initial results were insufficient or need clarification
    - You need information from multiple sources
    - You need to search different courses or lessons
  - Always synthesize all tool results into your final response
- When using get_course_outline:
  - Always include the course title, course link, instructor, and complete lesson list in your response
  - List ALL lessons with their numbers and titles
- When using search_course_content:
  - Synthesize search results into accurate, fact-based responses
- If tool yields no results, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without using tools
- **Course outline/structure questions**: Use get_course_outline and present all lessons
- **Course-specific content questions**: Use search_course_content
- **No meta-commentary**:
 - Provide direct answers only - no reasoning process, tool explanations, or question-type analysis
 - Do not mention "based on the tool results" or similar phrases

All responses must be:
1. **Brief, Concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// ToolExecutor runs one tool call and returns result text for the model.
// It must not fail: execution problems come back as text.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) string
}

// Config controls loop behavior.
type Config struct {
	// MaxToolRounds is the tool round budget per query. Zero means the
	// default; negative disables tool rounds entirely.
	MaxToolRounds int
}

// Generator owns the answer loop for one model.
type Generator struct {
	llm       model.LLM
	maxRounds int
}

// New builds a generator over the given model.
func New(llm model.LLM, cfg Config) (*Generator, error) {
	if llm == nil {
		return nil, fmt.Errorf("generator: llm is nil")
	}
	rounds := cfg.MaxToolRounds
	if rounds == 0 {
		rounds = DefaultMaxToolRounds
	}
	if rounds < 0 {
		rounds = 0
	}
	return &Generator{llm: llm, maxRounds: rounds}, nil
}

// Answer runs one query to a final text answer. history, tools and exec
// are all optional; without exec, tool calls are never executed and the
// first response text is returned as-is. Model errors propagate unchanged.
func (g *Generator) Answer(ctx context.Context, query, history string, tools []model.ToolDefinition, exec ToolExecutor) (string, error) {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}
	messages := []model.Message{
		{Role: model.RoleSystem, Text: system},
		{Role: model.RoleUser, Text: query},
	}

	resp, err := g.llm.Generate(ctx, &model.Request{Messages: messages, Tools: tools})
	if err != nil {
		return "", err
	}
	if !resp.Message.HasToolCalls() || exec == nil {
		return resp.Message.Text, nil
	}

	for round := 0; round < g.maxRounds; round++ {
		if !resp.Message.HasToolCalls() {
			return resp.Message.Text, nil
		}
		messages = appendToolRound(ctx, messages, resp.Message, exec)
		resp, err = g.llm.Generate(ctx, &model.Request{Messages: messages, Tools: tools})
		if err != nil {
			return "", err
		}
	}

	// Round budget spent. If the model still wants tools, run them once
	// more and force a text answer by withholding tool declarations.
	if resp.Message.HasToolCalls() {
		messages = appendToolRound(ctx, messages, resp.Message, exec)
		resp, err = g.llm.Generate(ctx, &model.Request{Messages: messages})
		if err != nil {
			return "", err
		}
	}
	return resp.Message.Text, nil
}

// appendToolRound records the assistant's tool-use turn, executes every
// call in order, and appends all results as one combined tool message.
func appendToolRound(ctx context.Context, messages []model.Message, assistant model.Message, exec ToolExecutor) []model.Message {
	messages = append(messages, assistant)
	responses := make([]model.ToolResponse, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		text := exec.Execute(ctx, call.Name, call.Args)
		responses = append(responses, model.ToolResponse{
			ID:      call.ID,
			Name:    call.Name,
			Content: text,
		})
	}
	return append(messages, model.Message{Role: model.RoleTool, ToolResponses: responses})
}
