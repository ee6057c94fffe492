package model

import "context"

// Role identifies message author type.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolDefinition describes a callable tool for model planning.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a model-emitted tool invocation request.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResponse is a tool execution result returned to model context.
type ToolResponse struct {
	ID      string
	Name    string
	Content string
}

// Message is a single turn element in model context. A RoleTool message
// carries every result of one tool round so providers emit them back to
// the model as a single combined message.
type Message struct {
	Role          Role
	Text          string
	ToolCalls     []ToolCall
	ToolResponses []ToolResponse
}

// HasToolCalls reports whether the message requests tool execution.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Request is a provider-agnostic model request. Empty Tools means the
// provider must not offer tool use at all.
type Request struct {
	Messages []Message
	Tools    []ToolDefinition
}

// Usage reports model token usage (best-effort).
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a provider-agnostic model response.
type Response struct {
	Message  Message
	Usage    Usage
	Model    string
	Provider string
}

// LLM is the model abstraction used by the kernel.
type LLM interface {
	Name() string
	Generate(context.Context, *Request) (*Response, error)
}
