package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quillback/studium/kernel/model"
)

type openAICompatLLM struct {
	name         string
	provider     string
	baseURL      string
	token        string
	client       *http.Client
	maxOutputTok int
	temperature  float64
}

func newOpenAICompat(cfg Config, token string) *openAICompatLLM {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTok := cfg.MaxOutputTok
	if maxTok <= 0 {
		maxTok = 800
	}
	return &openAICompatLLM{
		name:         cfg.Model,
		provider:     cfg.Provider,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        token,
		client:       &http.Client{Timeout: timeout},
		maxOutputTok: maxTok,
		temperature:  cfg.Temperature,
	}
}

func (l *openAICompatLLM) Name() string {
	return l.name
}

func (l *openAICompatLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("model: request is nil")
	}
	payload := openAICompatRequest{
		Model:       l.name,
		Messages:    fromKernelMessages(req.Messages),
		MaxTokens:   l.maxOutputTok,
		Temperature: l.temperature,
	}
	if len(req.Tools) > 0 {
		payload.Tools = fromKernelTools(req.Tools)
		payload.ToolChoice = "auto"
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, statusError(l.provider, resp)
	}

	var out openAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("model: empty choices")
	}
	msg, err := toKernelMessage(out.Choices[0].Message)
	if err != nil {
		return nil, err
	}
	return &model.Response{
		Message:  msg,
		Model:    out.Model,
		Provider: l.provider,
		Usage: model.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		},
	}, nil
}

type openAICompatRequest struct {
	Model       string               `json:"model"`
	Messages    []openAICompatReqMsg `json:"messages"`
	Tools       []openAICompatTool   `json:"tools,omitempty"`
	ToolChoice  string               `json:"tool_choice,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature"`
}

type openAICompatMsg struct {
	Role       string                 `json:"role"`
	Content    any                    `json:"content,omitempty"`
	ToolCallID string                 `json:"tool_call_id,omitempty"`
	ToolCalls  []openAICompatToolCall `json:"tool_calls,omitempty"`
}

type openAICompatReqMsg struct {
	Role       string                 `json:"role"`
	Content    any                    `json:"content,omitempty"`
	ToolCallID string                 `json:"tool_call_id,omitempty"`
	ToolCalls  []openAICompatToolCall `json:"tool_calls,omitempty"`
}

type openAICompatTool struct {
	Type     string                   `json:"type"`
	Function openAICompatFunctionDecl `json:"function"`
}

type openAICompatFunctionDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type openAICompatToolCall struct {
	ID       string                   `json:"id"`
	Type     string                   `json:"type,omitempty"`
	Function openAICompatCallFunction `json:"function"`
}

type openAICompatCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAICompatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openAICompatMsg `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// fromKernelMessages flattens kernel messages for chat/completions. A
// RoleTool message expands into one "tool" message per result because the
// OpenAI dialect has no multi-result container.
func fromKernelMessages(messages []model.Message) []openAICompatReqMsg {
	out := make([]openAICompatReqMsg, 0, len(messages))
	for _, m := range messages {
		if m.Role == model.RoleTool {
			for _, tr := range m.ToolResponses {
				out = append(out, openAICompatReqMsg{
					Role:       string(model.RoleTool),
					ToolCallID: tr.ID,
					Content:    tr.Content,
				})
			}
			continue
		}
		out = append(out, fromKernelMessage(m))
	}
	return out
}

func fromKernelTools(tools []model.ToolDefinition) []openAICompatTool {
	out := make([]openAICompatTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openAICompatTool{
			Type: "function",
			Function: openAICompatFunctionDecl{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func fromKernelMessage(m model.Message) openAICompatReqMsg {
	if len(m.ToolCalls) > 0 {
		calls := make([]openAICompatToolCall, 0, len(m.ToolCalls))
		for _, c := range m.ToolCalls {
			raw, _ := json.Marshal(c.Args)
			calls = append(calls, openAICompatToolCall{
				ID:   c.ID,
				Type: "function",
				Function: openAICompatCallFunction{
					Name:      c.Name,
					Arguments: string(raw),
				},
			})
		}
		content := any(nil)
		if m.Text != "" {
			content = m.Text
		}
		return openAICompatReqMsg{
			Role:      string(m.Role),
			Content:   content,
			ToolCalls: calls,
		}
	}
	return openAICompatReqMsg{
		Role:    string(m.Role),
		Content: m.Text,
	}
}

func toKernelMessage(m openAICompatMsg) (model.Message, error) {
	out := model.Message{
		Role: model.Role(m.Role),
	}
	if text, ok := m.Content.(string); ok {
		out.Text = text
	}
	if len(m.ToolCalls) == 0 {
		return out, nil
	}
	for _, c := range m.ToolCalls {
		args := map[string]any{}
		if strings.TrimSpace(c.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(c.Function.Arguments), &args); err != nil {
				return model.Message{}, err
			}
		}
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			ID:   c.ID,
			Name: c.Function.Name,
			Args: args,
		})
	}
	return out, nil
}
