// Package tool defines the executable tool contract and the registry that
// dispatches model tool calls and aggregates citation sources.
package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/quillback/studium/kernel/model"
)

// Source is one citation produced by a tool execution. URL may be empty.
type Source struct {
	Text string
	URL  string
}

// Result is a tool execution outcome: text for the model plus citations
// for the end user.
type Result struct {
	Text    string
	Sources []Source
}

// Tool is the executable tool contract.
type Tool interface {
	Name() string
	Description() string
	Declaration() model.ToolDefinition
	Execute(context.Context, map[string]any) (Result, error)
}

// Registry indexes tools by name and collects the sources produced by the
// executions of one query. Intended use is single-flight: run one query to
// completion, read LastSources, then ResetSources.
type Registry struct {
	mu       sync.Mutex
	order    []string
	tools    map[string]Tool
	sources  []Source
	truncate TruncationPolicy
}

// NewRegistry builds a registry from the given tools. Duplicate or empty
// tool names are an error.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:    map[string]Tool{},
		truncate: DefaultTruncationPolicy(),
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds one tool.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool: nil tool")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool: duplicate tool %q", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Definitions returns model-visible declarations in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	decls := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Declaration())
	}
	return decls
}

// Execute dispatches one tool call and returns result text for the model.
// Failures never propagate as errors here: an unknown name or a failing
// tool becomes result text so the model loop can continue.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) string {
	r.mu.Lock()
	t, ok := r.tools[name]
	policy := r.truncate
	r.mu.Unlock()
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}

	res, err := t.Execute(ctx, args)
	if err != nil {
		return err.Error()
	}

	text, _ := TruncateText(res.Text, policy)
	if len(res.Sources) > 0 {
		r.mu.Lock()
		r.sources = append(r.sources, res.Sources...)
		r.mu.Unlock()
	}
	return text
}

// LastSources returns a copy of the sources collected since the last reset.
func (r *Registry) LastSources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sources) == 0 {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ResetSources clears collected sources.
func (r *Registry) ResetSources() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = nil
}
