// Package tools defines the tool contract agents call during ReAct steps and
// the registry that scopes which tools each agent sees.
package tools

import (
	"context"
	"fmt"

	"github.com/kazi-ai/kazi/pkg/llm"
)

// Tool is one callable capability. Execute never returns an error: failures
// are reported in-band as {"success": false, "error": ...} so the agent can
// reason about them and retry.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) map[string]any
}

// Result helpers. Every tool result carries a "success" key; a result without
// one is treated as success by the retry wrapper.

// Ok builds a success result from the given fields.
func Ok(fields map[string]any) map[string]any {
	out := map[string]any{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Fail builds a failure result with an error message.
func Fail(format string, args ...any) map[string]any {
	return map[string]any{
		"success": false,
		"error":   fmt.Sprintf(format, args...),
	}
}

// Failed reports whether a tool result is an explicit failure. Only a literal
// false under "success" counts; a missing key is success.
func Failed(result map[string]any) bool {
	v, ok := result["success"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && !b
}

// Registry holds the tools available to one agent, preserving registration
// order for spec listing. Re-registering a name replaces the earlier tool in
// place.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools in order.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Specs renders the registry as LLM tool specs, in registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}

// Without returns a copy of the registry with the named tools removed. Used to
// strip delegation from sub-agent registries.
func (r *Registry) Without(names ...string) *Registry {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Registry{tools: make(map[string]Tool)}
	for _, name := range r.order {
		if !drop[name] {
			out.Register(r.tools[name])
		}
	}
	return out
}
