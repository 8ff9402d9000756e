// Package agent implements the specialized career agents and the ReAct
// runtime that drives them: a reason-act-observe loop with single-tool
// steps, bounded retries, step persistence and cooperative cancellation.
package agent

import (
	"strings"

	"github.com/kazi-ai/kazi/pkg/tools"
)

// Agent is one specialized agent: an identity, a system prompt and the tools
// it is allowed to call. Agents are cheap values; the Runner holds the
// behavior.
type Agent struct {
	Name         string
	Role         string
	SystemPrompt string
	Registry     *tools.Registry
}

// PromptWithTools renders the system prompt with the tool list substituted
// for the {tool_descriptions} placeholder.
func (a *Agent) PromptWithTools() string {
	var lines []string
	for _, name := range a.Registry.Names() {
		t, _ := a.Registry.Get(name)
		lines = append(lines, "- **"+t.Name()+"**: "+t.Description())
	}
	return strings.ReplaceAll(a.SystemPrompt, "{tool_descriptions}", strings.Join(lines, "\n"))
}
