package agent

import (
	"fmt"
	"strings"
)

// ToolExecution records a single tool call within the ReAct loop.
type ToolExecution struct {
	ToolName  string
	Arguments map[string]any
	Result    map[string]any
}

// Step is one iteration of the ReAct loop: thought, action, observation.
type Step struct {
	StepNumber  int
	Thought     string
	ToolCall    *ToolExecution
	Observation string
}

// Memory maintains context across one agent run. It stores the full history
// of thoughts, tool calls and observations so the agent can reference earlier
// results in later steps, plus derived facts keyed by name.
type Memory struct {
	steps []Step
	facts map[string]any
}

func NewMemory() *Memory {
	return &Memory{facts: make(map[string]any)}
}

func (m *Memory) Steps() []Step { return m.steps }

func (m *Memory) StepCount() int { return len(m.steps) }

func (m *Memory) AddStep(s Step) {
	m.steps = append(m.steps, s)
}

// StoreFact keeps a derived fact the agent discovered during execution. Facts
// persist across steps.
func (m *Memory) StoreFact(key string, value any) {
	m.facts[key] = value
}

func (m *Memory) Fact(key string) (any, bool) {
	v, ok := m.facts[key]
	return v, ok
}

func (m *Memory) Facts() map[string]any {
	out := make(map[string]any, len(m.facts))
	for k, v := range m.facts {
		out[k] = v
	}
	return out
}

// HistorySummary renders all steps as text. Used as the agent's output when
// it exhausts its step budget without a final answer.
func (m *Memory) HistorySummary() string {
	if len(m.steps) == 0 {
		return "No previous steps."
	}

	var b strings.Builder
	for _, step := range m.steps {
		fmt.Fprintf(&b, "Step %d:\n", step.StepNumber)
		fmt.Fprintf(&b, "  Thought: %s\n", step.Thought)
		if step.ToolCall != nil {
			fmt.Fprintf(&b, "  Action: %s(%v)\n", step.ToolCall.ToolName, step.ToolCall.Arguments)
			fmt.Fprintf(&b, "  Observation: %s\n", truncateRunes(step.Observation, 500))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clear resets memory for a new task.
func (m *Memory) Clear() {
	m.steps = nil
	m.facts = make(map[string]any)
}
