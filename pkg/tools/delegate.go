package tools

import (
	"context"
	"sync/atomic"
)

// MaxDelegations caps the number of sub-agent runs per dispatch, shared
// across all delegating agents.
const MaxDelegations = 5

// DelegationCounter tracks sub-agent runs across one dispatch. One counter is
// shared by every delegate tool the dispatch hands out. The zero value uses
// the default cap.
type DelegationCounter struct {
	limit int32
	n     atomic.Int32
}

// NewDelegationCounter builds a counter with the given cap. A non-positive
// limit falls back to the default.
func NewDelegationCounter(limit int) *DelegationCounter {
	if limit <= 0 {
		limit = MaxDelegations
	}
	return &DelegationCounter{limit: int32(limit)}
}

// Limit returns the counter's cap.
func (c *DelegationCounter) Limit() int {
	if c.limit <= 0 {
		return MaxDelegations
	}
	return int(c.limit)
}

// TryAcquire consumes one delegation slot. It returns false, without
// consuming, when the cap is already reached.
func (c *DelegationCounter) TryAcquire() bool {
	limit := int32(c.Limit())
	for {
		cur := c.n.Load()
		if cur >= limit {
			return false
		}
		if c.n.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Count returns the number of delegations consumed so far.
func (c *DelegationCounter) Count() int {
	return int(c.n.Load())
}

// SubAgentRunner executes a sub-agent task and returns its final answer.
// Provided by the orchestrator so this package stays free of agent wiring.
type SubAgentRunner func(ctx context.Context, agentName, task string) (string, error)

// DelegateTool lets an agent hand a sub-task to another specialized agent.
//
// Safety guards:
//   - depth >= 1 refuses (no recursive delegation)
//   - the shared counter caps total sub-agent runs per dispatch
//   - sub-agents never receive a delegate tool
type DelegateTool struct {
	Run     SubAgentRunner
	Depth   int
	Counter *DelegationCounter
	Agents  []string
}

func (t *DelegateTool) Name() string { return "delegate_to_agent" }

func (t *DelegateTool) Description() string {
	return "Delegate a sub-task to another specialized agent. " +
		"Use when you need data or analysis from another agent's expertise. " +
		"Scout finds jobs, Match analyzes compatibility, " +
		"Forge writes materials, Coach prepares interviews."
}

func (t *DelegateTool) Parameters() map[string]any {
	agents := t.Agents
	if len(agents) == 0 {
		agents = []string{"scout", "match", "forge", "coach"}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"enum":        agents,
				"description": "Which agent to delegate to",
			},
			"task_description": map[string]any{
				"type":        "string",
				"description": "What you need the other agent to do",
			},
		},
		"required": []string{"agent_name", "task_description"},
	}
}

func (t *DelegateTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	agentName := argString(args, "agent_name", "")
	task := argString(args, "task_description", "")
	if agentName == "" || task == "" {
		return Fail("agent_name and task_description are required")
	}

	if t.Depth >= 1 {
		return Fail("Cannot delegate from a sub-agent (max depth 1)")
	}
	if t.Counter == nil {
		return Fail("Delegation limit reached (max %d sub-agent runs per dispatch)", MaxDelegations)
	}
	if !t.Counter.TryAcquire() {
		return Fail("Delegation limit reached (max %d sub-agent runs per dispatch)", t.Counter.Limit())
	}

	output, err := t.Run(ctx, agentName, task)
	if err != nil {
		return Fail("Delegation to %s failed: %s", agentName, truncate(err.Error(), 500))
	}

	return Ok(map[string]any{
		"agent":  agentName,
		"output": truncate(output, 3000),
	})
}
