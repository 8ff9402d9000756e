package tools

import (
	"context"
	"fmt"

	"github.com/kazi-ai/kazi/pkg/models"
)

// MemoryStore is the persistence surface the memory tools need. Implemented
// by the memory service; faked in tests.
type MemoryStore interface {
	SearchMemories(ctx context.Context, userID, query string, limit int) ([]models.Memory, error)
	ListMemories(ctx context.Context, userID, category string, limit int) ([]models.Memory, error)
	SaveMemory(ctx context.Context, userID, content, category string) (string, error)
}

// TraceReader lists past agent traces for a user.
type TraceReader interface {
	RecentTraces(ctx context.Context, userID string, limit int) ([]models.Trace, error)
}

var memoryCategories = map[string]bool{
	"fact": true, "preference": true, "goal": true, "outcome": true,
}

// RecallMemoryTool lets an agent search the user's episodic memory
// mid-execution.
type RecallMemoryTool struct {
	Store  MemoryStore
	UserID string
}

func (t *RecallMemoryTool) Name() string { return "recall_memory" }

func (t *RecallMemoryTool) Description() string {
	return "Search the user's memory for relevant past information. " +
		"Returns facts, preferences, goals, and outcomes from previous conversations. " +
		"Use this when you need context about the user's background, preferences, or past results."
}

func (t *RecallMemoryTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search term to find relevant memories (e.g. 'Python skills', 'target company', 'ATS score')",
			},
			"category": map[string]any{
				"type":        "string",
				"enum":        []string{"fact", "preference", "goal", "outcome"},
				"description": "Optional: filter by memory category",
			},
		},
		"required": []string{"query"},
	}
}

func (t *RecallMemoryTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	if t.UserID == "" {
		return Fail("No user context available")
	}
	query := argString(args, "query", "")
	category := argString(args, "category", "")

	var (
		memories []models.Memory
		err      error
	)
	if query != "" {
		memories, err = t.Store.SearchMemories(ctx, t.UserID, query, 10)
	} else {
		memories, err = t.Store.ListMemories(ctx, t.UserID, category, 10)
	}
	if err != nil {
		return Fail("memory lookup failed: %v", err)
	}

	results := make([]map[string]any, 0, len(memories))
	for _, mem := range memories {
		results = append(results, map[string]any{
			"content":    mem.Content,
			"category":   mem.Category,
			"created_at": mem.CreatedAt.Format("2006-01-02"),
		})
	}

	return Ok(map[string]any{
		"memories": results,
		"count":    len(results),
	})
}

// StoreMemoryTool lets an agent persist a new fact about the user.
type StoreMemoryTool struct {
	Store  MemoryStore
	UserID string
}

func (t *StoreMemoryTool) Name() string { return "store_memory" }

func (t *StoreMemoryTool) Description() string {
	return "Store an important fact or observation about the user for future reference. " +
		"Use this when you discover something worth remembering: skills, preferences, " +
		"job search results, ATS scores, interview outcomes, etc."
}

func (t *StoreMemoryTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The fact or observation to remember (be specific and concise)",
			},
			"category": map[string]any{
				"type":        "string",
				"enum":        []string{"fact", "preference", "goal", "outcome"},
				"description": "Category: fact (objective info), preference (user likes/dislikes), goal (career targets), outcome (results of actions)",
			},
		},
		"required": []string{"content", "category"},
	}
}

func (t *StoreMemoryTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	if t.UserID == "" {
		return Fail("No user context available")
	}
	content := argString(args, "content", "")
	if content == "" {
		return Fail("Content is required")
	}
	category := argString(args, "category", "fact")
	if !memoryCategories[category] {
		category = "fact"
	}

	memID, err := t.Store.SaveMemory(ctx, t.UserID, content, category)
	if err != nil {
		return Fail("failed to store memory: %v", err)
	}

	return Ok(map[string]any{
		"memory_id": memID,
		"message":   fmt.Sprintf("Stored %s: %s", category, truncate(content, 100)),
	})
}

// RecallTraceTool lets an agent review summaries of past agent runs, to build
// on earlier results instead of redoing work.
type RecallTraceTool struct {
	Traces TraceReader
	UserID string
}

func (t *RecallTraceTool) Name() string { return "recall_past_work" }

func (t *RecallTraceTool) Description() string {
	return "Review summaries of past agent runs for this user. " +
		"Shows what agents did previously, what tools were used, and outcomes. " +
		"Useful for avoiding redundant work or building on past results."
}

func (t *RecallTraceTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"enum":        []string{"scout", "match", "forge", "coach"},
				"description": "Optional: filter by agent type",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Number of past runs to retrieve (default 5, max 10)",
			},
		},
		"required": []string{},
	}
}

func (t *RecallTraceTool) Execute(ctx context.Context, args map[string]any) map[string]any {
	if t.UserID == "" {
		return Fail("No user context available")
	}
	agentName := argString(args, "agent_name", "")
	limit := argInt(args, "limit", 5)
	if limit > 10 {
		limit = 10
	}

	traces, err := t.Traces.RecentTraces(ctx, t.UserID, 20)
	if err != nil {
		return Fail("trace lookup failed: %v", err)
	}

	results := make([]map[string]any, 0, limit)
	for _, trace := range traces {
		if agentName != "" && trace.AgentName != agentName {
			continue
		}
		results = append(results, map[string]any{
			"agent":            trace.AgentName,
			"intent":           trace.Intent,
			"status":           trace.Status,
			"output_preview":   truncate(trace.Output, 500),
			"total_steps":      trace.TotalSteps,
			"total_tool_calls": trace.TotalToolCalls,
			"started_at":       trace.StartedAt.Format("2006-01-02 15:04"),
		})
		if len(results) >= limit {
			break
		}
	}

	return Ok(map[string]any{
		"traces": results,
		"count":  len(results),
	})
}
