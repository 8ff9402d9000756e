package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kazi-ai/kazi/pkg/models"
)

// LearnerStore is the trace and memory history the learner mines.
type LearnerStore interface {
	RecentTraces(ctx context.Context, userID string, limit int) ([]models.Trace, error)
	TraceSteps(ctx context.Context, traceID string) ([]models.TraceStep, error)
	SearchMemories(ctx context.Context, userID, query string, limit int) ([]models.Memory, error)
}

// Learner mines past traces to build an experience context block for agent
// prompts: which tools worked, what previous runs produced, and what the
// user's feedback said about them.
type Learner struct {
	store  LearnerStore
	logger *slog.Logger
}

func NewLearner(store LearnerStore, logger *slog.Logger) *Learner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Learner{store: store, logger: logger}
}

// ExpertiseContext analyzes the user's past runs of one agent and renders a
// prompt block. Returns "" when there is no history worth injecting.
func (l *Learner) ExpertiseContext(ctx context.Context, userID, agentName string) string {
	if l.store == nil || userID == "" {
		return ""
	}

	traces, err := l.store.RecentTraces(ctx, userID, 20)
	if err != nil {
		l.logger.Warn("learner trace lookup failed", "user_id", userID, "error", err)
		return ""
	}

	var agentTraces, successful []models.Trace
	failed := 0
	for _, t := range traces {
		if t.AgentName != agentName {
			continue
		}
		agentTraces = append(agentTraces, t)
		switch t.Status {
		case models.TraceStatusCompleted:
			successful = append(successful, t)
		case models.TraceStatusFailed:
			failed++
		}
	}
	if len(agentTraces) == 0 {
		return ""
	}

	lines := []string{"PAST EXPERIENCE WITH THIS USER:"}

	for _, te := range l.toolEffectiveness(ctx, agentTraces) {
		lines = append(lines, fmt.Sprintf("- %s: %.0f%% success rate in past runs", te.tool, te.rate*100))
	}

	// Recent successful outputs, annotated with user feedback.
	for i, t := range successful {
		if i >= 3 {
			break
		}
		if t.Output == "" {
			continue
		}
		preview := strings.TrimSpace(strings.ReplaceAll(truncateRunes(t.Output, 200), "\n", " "))
		prefix := ""
		switch t.Feedback {
		case models.FeedbackPositive:
			prefix = "[User found this helpful] "
		case models.FeedbackNegative:
			prefix = "[Try different approach] "
		}
		lines = append(lines, fmt.Sprintf("- %sPrevious run (%d steps, %d tool calls): %s",
			prefix, t.TotalSteps, t.TotalToolCalls, preview))
	}

	if failed > 0 {
		lines = append(lines, fmt.Sprintf("- %d recent runs failed; consider alternative approaches", failed))
	}

	if memories, err := l.store.SearchMemories(ctx, userID, agentName, 5); err == nil {
		for _, mem := range memories {
			lines = append(lines, fmt.Sprintf("- [%s] %s", mem.Category, mem.Content))
		}
	}

	if len(lines) <= 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

type toolRate struct {
	tool string
	rate float64
}

// toolEffectiveness computes per-tool success rates from the steps of the
// given traces, sorted best first.
func (l *Learner) toolEffectiveness(ctx context.Context, traces []models.Trace) []toolRate {
	type counts struct{ success, total int }
	byTool := make(map[string]*counts)

	for _, t := range traces {
		steps, err := l.store.TraceSteps(ctx, t.ID)
		if err != nil {
			continue
		}
		for _, step := range steps {
			if step.ToolName == "" {
				continue
			}
			c := byTool[step.ToolName]
			if c == nil {
				c = &counts{}
				byTool[step.ToolName] = c
			}
			c.total++
			if step.Success {
				c.success++
			}
		}
	}

	out := make([]toolRate, 0, len(byTool))
	for tool, c := range byTool {
		if c.total > 0 {
			out = append(out, toolRate{tool: tool, rate: float64(c.success) / float64(c.total)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].rate != out[j].rate {
			return out[i].rate > out[j].rate
		}
		return out[i].tool < out[j].tool
	})
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
