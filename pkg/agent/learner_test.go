package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/models"
)

type fakeLearnerStore struct {
	traces   []models.Trace
	steps    map[string][]models.TraceStep
	memories []models.Memory
}

func (s *fakeLearnerStore) RecentTraces(context.Context, string, int) ([]models.Trace, error) {
	return s.traces, nil
}

func (s *fakeLearnerStore) TraceSteps(_ context.Context, traceID string) ([]models.TraceStep, error) {
	return s.steps[traceID], nil
}

func (s *fakeLearnerStore) SearchMemories(context.Context, string, string, int) ([]models.Memory, error) {
	return s.memories, nil
}

func TestLearner_NoHistory(t *testing.T) {
	l := NewLearner(&fakeLearnerStore{}, nil)
	assert.Empty(t, l.ExpertiseContext(context.Background(), "user-1", "scout"))

	// Nil store and missing user short-circuit.
	l = NewLearner(nil, nil)
	assert.Empty(t, l.ExpertiseContext(context.Background(), "user-1", "scout"))

	l = NewLearner(&fakeLearnerStore{}, nil)
	assert.Empty(t, l.ExpertiseContext(context.Background(), "", "scout"))
}

func TestLearner_OtherAgentsIgnored(t *testing.T) {
	store := &fakeLearnerStore{
		traces: []models.Trace{
			{ID: "t1", AgentName: "match", Status: models.TraceStatusCompleted, Output: "analysis"},
		},
	}
	l := NewLearner(store, nil)

	assert.Empty(t, l.ExpertiseContext(context.Background(), "user-1", "scout"))
}

func TestLearner_ToolSuccessRates(t *testing.T) {
	store := &fakeLearnerStore{
		traces: []models.Trace{
			{ID: "t1", AgentName: "scout", Status: models.TraceStatusCompleted, Output: "found jobs"},
		},
		steps: map[string][]models.TraceStep{
			"t1": {
				{ToolName: "search_jobs", Success: true},
				{ToolName: "search_jobs", Success: true},
				{ToolName: "fetch_url", Success: true},
				{ToolName: "fetch_url", Success: false},
				{Thought: "plain reasoning step"},
			},
		},
	}
	l := NewLearner(store, nil)

	got := l.ExpertiseContext(context.Background(), "user-1", "scout")

	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "PAST EXPERIENCE WITH THIS USER:", lines[0])
	// Best rate first.
	assert.Equal(t, "- search_jobs: 100% success rate in past runs", lines[1])
	assert.Equal(t, "- fetch_url: 50% success rate in past runs", lines[2])
}

func TestLearner_FeedbackPrefixes(t *testing.T) {
	store := &fakeLearnerStore{
		traces: []models.Trace{
			{
				ID: "t1", AgentName: "scout", Status: models.TraceStatusCompleted,
				Output: "five matching roles", Feedback: models.FeedbackPositive,
				TotalSteps: 3, TotalToolCalls: 2,
			},
			{
				ID: "t2", AgentName: "scout", Status: models.TraceStatusCompleted,
				Output: "nothing useful", Feedback: models.FeedbackNegative,
			},
		},
	}
	l := NewLearner(store, nil)

	got := l.ExpertiseContext(context.Background(), "user-1", "scout")

	assert.Contains(t, got, "[User found this helpful] Previous run (3 steps, 2 tool calls): five matching roles")
	assert.Contains(t, got, "[Try different approach] ")
}

func TestLearner_FailedRunsCounted(t *testing.T) {
	store := &fakeLearnerStore{
		traces: []models.Trace{
			{ID: "t1", AgentName: "scout", Status: models.TraceStatusFailed},
			{ID: "t2", AgentName: "scout", Status: models.TraceStatusFailed},
		},
	}
	l := NewLearner(store, nil)

	got := l.ExpertiseContext(context.Background(), "user-1", "scout")

	assert.Contains(t, got, "2 recent runs failed; consider alternative approaches")
}

func TestLearner_MemoriesIncluded(t *testing.T) {
	store := &fakeLearnerStore{
		traces: []models.Trace{
			{ID: "t1", AgentName: "scout", Status: models.TraceStatusCompleted, Output: "done"},
		},
		memories: []models.Memory{
			{Category: "preference", Content: "Remote roles only"},
			{Category: "goal", Content: "Senior backend position"},
		},
	}
	l := NewLearner(store, nil)

	got := l.ExpertiseContext(context.Background(), "user-1", "scout")

	assert.Contains(t, got, "- [preference] Remote roles only")
	assert.Contains(t, got, "- [goal] Senior backend position")
}

func TestLearner_SuccessfulPreviewsCappedAtThree(t *testing.T) {
	var traces []models.Trace
	for _, id := range []string{"t1", "t2", "t3", "t4"} {
		traces = append(traces, models.Trace{
			ID: id, AgentName: "scout", Status: models.TraceStatusCompleted,
			Output: "output from " + id,
		})
	}
	l := NewLearner(&fakeLearnerStore{traces: traces}, nil)

	got := l.ExpertiseContext(context.Background(), "user-1", "scout")

	assert.Contains(t, got, "output from t3")
	assert.NotContains(t, got, "output from t4")
}
