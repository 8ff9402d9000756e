package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/models"
)

type fakeMemoryStore struct{}

func (fakeMemoryStore) SearchMemories(context.Context, string, string, int) ([]models.Memory, error) {
	return nil, nil
}

func (fakeMemoryStore) ListMemories(context.Context, string, string, int) ([]models.Memory, error) {
	return nil, nil
}

func (fakeMemoryStore) SaveMemory(context.Context, string, string, string) (string, error) {
	return "mem-1", nil
}

type fakeTraceReader struct{}

func (fakeTraceReader) RecentTraces(context.Context, string, int) ([]models.Trace, error) {
	return nil, nil
}

func TestBuild_ScoutTools(t *testing.T) {
	a, err := Build("scout", Deps{})

	require.NoError(t, err)
	assert.Equal(t, "scout", a.Name)
	assert.Equal(t,
		[]string{"search_jobs", "research_company", "fetch_url", "analyze_github", "research_salary"},
		a.Registry.Names())
}

func TestBuild_MatchTools(t *testing.T) {
	a, err := Build("match", Deps{})

	require.NoError(t, err)
	assert.Equal(t,
		[]string{"parse_job_description", "analyze_resume", "match_skills", "score_ats"},
		a.Registry.Names())
}

func TestBuild_UnknownAgent(t *testing.T) {
	_, err := Build("wizard", Deps{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestBuild_MemoryToolsRequireUserContext(t *testing.T) {
	// No user: no memory tools.
	a, err := Build("forge", Deps{Memory: fakeMemoryStore{}})
	require.NoError(t, err)
	assert.NotContains(t, a.Registry.Names(), "recall_memory")

	// User but no store: still no memory tools.
	a, err = Build("forge", Deps{UserID: "user-1"})
	require.NoError(t, err)
	assert.NotContains(t, a.Registry.Names(), "store_memory")

	// Both present: recall and store, but no trace recall without a reader.
	a, err = Build("forge", Deps{UserID: "user-1", Memory: fakeMemoryStore{}})
	require.NoError(t, err)
	assert.Contains(t, a.Registry.Names(), "recall_memory")
	assert.Contains(t, a.Registry.Names(), "store_memory")
	assert.NotContains(t, a.Registry.Names(), "recall_past_work")

	// Trace reader adds past-work recall.
	a, err = Build("forge", Deps{UserID: "user-1", Memory: fakeMemoryStore{}, Traces: fakeTraceReader{}})
	require.NoError(t, err)
	assert.Contains(t, a.Registry.Names(), "recall_past_work")
}

func TestBuild_EveryNamedAgent(t *testing.T) {
	for _, name := range AgentNames {
		a, err := Build(name, Deps{})
		require.NoError(t, err, name)
		assert.Equal(t, name, a.Name)
		assert.NotZero(t, a.Registry.Len(), name)
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("scout"))
	assert.True(t, Known("coach"))
	assert.False(t, Known("wizard"))
	assert.False(t, Known(""))
}

func TestPromptWithTools(t *testing.T) {
	a, err := Build("coach", Deps{})
	require.NoError(t, err)

	prompt := a.PromptWithTools()

	assert.NotContains(t, prompt, "{tool_descriptions}")
	assert.Contains(t, prompt, "- **prepare_interview**:")
	assert.Contains(t, prompt, "- **mock_interview**:")
	assert.Contains(t, prompt, "- **generate_learning_path**:")
}
