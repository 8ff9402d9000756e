package agent

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestMemory_HistorySummaryEmpty(t *testing.T) {
	m := NewMemory()

	assert.Equal(t, "No previous steps.", m.HistorySummary())
}

func TestMemory_HistorySummaryTruncatesObservationByRunes(t *testing.T) {
	m := NewMemory()
	m.AddStep(Step{
		StepNumber:  1,
		Thought:     "fetching",
		ToolCall:    &ToolExecution{ToolName: "fetch_url", Arguments: map[string]any{"url": "https://acme.dev"}},
		Observation: strings.Repeat("é", 600),
	})

	summary := m.HistorySummary()

	assert.True(t, utf8.ValidString(summary))
	assert.Equal(t, 500, strings.Count(summary, "é"))
	assert.Contains(t, summary, "Action: fetch_url")
}

func TestMemory_ClearResetsStepsAndFacts(t *testing.T) {
	m := NewMemory()
	m.AddStep(Step{StepNumber: 1, Thought: "first"})
	m.StoreFact("company", "Acme")

	m.Clear()

	assert.Zero(t, m.StepCount())
	_, ok := m.Fact("company")
	assert.False(t, ok)
}
