package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/llm/llmtest"
)

func TestExtractFacts_ValidReply(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`[
		{"content": "User targets backend roles", "category": "goal"},
		{"content": "User knows Go and Postgres", "category": "fact"}
	]`))

	facts := extractFacts(context.Background(), client, "find me Go jobs", "Found 5 roles", slog.Default())

	require.Len(t, facts, 2)
	assert.Equal(t, "goal", facts[0].Category)
	assert.Equal(t, "User knows Go and Postgres", facts[1].Content)
}

func TestExtractFacts_InvalidCategoryBecomesFact(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`[{"content": "something", "category": "rumor"}]`))

	facts := extractFacts(context.Background(), client, "msg", "output", slog.Default())

	require.Len(t, facts, 1)
	assert.Equal(t, "fact", facts[0].Category)
}

func TestExtractFacts_SkipsEmptyContent(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`[
		{"content": "", "category": "fact"},
		{"content": "real fact", "category": "fact"}
	]`))

	facts := extractFacts(context.Background(), client, "msg", "output", slog.Default())

	require.Len(t, facts, 1)
	assert.Equal(t, "real fact", facts[0].Content)
}

func TestExtractFacts_CappedAtFive(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`[
		{"content": "f1", "category": "fact"},
		{"content": "f2", "category": "fact"},
		{"content": "f3", "category": "fact"},
		{"content": "f4", "category": "fact"},
		{"content": "f5", "category": "fact"},
		{"content": "f6", "category": "fact"},
		{"content": "f7", "category": "fact"}
	]`))

	facts := extractFacts(context.Background(), client, "msg", "output", slog.Default())

	assert.Len(t, facts, 5)
}

func TestExtractFacts_LLMErrorReturnsNil(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Failure(errors.New("down")))

	assert.Nil(t, extractFacts(context.Background(), client, "msg", "output", slog.Default()))
}

func TestExtractFacts_InvalidJSONReturnsNil(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text("no facts worth saving here"))

	assert.Nil(t, extractFacts(context.Background(), client, "msg", "output", slog.Default()))
}
