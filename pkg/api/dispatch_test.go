package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/agent"
	"github.com/kazi-ai/kazi/pkg/negotiation"
	"github.com/kazi-ai/kazi/pkg/orchestrator"
)

func TestDispatchRegistry_CancelFiresOnce(t *testing.T) {
	r := newDispatchRegistry()
	fired := 0
	id := r.Register(func() { fired++ })

	require.True(t, r.Cancel(id))
	assert.Equal(t, 1, fired)

	// Second cancel misses: the entry is gone.
	assert.False(t, r.Cancel(id))
	assert.Equal(t, 1, fired)
}

func TestDispatchRegistry_UnknownID(t *testing.T) {
	r := newDispatchRegistry()
	assert.False(t, r.Cancel("nope"))
}

func TestDispatchRegistry_RemoveWithoutCancelling(t *testing.T) {
	r := newDispatchRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	id := r.Register(cancel)

	r.Remove(id)

	assert.NoError(t, ctx.Err())
	assert.False(t, r.Cancel(id))
}

func TestFinalText_ConsensusWins(t *testing.T) {
	outcome := &orchestrator.Outcome{
		Runs: []orchestrator.AgentRun{
			{Agent: "scout", Result: &agent.Result{Output: "scout output"}},
		},
		Consensus: &negotiation.Consensus{Reached: true, Position: "agreed position"},
	}

	assert.Equal(t, "agreed position", finalText(outcome))
}

func TestFinalText_LastSuccessfulRun(t *testing.T) {
	outcome := &orchestrator.Outcome{
		Runs: []orchestrator.AgentRun{
			{Agent: "scout", Result: &agent.Result{Output: "scout output"}},
			{Agent: "match", Result: &agent.Result{Output: "match output"}},
			{Agent: "forge", Result: nil},
		},
	}

	assert.Equal(t, "match output", finalText(outcome))
}

func TestFinalText_Empty(t *testing.T) {
	assert.Empty(t, finalText(nil))
	assert.Empty(t, finalText(&orchestrator.Outcome{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "clip", truncate("clipped", 4))
}
