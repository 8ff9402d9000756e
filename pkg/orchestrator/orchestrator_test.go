package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/agent"
	"github.com/kazi-ai/kazi/pkg/bus"
	"github.com/kazi-ai/kazi/pkg/config"
	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm/llmtest"
	"github.com/kazi-ai/kazi/pkg/models"
	"github.com/kazi-ai/kazi/pkg/router"
)

// fakeTraceStore records trace lifecycle calls in memory.
type fakeTraceStore struct {
	mu        sync.Mutex
	created   []*models.Trace
	completed map[string]string // trace id -> status
}

func newFakeTraceStore() *fakeTraceStore {
	return &fakeTraceStore{completed: make(map[string]string)}
}

func (s *fakeTraceStore) CreateTrace(_ context.Context, trace *models.Trace) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("trace-%d", len(s.created)+1)
	trace.ID = id
	s.created = append(s.created, trace)
	return id, nil
}

func (s *fakeTraceStore) CompleteTrace(_ context.Context, traceID, status, output string, totalSteps, totalToolCalls int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[traceID] = status
	return nil
}

func newTestOrchestrator(client *llmtest.ScriptedClient, traces TraceStore) *Orchestrator {
	runner := agent.NewRunner(client, config.AgentConfig{MaxSteps: 5, MaxToolRetries: 0}, nil, nil)
	return New(Options{LLM: client, Runner: runner, Traces: traces})
}

func dispatchRequest(agents ...string) Request {
	return Request{
		UserID:  "user-1",
		Message: "find me backend jobs",
		Decision: router.Decision{
			Intent: "job_search",
			Agents: agents,
		},
	}
}

func TestDispatch_SingleAgentCompletes(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text("FINAL_ANSWER Found 3 backend roles."),
		llmtest.Text(`{"action": "stop", "reason": "job search done"}`),
	)
	traces := newFakeTraceStore()
	o := newTestOrchestrator(client, traces)
	sink := &events.CollectorSink{}

	out := o.Dispatch(context.Background(), dispatchRequest("scout"), sink)

	require.Len(t, out.Runs, 1)
	assert.Equal(t, "scout", out.Runs[0].Agent)
	assert.Equal(t, models.TraceStatusCompleted, out.Runs[0].Result.Status)
	assert.Equal(t, "Found 3 backend roles.", out.Runs[0].Result.Output)
	assert.Nil(t, out.Consensus)

	// Request in, response out, evaluator observation in between them.
	responses := out.Bus.Responses()
	require.Len(t, responses, 1)
	assert.Equal(t, "scout", responses[0].Sender)
	assert.Equal(t, "Found 3 backend roles.", responses[0].Payload["output"])
	assert.Equal(t, 0.8, responses[0].Payload["confidence"])

	obs := out.Bus.Observations()
	require.Len(t, obs, 1)
	assert.Equal(t, "evaluator", obs[0].Sender)
	assert.Contains(t, obs[0].Payload["note"], "stop")

	require.Len(t, traces.created, 1)
	assert.Equal(t, "job_search", traces.created[0].Intent)
	assert.Equal(t, models.TraceStatusCompleted, traces.completed["trace-1"])
	assert.Equal(t, []string{"trace-1"}, out.TraceIDs)

	traceEvents := sink.OfType(events.TypeTraceIDs)
	require.Len(t, traceEvents, 1)
}

func TestDispatch_SkipNextPopsQueueHead(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text("FINAL_ANSWER Match is strong, ATS 94."),
		llmtest.Text(`{"action": "skip_next", "reason": "forge unnecessary"}`),
		llmtest.Text("FINAL_ANSWER Interview prep guide."),
		llmtest.Text(`{"action": "stop", "reason": "done"}`),
	)
	o := newTestOrchestrator(client, nil)

	out := o.Dispatch(context.Background(), dispatchRequest("match", "forge", "coach"), nil)

	require.Len(t, out.Runs, 2)
	assert.Equal(t, "match", out.Runs[0].Agent)
	assert.Equal(t, "coach", out.Runs[1].Agent)
}

func TestDispatch_AddAgentAppends(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text("FINAL_ANSWER Found roles, fit unclear."),
		llmtest.Text(`{"action": "add_agent", "reason": "needs analysis", "target_agent": "match"}`),
		llmtest.Text("FINAL_ANSWER Fit analysis complete."),
		llmtest.Text(`{"action": "stop", "reason": "done"}`),
	)
	o := newTestOrchestrator(client, nil)

	out := o.Dispatch(context.Background(), dispatchRequest("scout"), nil)

	require.Len(t, out.Runs, 2)
	assert.Equal(t, "scout", out.Runs[0].Agent)
	assert.Equal(t, "match", out.Runs[1].Agent)
}

func TestDispatch_LoopBackReRunsAgent(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text("FINAL_ANSWER No results found."),
		llmtest.Text(`{"action": "loop_back", "reason": "zero results, broaden terms", "target_agent": "scout"}`),
		llmtest.Text("FINAL_ANSWER Found 4 roles on retry."),
		llmtest.Text(`{"action": "continue", "reason": "good now"}`),
		llmtest.Text("FINAL_ANSWER Match analysis."),
		llmtest.Text(`{"action": "stop", "reason": "done"}`),
	)
	o := newTestOrchestrator(client, nil)

	out := o.Dispatch(context.Background(), dispatchRequest("scout", "match"), nil)

	require.Len(t, out.Runs, 3)
	assert.Equal(t, "scout", out.Runs[0].Agent)
	assert.Equal(t, "scout", out.Runs[1].Agent)
	assert.Equal(t, "match", out.Runs[2].Agent)
}

func TestDispatch_IterationCapStopsLoopBackSpin(t *testing.T) {
	// The evaluator always loops back to scout; the cap is len(agents)+3.
	var scripted []llmtest.Reply
	for i := 0; i < 8; i++ {
		scripted = append(scripted,
			llmtest.Text("FINAL_ANSWER Nothing found."),
			llmtest.Text(`{"action": "loop_back", "reason": "retry", "target_agent": "scout"}`),
		)
	}
	client := llmtest.NewScriptedClient(scripted...)
	o := newTestOrchestrator(client, nil)

	out := o.Dispatch(context.Background(), dispatchRequest("scout"), nil)

	assert.Len(t, out.Runs, 4) // 1 initial agent + 3 extra iterations
}

func TestDispatch_CancelledContextRunsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := llmtest.NewScriptedClient()
	o := newTestOrchestrator(client, nil)

	out := o.Dispatch(ctx, dispatchRequest("scout", "match"), nil)

	assert.Empty(t, out.Runs)
	assert.Equal(t, 0, client.Calls())
}

func TestDispatch_AgentFailureReported(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Failure(errors.New("provider down")),
	)
	traces := newFakeTraceStore()
	o := newTestOrchestrator(client, traces)
	sink := &events.CollectorSink{}

	out := o.Dispatch(context.Background(), dispatchRequest("scout"), sink)

	require.Len(t, out.Runs, 1)
	assert.Equal(t, models.TraceStatusFailed, out.Runs[0].Result.Status)
	assert.Equal(t, models.TraceStatusFailed, traces.completed["trace-1"])

	errMsgs := out.Bus.All()
	var sawError bool
	for _, m := range errMsgs {
		if m.Type == bus.MsgError && m.Sender == "scout" {
			sawError = true
		}
	}
	assert.True(t, sawError)

	statuses := sink.OfType(events.TypeAgentStatus)
	require.NotEmpty(t, statuses)
	last := statuses[len(statuses)-1].Payload.(events.AgentStatusPayload)
	assert.Equal(t, "failed", last.Status)
}

func TestDispatch_SentimentConflictTriggersNegotiation(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text("FINAL_ANSWER This is an excellent role, strong fit, great company, perfect timing."),
		llmtest.Text(`{"action": "continue", "reason": "next"}`),
		llmtest.Text("FINAL_ANSWER This looks poor, a weak match, bad culture fit, and risky."),
		llmtest.Text(`{"action": "continue", "reason": "done"}`),
		// Round 1 of the debate: scout holds, match concedes.
		llmtest.Text(`{"response_type": "position", "position": "The role is worth pursuing", "evidence": "salary and stack", "confidence": 0.9}`),
		llmtest.Text(`{"response_type": "concede", "position": "Agreed on balance", "evidence": "", "confidence": 0.4}`),
	)
	o := newTestOrchestrator(client, nil)
	sink := &events.CollectorSink{}

	out := o.Dispatch(context.Background(), dispatchRequest("scout", "match"), sink)

	require.NotNil(t, out.Consensus)
	assert.True(t, out.Consensus.Reached)
	assert.Equal(t, "The role is worth pursuing", out.Consensus.Position)
	require.Len(t, out.Consensus.DissentingViews, 1)

	// The consensus is posted back on the bus for downstream consumers.
	var consensusMsg *bus.Message
	for _, m := range out.Bus.All() {
		if m.Type == bus.MsgConsensus {
			m := m
			consensusMsg = &m
		}
	}
	require.NotNil(t, consensusMsg)
	assert.Equal(t, "negotiator", consensusMsg.Sender)
	assert.Equal(t, true, consensusMsg.Payload["consensus_reached"])

	assert.Len(t, sink.OfType(events.TypeNegotiationRound), 2)
	assert.Len(t, sink.OfType(events.TypeNegotiationResult), 1)
}

func TestDispatch_DelegationRunsSubAgentOnce(t *testing.T) {
	client := llmtest.NewScriptedClient(
		// Scout delegates to match mid-run.
		llmtest.ToolCall("call_1", "delegate_to_agent", `{"agent_name": "match", "task_description": "analyze fit for the Acme role"}`),
		// The sub-agent (match) runs to completion on the shared bus.
		llmtest.Text("FINAL_ANSWER Sub-analysis: 80% skills overlap."),
		// Scout finishes using the delegated result.
		llmtest.Text("FINAL_ANSWER Found roles; delegation confirmed strong fit."),
		llmtest.Text(`{"action": "continue", "reason": "scout covered the analysis"}`),
	)
	traces := newFakeTraceStore()
	o := newTestOrchestrator(client, traces)

	out := o.Dispatch(context.Background(), dispatchRequest("scout"), nil)

	// The delegated work happened inside scout's run; match is not re-queued
	// as a top-level agent.
	require.Len(t, out.Runs, 1)
	assert.Equal(t, "scout", out.Runs[0].Agent)

	responses := out.Bus.Responses()
	require.Len(t, responses, 1)
	assert.Equal(t, "scout", responses[0].Sender)

	assert.Empty(t, out.Bus.Delegations())
	obs := out.Bus.Observations()
	require.Len(t, obs, 2)
	assert.Equal(t, "scout", obs[0].Sender)
	assert.Equal(t, "match", obs[0].Payload["agent"])
	assert.Contains(t, obs[0].Payload["note"], "scout delegated to match")
	assert.Contains(t, obs[0].Payload["note"], "80% skills overlap")
	assert.Equal(t, "evaluator", obs[1].Sender)

	// The sub-run gets its own trace with a delegation intent; no third
	// trace for a duplicate top-level match run.
	require.Len(t, traces.created, 2)
	assert.Equal(t, "delegation", traces.created[1].Intent)
	assert.Equal(t, "match", traces.created[1].AgentName)
	assert.Equal(t, models.TraceStatusCompleted, traces.completed["trace-2"])
}

func TestDispatch_UnknownAgentSkipped(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Text("FINAL_ANSWER done"),
		llmtest.Text(`{"action": "stop", "reason": "done"}`),
	)
	o := newTestOrchestrator(client, nil)

	out := o.Dispatch(context.Background(), dispatchRequest("wizard", "scout"), nil)

	require.Len(t, out.Runs, 1)
	assert.Equal(t, "scout", out.Runs[0].Agent)
}

func TestBuildTask_IncludesUserContext(t *testing.T) {
	req := Request{
		Message:    "help me apply to Acme",
		ResumeText: "Go developer, 5 years",
		Decision: router.Decision{
			Context: router.ExtractedContext{
				Company: "Acme",
				Role:    "Backend Engineer",
				Skills:  []string{"go", "postgres"},
			},
		},
	}

	task := buildTask(req, "scout")

	assert.Contains(t, task, "User request: help me apply to Acme")
	assert.Contains(t, task, "- Target company: Acme")
	assert.Contains(t, task, "- Target role: Backend Engineer")
	assert.Contains(t, task, "- Skills mentioned: go, postgres")
	assert.Contains(t, task, "User resume:\nGo developer, 5 years")
	assert.Contains(t, task, "Your task: find relevant job opportunities")
}

func TestBuildTask_MinimalRequest(t *testing.T) {
	task := buildTask(Request{Message: "prep me"}, "coach")

	assert.Contains(t, task, "User request: prep me")
	assert.NotContains(t, task, "Known context:")
	assert.NotContains(t, task, "User resume:")
	assert.Contains(t, task, "prepare this user for interviews")
}
