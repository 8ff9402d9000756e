package negotiation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/bus"
	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm/llmtest"
)

type roundRecord struct {
	round      int
	agent      string
	respType   string
	confidence float64
}

type fakeStore struct {
	createErr error
	topic     string
	rounds    []roundRecord
	completed bool
	reached   bool
	finalPos  string
}

func (s *fakeStore) CreateSession(_ context.Context, _, topic string, _ []string) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.topic = topic
	return "sess-1", nil
}

func (s *fakeStore) AddRound(_ context.Context, _ string, round int, agent, responseType, _, _ string, confidence float64) error {
	s.rounds = append(s.rounds, roundRecord{round: round, agent: agent, respType: responseType, confidence: confidence})
	return nil
}

func (s *fakeStore) CompleteSession(_ context.Context, _ string, consensusReached bool, finalPosition string) error {
	s.completed = true
	s.reached = consensusReached
	s.finalPos = finalPosition
	return nil
}

func positionReply(respType, position string, confidence float64) llmtest.Reply {
	return llmtest.Text(fmt.Sprintf(
		`{"response_type": %q, "position": %q, "evidence": "supporting data", "confidence": %g}`,
		respType, position, confidence))
}

func debateBus() *bus.Bus {
	b := bus.New()
	respond(b, "scout", "the role is an excellent strong perfect fit", 0.9)
	respond(b, "match", "the overlap is poor weak risky", 0.5)
	return b
}

func debateConflict() Conflict {
	return Conflict{
		Agents:        []string{"scout", "match"},
		Topic:         "confidence_divergence",
		Details:       "scout confidence 90% vs match confidence 50%",
		ConfidenceGap: 0.4,
	}
}

func TestSession_ConvergenceConsensus(t *testing.T) {
	client := llmtest.NewScriptedClient(
		positionReply("position", "pursue the role", 0.8),
		positionReply("position", "pursue with caveats", 0.7),
	)
	store := &fakeStore{}
	sink := &events.CollectorSink{}
	s := NewSession(debateConflict(), debateBus(), client, store, "conv-1", nil)

	c := s.Run(context.Background(), sink)

	assert.True(t, c.Reached)
	assert.Equal(t, "pursue the role", c.Position)
	assert.InDelta(t, 0.75, c.Confidence, 0.001)
	assert.Equal(t, 1, c.RoundsTaken)
	assert.Empty(t, c.DissentingViews)

	assert.Equal(t, "confidence_divergence", store.topic)
	require.Len(t, store.rounds, 2)
	assert.Equal(t, roundRecord{round: 1, agent: "scout", respType: "position", confidence: 0.8}, store.rounds[0])
	assert.True(t, store.completed)
	assert.True(t, store.reached)
	assert.Equal(t, "pursue the role", store.finalPos)

	assert.Len(t, sink.OfType(events.TypeNegotiationRound), 2)
	results := sink.OfType(events.TypeNegotiationResult)
	require.Len(t, results, 1)
	assert.True(t, results[0].Payload.(events.NegotiationResultPayload).ConsensusReached)
}

func TestSession_AllConcede(t *testing.T) {
	client := llmtest.NewScriptedClient(
		positionReply("concede", "agree with match", 0.6),
		positionReply("concede", "agree with scout", 0.4),
	)
	s := NewSession(debateConflict(), debateBus(), client, nil, "conv-1", nil)

	c := s.Run(context.Background(), nil)

	assert.True(t, c.Reached)
	assert.Equal(t, "agree with match", c.Position)
	assert.Equal(t, 0.6, c.Confidence)
	assert.Equal(t, 1, c.RoundsTaken)
}

func TestSession_PartialConcession(t *testing.T) {
	client := llmtest.NewScriptedClient(
		positionReply("position", "the role is a strong fit", 0.9),
		positionReply("concede", "my analysis was incomplete", 0.4),
	)
	s := NewSession(debateConflict(), debateBus(), client, nil, "conv-1", nil)

	c := s.Run(context.Background(), nil)

	assert.True(t, c.Reached)
	assert.Equal(t, "the role is a strong fit", c.Position)
	assert.Equal(t, 0.9, c.Confidence)
	require.Len(t, c.DissentingViews, 1)
	assert.Equal(t, "match conceded: my analysis was incomplete", c.DissentingViews[0])
}

func TestSession_NoConsensusAfterThreeRounds(t *testing.T) {
	var replies []llmtest.Reply
	for round := 1; round <= MaxRounds; round++ {
		replies = append(replies,
			positionReply("counter", "scout holds firm", 0.9),
			positionReply("counter", "match holds firm", 0.4),
		)
	}
	client := llmtest.NewScriptedClient(replies...)
	store := &fakeStore{}
	sink := &events.CollectorSink{}
	s := NewSession(debateConflict(), debateBus(), client, store, "conv-1", nil)

	c := s.Run(context.Background(), sink)

	assert.False(t, c.Reached)
	assert.Equal(t, "scout holds firm", c.Position)
	assert.Equal(t, 0.9, c.Confidence)
	assert.Equal(t, MaxRounds, c.RoundsTaken)
	require.Len(t, c.DissentingViews, 1)
	assert.Equal(t, "match: match holds firm", c.DissentingViews[0])

	assert.Len(t, store.rounds, 6)
	assert.True(t, store.completed)
	assert.False(t, store.reached)
	assert.Len(t, sink.OfType(events.TypeNegotiationRound), 6)
	assert.Len(t, sink.OfType(events.TypeNegotiationResult), 1)
}

func TestSession_LLMFailureFallsBackToOriginalOutputs(t *testing.T) {
	client := llmtest.NewScriptedClient(
		llmtest.Failure(errors.New("llm down")),
		llmtest.Failure(errors.New("llm down")),
	)
	s := NewSession(debateConflict(), debateBus(), client, nil, "conv-1", nil)

	c := s.Run(context.Background(), nil)

	// Both fallbacks sit at 0.5 confidence, which converges immediately.
	assert.True(t, c.Reached)
	assert.Equal(t, "the role is an excellent strong perfect fit", c.Position)
	assert.InDelta(t, 0.5, c.Confidence, 0.001)
	assert.Equal(t, 1, c.RoundsTaken)
}

func TestSession_CreateSessionFailureSkipsPersistence(t *testing.T) {
	client := llmtest.NewScriptedClient(
		positionReply("position", "pursue", 0.8),
		positionReply("position", "pursue", 0.8),
	)
	store := &fakeStore{createErr: errors.New("db down")}
	s := NewSession(debateConflict(), debateBus(), client, store, "conv-1", nil)

	c := s.Run(context.Background(), nil)

	// The debate still resolves; nothing is persisted.
	assert.True(t, c.Reached)
	assert.Empty(t, store.rounds)
	assert.False(t, store.completed)
}

func TestSession_PositionPromptCarriesDebateContext(t *testing.T) {
	client := llmtest.NewScriptedClient(
		positionReply("counter", "scout holds", 0.9),
		positionReply("counter", "match holds", 0.4),
		positionReply("position", "scout final", 0.8),
		positionReply("position", "match final", 0.75),
	)
	s := NewSession(debateConflict(), debateBus(), client, nil, "conv-1", nil)

	c := s.Run(context.Background(), nil)
	require.True(t, c.Reached)
	require.Equal(t, 2, c.RoundsTaken)

	first := client.Requests[0]
	assert.Equal(t, 300, first.MaxTokens)
	assert.InDelta(t, 0.3, first.Temperature, 0.001)
	assert.Contains(t, first.Messages[1].Content, "Round 1 (Opening)")
	assert.Contains(t, first.Messages[1].Content, "scout confidence 90% vs match confidence 50%")

	// Round 2 prompts include the opposing round 1 position.
	scoutRound2 := client.Requests[2].Messages[1].Content
	assert.Contains(t, scoutRound2, "Round 2 (Rebuttal)")
	assert.Contains(t, scoutRound2, "match holds")
	assert.NotContains(t, scoutRound2, "scout holds")
}
