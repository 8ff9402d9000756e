package negotiation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazi-ai/kazi/pkg/bus"
	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm"
)

// MaxRounds bounds a debate: opening, rebuttal, final position.
const MaxRounds = 3

// Response types an agent can take in a round.
const (
	ResponsePosition    = "position"
	ResponseConcede     = "concede"
	ResponseCounter     = "counter"
	ResponseRequestData = "request_data"
)

// Store persists negotiation sessions and rounds. Persistence is best
// effort; failures are logged and the debate continues.
type Store interface {
	CreateSession(ctx context.Context, conversationID, topic string, agents []string) (string, error)
	AddRound(ctx context.Context, sessionID string, round int, agent, responseType, position, evidence string, confidence float64) error
	CompleteSession(ctx context.Context, sessionID string, consensusReached bool, finalPosition string) error
}

// Position is one agent's stance within a round.
type Position struct {
	AgentName    string
	ResponseType string
	Position     string
	Evidence     string
	Confidence   float64
}

// Consensus is the outcome of a debate.
type Consensus struct {
	Reached         bool
	Position        string
	Confidence      float64
	DissentingViews []string
	RoundsTaken     int
}

// Session runs a structured debate between the agents of one conflict.
type Session struct {
	conflict       Conflict
	bus            *bus.Bus
	llm            llm.Client
	store          Store
	logger         *slog.Logger
	conversationID string

	sessionID string
	rounds    [][]Position
}

func NewSession(conflict Conflict, b *bus.Bus, client llm.Client, store Store, conversationID string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		conflict:       conflict,
		bus:            b,
		llm:            client,
		store:          store,
		logger:         logger,
		conversationID: conversationID,
	}
}

// Run executes the debate, emitting a round event per position and one
// result event at the end.
func (s *Session) Run(ctx context.Context, sink events.Sink) Consensus {
	if s.store != nil {
		id, err := s.store.CreateSession(ctx, s.conversationID, s.conflict.Topic, s.conflict.Agents)
		if err != nil {
			s.logger.Warn("failed to create negotiation session", "error", err)
		} else {
			s.sessionID = id
		}
	}

	// The debated material is each agent's original response output.
	outputs := make(map[string]string)
	for _, resp := range s.bus.Responses() {
		for _, agent := range s.conflict.Agents {
			if resp.Sender == agent {
				outputs[agent] = truncate(payloadOutput(resp.Payload), 2000)
			}
		}
	}

	for round := 1; round <= MaxRounds; round++ {
		positions := s.runRound(ctx, round, outputs, sink)
		s.rounds = append(s.rounds, positions)

		if consensus := s.checkConsensus(positions); consensus != nil {
			s.complete(ctx, true, consensus.Position)
			s.publishResult(sink, *consensus)
			return *consensus
		}
	}

	result := s.resolveNoConsensus(ctx)
	s.publishResult(sink, result)
	return result
}

func (s *Session) runRound(ctx context.Context, round int, outputs map[string]string, sink events.Sink) []Position {
	var positions []Position
	for _, agent := range s.conflict.Agents {
		pos := s.agentPosition(ctx, agent, outputs[agent], round)
		positions = append(positions, pos)

		events.Publish(sink, events.Event{
			Type: events.TypeNegotiationRound,
			Payload: events.NegotiationRoundPayload{
				Round:        round,
				Agent:        pos.AgentName,
				ResponseType: pos.ResponseType,
				Position:     truncate(pos.Position, 500),
				Confidence:   pos.Confidence,
			},
		})

		if s.sessionID != "" {
			err := s.store.AddRound(ctx, s.sessionID, round, pos.AgentName, pos.ResponseType, pos.Position, pos.Evidence, pos.Confidence)
			if err != nil {
				s.logger.Warn("failed to persist negotiation round", "round", round, "agent", agent, "error", err)
			}
		}
	}
	return positions
}

var roundLabels = map[int]string{1: "Opening", 2: "Rebuttal", 3: "Final Position"}

// agentPosition asks the LLM to formulate one agent's stance for the round.
// On any failure the agent restates its original output at 0.5 confidence.
func (s *Session) agentPosition(ctx context.Context, agent, output string, round int) Position {
	fallback := Position{
		AgentName:    agent,
		ResponseType: ResponsePosition,
		Position:     truncate(output, 500),
		Confidence:   0.5,
	}

	label, ok := roundLabels[round]
	if !ok {
		label = "Position"
	}

	var prev strings.Builder
	for i, positions := range s.rounds {
		for _, pos := range positions {
			if pos.AgentName != agent {
				fmt.Fprintf(&prev, "\nRound %d - %s: [%s] %s", i+1, pos.AgentName, pos.ResponseType, truncate(pos.Position, 300))
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s agent in a structured debate about: %s\n\n", agent, s.conflict.Details)
	fmt.Fprintf(&b, "Your analysis output was:\n%s\n\n", truncate(output, 1500))
	if prev.Len() > 0 {
		fmt.Fprintf(&b, "Previous debate positions:%s\n\n", prev.String())
	}
	fmt.Fprintf(&b, "This is Round %d (%s).\n", round, label)
	switch round {
	case 1:
		b.WriteString("State your position, provide evidence, and assign a confidence score.\n")
	case 2:
		b.WriteString("You may CONCEDE (agree with the other agent), COUNTER (provide counter-arguments), or REQUEST_DATA (ask for more information).\n")
	case 3:
		b.WriteString("State your FINAL position clearly.\n")
	}
	b.WriteString("\nRespond with JSON only:\n")
	b.WriteString(`{"response_type": "position|concede|counter|request_data", "position": "your position", "evidence": "supporting evidence", "confidence": 0.0-1.0}`)

	resp, err := s.llm.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are an agent in a structured debate. Respond with valid JSON only."},
			{Role: llm.RoleUser, Content: b.String()},
		},
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		s.logger.Warn("negotiation position call failed", "agent", agent, "round", round, "error", err)
		return fallback
	}

	var raw struct {
		ResponseType string  `json:"response_type"`
		Position     string  `json:"position"`
		Evidence     string  `json:"evidence"`
		Confidence   float64 `json:"confidence"`
	}
	if err := llm.DecodeJSONReply(resp.Content, &raw); err != nil {
		s.logger.Warn("negotiation position was not valid JSON", "agent", agent, "round", round, "error", err)
		return fallback
	}

	pos := Position{
		AgentName:    agent,
		ResponseType: raw.ResponseType,
		Position:     raw.Position,
		Evidence:     raw.Evidence,
		Confidence:   raw.Confidence,
	}
	if pos.ResponseType == "" {
		pos.ResponseType = ResponsePosition
	}
	if pos.Confidence == 0 {
		pos.Confidence = 0.5
	}
	return pos
}

// checkConsensus applies the consensus rules to one round's positions:
// all concede, confidence convergence within 0.15, or a partial concession.
func (s *Session) checkConsensus(positions []Position) *Consensus {
	if len(positions) == 0 {
		return nil
	}

	allConcede := true
	for _, p := range positions {
		if p.ResponseType != ResponseConcede {
			allConcede = false
			break
		}
	}
	if allConcede {
		winner := highestConfidence(positions)
		return &Consensus{
			Reached:     true,
			Position:    winner.Position,
			Confidence:  winner.Confidence,
			RoundsTaken: len(s.rounds),
		}
	}

	minC, maxC, sum := positions[0].Confidence, positions[0].Confidence, 0.0
	for _, p := range positions {
		if p.Confidence < minC {
			minC = p.Confidence
		}
		if p.Confidence > maxC {
			maxC = p.Confidence
		}
		sum += p.Confidence
	}
	if maxC-minC <= 0.15 {
		winner := highestConfidence(positions)
		return &Consensus{
			Reached:     true,
			Position:    winner.Position,
			Confidence:  sum / float64(len(positions)),
			RoundsTaken: len(s.rounds),
		}
	}

	var conceding, holding []Position
	for _, p := range positions {
		if p.ResponseType == ResponseConcede {
			conceding = append(conceding, p)
		} else {
			holding = append(holding, p)
		}
	}
	if len(conceding) > 0 && len(holding) > 0 {
		winner := highestConfidence(holding)
		var dissent []string
		for _, p := range conceding {
			dissent = append(dissent, fmt.Sprintf("%s conceded: %s", p.AgentName, truncate(p.Position, 200)))
		}
		return &Consensus{
			Reached:         true,
			Position:        winner.Position,
			Confidence:      winner.Confidence,
			DissentingViews: dissent,
			RoundsTaken:     len(s.rounds),
		}
	}

	return nil
}

// resolveNoConsensus rules after the final round: the last round's highest
// confidence position wins, dissenting views preserved.
func (s *Session) resolveNoConsensus(ctx context.Context) Consensus {
	if len(s.rounds) == 0 || len(s.rounds[len(s.rounds)-1]) == 0 {
		return Consensus{
			Reached:    false,
			Position:   "No positions recorded",
			Confidence: 0.5,
		}
	}

	lastRound := s.rounds[len(s.rounds)-1]
	winner := highestConfidence(lastRound)
	var dissent []string
	for _, p := range lastRound {
		if p.AgentName != winner.AgentName {
			dissent = append(dissent, fmt.Sprintf("%s: %s", p.AgentName, truncate(p.Position, 200)))
		}
	}

	s.complete(ctx, false, winner.Position)
	return Consensus{
		Reached:         false,
		Position:        winner.Position,
		Confidence:      winner.Confidence,
		DissentingViews: dissent,
		RoundsTaken:     len(s.rounds),
	}
}

func (s *Session) complete(ctx context.Context, reached bool, finalPosition string) {
	if s.sessionID == "" {
		return
	}
	if err := s.store.CompleteSession(ctx, s.sessionID, reached, finalPosition); err != nil {
		s.logger.Warn("failed to complete negotiation session", "error", err)
	}
}

func (s *Session) publishResult(sink events.Sink, c Consensus) {
	events.Publish(sink, events.Event{
		Type: events.TypeNegotiationResult,
		Payload: events.NegotiationResultPayload{
			ConsensusReached: c.Reached,
			Position:         c.Position,
			Confidence:       c.Confidence,
			DissentingViews:  c.DissentingViews,
			RoundsTaken:      c.RoundsTaken,
		},
	})
}

func highestConfidence(positions []Position) Position {
	winner := positions[0]
	for _, p := range positions[1:] {
		if p.Confidence > winner.Confidence {
			winner = p
		}
	}
	return winner
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
