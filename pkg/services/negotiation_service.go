package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kazi-ai/kazi/pkg/models"
)

// NegotiationService persists debate sessions and their rounds.
type NegotiationService struct {
	db *sql.DB
}

// NewNegotiationService creates a new NegotiationService.
func NewNegotiationService(db *sql.DB) *NegotiationService {
	if db == nil {
		panic("NewNegotiationService: db must not be nil")
	}
	return &NegotiationService{db: db}
}

// CreateSession records the start of a debate and returns the session id.
func (s *NegotiationService) CreateSession(ctx context.Context, conversationID, topic string, agents []string) (string, error) {
	id := uuid.New().String()
	agentsJSON, err := json.Marshal(agents)
	if err != nil {
		return "", fmt.Errorf("failed to marshal agents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO negotiation_sessions (id, conversation_id, topic, agents, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, 'active')`,
		id, conversationID, topic, agentsJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create negotiation session: %w", err)
	}
	return id, nil
}

// AddRound appends one agent position to a session round.
func (s *NegotiationService) AddRound(ctx context.Context, sessionID string, round int, agent, responseType, position, evidence string, confidence float64) error {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO negotiation_rounds (id, session_id, round_number, agent_name, response_type, position, evidence, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, sessionID, round, agent, responseType, position, evidence, confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to add negotiation round: %w", err)
	}
	return nil
}

// CompleteSession writes the debate outcome.
func (s *NegotiationService) CompleteSession(ctx context.Context, sessionID string, consensusReached bool, finalPosition string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE negotiation_sessions
		SET status = 'completed', consensus_reached = $2, final_position = $3, completed_at = now()
		WHERE id = $1`,
		sessionID, consensusReached, finalPosition,
	)
	if err != nil {
		return fmt.Errorf("failed to complete negotiation session: %w", err)
	}
	return nil
}

// GetSession loads one session.
func (s *NegotiationService) GetSession(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(conversation_id, ''), topic, agents, status, consensus_reached, final_position, created_at, completed_at
		FROM negotiation_sessions
		WHERE id = $1`,
		sessionID,
	)
	var session models.NegotiationSession
	var agentsJSON []byte
	var completedAt sql.NullTime
	err := row.Scan(&session.ID, &session.ConversationID, &session.Topic, &agentsJSON,
		&session.Status, &session.ConsensusReached, &session.FinalPosition,
		&session.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load negotiation session: %w", err)
	}
	if err := json.Unmarshal(agentsJSON, &session.Agents); err != nil {
		return nil, fmt.Errorf("failed to decode session agents: %w", err)
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}
	return &session, nil
}

// SessionRounds returns all rounds of a session in debate order.
func (s *NegotiationService) SessionRounds(ctx context.Context, sessionID string) ([]models.NegotiationRound, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, round_number, agent_name, response_type, position, evidence, confidence, created_at
		FROM negotiation_rounds
		WHERE session_id = $1
		ORDER BY round_number ASC, created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query negotiation rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.NegotiationRound
	for rows.Next() {
		var r models.NegotiationRound
		err := rows.Scan(&r.ID, &r.SessionID, &r.RoundNumber, &r.AgentName,
			&r.ResponseType, &r.Position, &r.Evidence, &r.Confidence, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan negotiation round: %w", err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}
