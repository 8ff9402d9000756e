package models

import "time"

// NegotiationSession is the persisted record of one structured debate.
type NegotiationSession struct {
	ID               string     `json:"id"`
	ConversationID   string     `json:"conversation_id,omitempty"`
	Topic            string     `json:"topic"`
	Agents           []string   `json:"agents"`
	Status           string     `json:"status"` // active | completed
	ConsensusReached bool       `json:"consensus_reached"`
	FinalPosition    string     `json:"final_position"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NegotiationRound is one agent position within one round of a session.
type NegotiationRound struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	RoundNumber  int       `json:"round_number"`
	AgentName    string    `json:"agent_name"`
	ResponseType string    `json:"response_type"` // position | concede | counter | request_data
	Position     string    `json:"position"`
	Evidence     string    `json:"evidence"`
	Confidence   float64   `json:"confidence"`
	CreatedAt    time.Time `json:"created_at"`
}
