package models

import "time"

// Goal statuses.
const (
	GoalStatusActive    = "active"
	GoalStatusSuggested = "suggested"
	GoalStatusCompleted = "completed"
	GoalStatusDismissed = "dismissed"
)

// Goal origins.
const (
	GoalOriginUser           = "user"
	GoalOriginAgentSuggested = "agent_suggested"
)

// Goal step statuses.
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// Goal is a user career goal decomposed into ordered agent steps.
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"` // active | suggested | completed | dismissed
	Origin      string    `json:"origin"` // user | agent_suggested
	TriggerType string    `json:"trigger_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GoalStep is one agent-executable step of a goal. Step numbers are
// contiguous starting at 1 among non-skipped steps; the next pending step is
// always the lowest step number with status pending.
type GoalStep struct {
	ID          string     `json:"id"`
	GoalID      string     `json:"goal_id"`
	StepNumber  int        `json:"step_number"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AgentName   string     `json:"agent_name"`
	Status      string     `json:"status"` // pending | in_progress | completed | failed | skipped
	Output      string     `json:"output"`
	TraceID     string     `json:"trace_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
