// Package models holds the persisted record types and service request types
// shared between the stores, the orchestration core and the API layer.
package models

import "time"

// Trace statuses. A trace is immutable once it reaches a terminal status.
const (
	TraceStatusRunning   = "running"
	TraceStatusCompleted = "completed"
	TraceStatusFailed    = "failed"
	TraceStatusCancelled = "cancelled"
	TraceStatusMaxSteps  = "max_steps"
)

// Trace feedback values.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// Trace is the persisted audit record of one agent execution.
type Trace struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ConversationID string     `json:"conversation_id,omitempty"`
	AgentName      string     `json:"agent_name"`
	Intent         string     `json:"intent"`
	Task           string     `json:"task"`   // truncated to 2000 chars
	Status         string     `json:"status"` // running | completed | failed | cancelled | max_steps
	Output         string     `json:"output"` // truncated to 4000 chars
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TotalSteps     int        `json:"total_steps"`
	TotalToolCalls int        `json:"total_tool_calls"`
	Feedback       string     `json:"feedback,omitempty"` // positive | negative | ""
}

// TraceStep is one persisted ReAct step within a trace.
type TraceStep struct {
	ID          string    `json:"id"`
	TraceID     string    `json:"trace_id"`
	StepNumber  int       `json:"step_number"`
	Thought     string    `json:"thought"`
	ToolName    string    `json:"tool_name,omitempty"`
	ToolArgs    string    `json:"tool_args,omitempty"`   // JSON
	ToolResult  string    `json:"tool_result,omitempty"` // JSON
	Observation string    `json:"observation,omitempty"`
	Success     bool      `json:"success"`
	CreatedAt   time.Time `json:"created_at"`
}
