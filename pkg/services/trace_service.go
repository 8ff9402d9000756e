package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kazi-ai/kazi/pkg/models"
)

// Stored text limits. Enforced here so every writer gets them.
const (
	maxTaskChars   = 2000
	maxOutputChars = 4000
)

// TraceService persists agent execution traces and their ReAct steps.
type TraceService struct {
	db *sql.DB
}

// NewTraceService creates a new TraceService.
func NewTraceService(db *sql.DB) *TraceService {
	if db == nil {
		panic("NewTraceService: db must not be nil")
	}
	return &TraceService{db: db}
}

// CreateTrace records the start of an agent run and returns the trace id.
func (s *TraceService) CreateTrace(ctx context.Context, trace *models.Trace) (string, error) {
	id := uuid.New().String()
	startedAt := trace.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_traces (id, user_id, conversation_id, agent_name, intent, task, status, started_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		id, trace.UserID, trace.ConversationID, trace.AgentName, trace.Intent,
		truncate(trace.Task, maxTaskChars), models.TraceStatusRunning, startedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create trace: %w", err)
	}
	return id, nil
}

// RecordStep appends one ReAct step to a trace.
func (s *TraceService) RecordStep(ctx context.Context, step *models.TraceStep) error {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_steps (id, trace_id, step_number, thought, tool_name, tool_args, tool_result, observation, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, step.TraceID, step.StepNumber, step.Thought, step.ToolName,
		step.ToolArgs, step.ToolResult, step.Observation, step.Success,
	)
	if err != nil {
		return fmt.Errorf("failed to record trace step: %w", err)
	}
	return nil
}

// CompleteTrace writes the terminal status and totals of a run.
func (s *TraceService) CompleteTrace(ctx context.Context, traceID, status, output string, totalSteps, totalToolCalls int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agent_traces
		SET status = $2, output = $3, total_steps = $4, total_tool_calls = $5, completed_at = now()
		WHERE id = $1`,
		traceID, status, truncate(output, maxOutputChars), totalSteps, totalToolCalls,
	)
	if err != nil {
		return fmt.Errorf("failed to complete trace: %w", err)
	}
	return nil
}

// RecentTraces returns the user's traces, newest first.
func (s *TraceService) RecentTraces(ctx context.Context, userID string, limit int) ([]models.Trace, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(user_id, ''), COALESCE(conversation_id, ''), agent_name, intent, task,
		       status, output, started_at, completed_at, total_steps, total_tool_calls, feedback
		FROM agent_traces
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer rows.Close()

	var traces []models.Trace
	for rows.Next() {
		t, err := scanTrace(rows)
		if err != nil {
			return nil, err
		}
		traces = append(traces, *t)
	}
	return traces, rows.Err()
}

// GetTrace loads one trace scoped to its owner.
func (s *TraceService) GetTrace(ctx context.Context, traceID, userID string) (*models.Trace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(user_id, ''), COALESCE(conversation_id, ''), agent_name, intent, task,
		       status, output, started_at, completed_at, total_steps, total_tool_calls, feedback
		FROM agent_traces
		WHERE id = $1 AND user_id = $2`,
		traceID, userID,
	)
	t, err := scanTrace(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TraceSteps returns the recorded steps of a trace in execution order.
func (s *TraceService) TraceSteps(ctx context.Context, traceID string) ([]models.TraceStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trace_id, step_number, thought, tool_name, tool_args, tool_result, observation, success, created_at
		FROM agent_steps
		WHERE trace_id = $1
		ORDER BY step_number ASC`,
		traceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace steps: %w", err)
	}
	defer rows.Close()

	var steps []models.TraceStep
	for rows.Next() {
		var step models.TraceStep
		err := rows.Scan(&step.ID, &step.TraceID, &step.StepNumber, &step.Thought,
			&step.ToolName, &step.ToolArgs, &step.ToolResult, &step.Observation,
			&step.Success, &step.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trace step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// SetTraceFeedback records the user's rating of a completed run.
func (s *TraceService) SetTraceFeedback(ctx context.Context, traceID, userID, feedback string) error {
	if feedback != models.FeedbackPositive && feedback != models.FeedbackNegative {
		return NewValidationError("feedback", "must be 'positive' or 'negative'")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE agent_traces SET feedback = $3 WHERE id = $1 AND user_id = $2`,
		traceID, userID, feedback,
	)
	if err != nil {
		return fmt.Errorf("failed to set trace feedback: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check feedback update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func scanTrace(row rowScanner) (*models.Trace, error) {
	var t models.Trace
	var completedAt sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.ConversationID, &t.AgentName, &t.Intent, &t.Task,
		&t.Status, &t.Output, &t.StartedAt, &completedAt, &t.TotalSteps, &t.TotalToolCalls, &t.Feedback)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan trace: %w", err)
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}
