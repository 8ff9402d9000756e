package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kazi-ai/kazi/pkg/models"
)

// GoalService persists goals and their agent-executable steps.
type GoalService struct {
	db *sql.DB
}

// NewGoalService creates a new GoalService.
func NewGoalService(db *sql.DB) *GoalService {
	if db == nil {
		panic("NewGoalService: db must not be nil")
	}
	return &GoalService{db: db}
}

// CreateGoal persists a new active goal and returns its id.
func (s *GoalService) CreateGoal(ctx context.Context, userID, title, description string) (string, error) {
	if title == "" {
		return "", NewValidationError("title", "goal title is required")
	}
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, title, description, status, origin)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, title, description, models.GoalStatusActive, models.GoalOriginUser,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create goal: %w", err)
	}
	return id, nil
}

// AddGoalStep appends a step to a goal at the given step number.
func (s *GoalService) AddGoalStep(ctx context.Context, goalID string, stepNumber int, title, description, agentName string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goal_steps (id, goal_id, step_number, title, description, agent_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, goalID, stepNumber, title, description, agentName, models.StepStatusPending,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add goal step: %w", err)
	}
	return id, nil
}

// Goal loads one goal scoped to its owner. Returns nil when not found.
func (s *GoalService) Goal(ctx context.Context, goalID, userID string) (*models.Goal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(user_id, ''), title, description, status, origin, trigger_type, created_at, updated_at
		FROM goals
		WHERE id = $1 AND user_id = $2`,
		goalID, userID,
	)
	var g models.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Status,
		&g.Origin, &g.TriggerType, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return &g, nil
}

// ListGoals returns the user's goals, newest first, optionally filtered by
// status.
func (s *GoalService) ListGoals(ctx context.Context, userID, status string) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(user_id, ''), title, description, status, origin, trigger_type, created_at, updated_at
		FROM goals
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`,
		userID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Status,
			&g.Origin, &g.TriggerType, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// GoalSteps returns all steps of a goal in step order.
func (s *GoalService) GoalSteps(ctx context.Context, goalID string) ([]models.GoalStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, goal_id, step_number, title, description, agent_name, status, output, COALESCE(trace_id, ''), created_at, completed_at
		FROM goal_steps
		WHERE goal_id = $1
		ORDER BY step_number ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query goal steps: %w", err)
	}
	defer rows.Close()

	var steps []models.GoalStep
	for rows.Next() {
		step, err := scanGoalStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// NextPendingStep returns the lowest-numbered pending step, or nil when the
// goal has none.
func (s *GoalService) NextPendingStep(ctx context.Context, goalID string) (*models.GoalStep, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, goal_id, step_number, title, description, agent_name, status, output, COALESCE(trace_id, ''), created_at, completed_at
		FROM goal_steps
		WHERE goal_id = $1 AND status = $2
		ORDER BY step_number ASC
		LIMIT 1`,
		goalID, models.StepStatusPending,
	)
	step, err := scanGoalStep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return step, nil
}

// UpdateGoalStep writes a step's status, and its output and trace link when
// provided. Terminal statuses also stamp completion time.
func (s *GoalService) UpdateGoalStep(ctx context.Context, stepID, status, output, traceID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE goal_steps
		SET status = $2,
		    output = CASE WHEN $3 = '' THEN output ELSE $3 END,
		    trace_id = CASE WHEN $4 = '' THEN trace_id ELSE $4 END,
		    completed_at = CASE WHEN $2 IN ('completed', 'failed', 'skipped') THEN now() ELSE completed_at END
		WHERE id = $1`,
		stepID, status, output, traceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal step: %w", err)
	}
	return nil
}

// SetStepDescription overwrites a step's description after a re-plan.
func (s *GoalService) SetStepDescription(ctx context.Context, stepID, description string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE goal_steps SET description = $2 WHERE id = $1`,
		stepID, description,
	)
	if err != nil {
		return fmt.Errorf("failed to set step description: %w", err)
	}
	return nil
}

// ShiftPendingSteps moves every pending step at or above fromStep one
// position up, making room for an inserted step.
func (s *GoalService) ShiftPendingSteps(ctx context.Context, goalID string, fromStep int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE goal_steps
		SET step_number = step_number + 1
		WHERE goal_id = $1 AND step_number >= $2 AND status = $3`,
		goalID, fromStep, models.StepStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to shift goal steps: %w", err)
	}
	return nil
}

// UpdateGoalStatus writes a goal's status.
func (s *GoalService) UpdateGoalStatus(ctx context.Context, goalID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE goals SET status = $2, updated_at = now() WHERE id = $1`,
		goalID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal status: %w", err)
	}
	return nil
}

func scanGoalStep(row rowScanner) (*models.GoalStep, error) {
	var step models.GoalStep
	var completedAt sql.NullTime
	err := row.Scan(&step.ID, &step.GoalID, &step.StepNumber, &step.Title, &step.Description,
		&step.AgentName, &step.Status, &step.Output, &step.TraceID, &step.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal step: %w", err)
	}
	if completedAt.Valid {
		step.CompletedAt = &completedAt.Time
	}
	return &step, nil
}
