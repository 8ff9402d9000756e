// Package planner decomposes career goals into agent-executable steps and
// drives their execution, re-evaluating the plan between steps.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm"
	"github.com/kazi-ai/kazi/pkg/models"
	"github.com/kazi-ai/kazi/pkg/orchestrator"
	"github.com/kazi-ai/kazi/pkg/router"
)

// maxAutoSteps caps auto-execution, counting dynamically inserted steps.
const maxAutoSteps = 10

// maxPlanSteps bounds a single plan.
const maxPlanSteps = 6

// GoalStore persists goals and their steps.
type GoalStore interface {
	CreateGoal(ctx context.Context, userID, title, description string) (string, error)
	AddGoalStep(ctx context.Context, goalID string, stepNumber int, title, description, agentName string) (string, error)
	Goal(ctx context.Context, goalID, userID string) (*models.Goal, error)
	GoalSteps(ctx context.Context, goalID string) ([]models.GoalStep, error)
	NextPendingStep(ctx context.Context, goalID string) (*models.GoalStep, error)
	UpdateGoalStep(ctx context.Context, stepID, status, output, traceID string) error
	UpdateGoalStatus(ctx context.Context, goalID, status string) error
	SetStepDescription(ctx context.Context, stepID, description string) error
	ShiftPendingSteps(ctx context.Context, goalID string, fromStep int) error
}

// Dispatcher runs a routed request through the agent pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, req orchestrator.Request, sink events.Sink) *orchestrator.Outcome
}

var validAgents = map[string]bool{
	"scout": true, "match": true, "forge": true, "coach": true,
}

const planningPrompt = `You are a career goal planner. Given a user's career goal, decompose it into 3-6 concrete, actionable steps that can each be handled by a specialized AI agent.

AVAILABLE AGENTS:
- scout: Searches for jobs, researches companies, explores the market
- match: Analyzes resume vs job description, scores ATS compatibility, identifies gaps
- forge: Writes cover letters, rewrites resume bullets, creates application materials
- coach: Prepares interview questions, provides talking points, offers strategic advice

RULES:
- Each step should be a clear, specific action (not vague)
- Assign exactly one agent per step
- Order steps logically (research before analysis, analysis before writing)
- 3-6 steps total (fewer for simple goals, more for complex)
- Step titles should be concise (under 60 chars)

Respond with ONLY valid JSON (no markdown):
{
  "title": "Short goal title (under 60 chars)",
  "steps": [
    {"title": "Step title", "description": "What this step does", "agent_name": "scout|match|forge|coach"},
    ...
  ]
}`

const replanPrompt = `You are a plan evaluator. After completing a step in a multi-step career plan, decide if the plan should continue as-is or be adjusted.

Given: the step that just completed, its output, and the remaining steps.

DECISIONS:
- "continue": The step succeeded, proceed with the next step as planned.
- "modify_step": The next step needs adjustment based on what we learned. Provide a new description.
- "add_step": Insert an additional step before the next one. Provide title, description, agent_name.
- "skip_next": The next step is no longer needed (already covered by this step's output).

Respond with ONLY valid JSON (no markdown):
{"action": "continue|modify_step|add_step|skip_next", "reason": "brief explanation", "new_title": "", "new_description": "", "agent_name": ""}`

// PlanStep is one agent-executable step of a proposed plan.
type PlanStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AgentName   string `json:"agent_name"`
}

// Plan is a normalized goal decomposition, not yet persisted.
type Plan struct {
	Title string     `json:"title"`
	Steps []PlanStep `json:"steps"`
}

// Adjustment is the re-plan verdict after a completed step.
type Adjustment struct {
	Action         string
	Reason         string
	NewTitle       string
	NewDescription string
	AgentName      string
}

// Replan actions.
const (
	AdjustContinue   = "continue"
	AdjustModifyStep = "modify_step"
	AdjustAddStep    = "add_step"
	AdjustSkipNext   = "skip_next"
)

var validAdjustments = map[string]bool{
	AdjustContinue: true, AdjustModifyStep: true, AdjustAddStep: true, AdjustSkipNext: true,
}

// StepResult reports one executed goal step.
type StepResult struct {
	StepID     string `json:"step_id"`
	StepNumber int    `json:"step_number"`
	Title      string `json:"step_title"`
	AgentName  string `json:"agent_name"`
	Output     string `json:"output"`
	Status     string `json:"status"` // completed | failed
}

// Status is a goal with its steps and progress.
type Status struct {
	Goal           *models.Goal      `json:"goal"`
	Steps          []models.GoalStep `json:"steps"`
	TotalSteps     int               `json:"total_steps"`
	CompletedSteps int               `json:"completed_steps"`
	Progress       float64           `json:"progress"`
}

// UserContext carries the user material goal steps execute with.
type UserContext struct {
	ResumeText string
	Profile    *models.Profile
}

// Planner decomposes goals and executes their steps through the dispatcher.
type Planner struct {
	llm        llm.Client
	dispatcher Dispatcher
	store      GoalStore
	logger     *slog.Logger
}

func New(client llm.Client, dispatcher Dispatcher, store GoalStore, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{llm: client, dispatcher: dispatcher, store: store, logger: logger}
}

// CreatePlan decomposes a goal into 1-6 agent steps. Classification failures
// fall back to the generic four-agent plan.
func (p *Planner) CreatePlan(ctx context.Context, goalText, userContext string) Plan {
	resp, err := p.llm.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: planningPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Goal: %s\n\n%s", goalText, userContext)},
		},
		MaxTokens:   600,
		Temperature: 0.2,
	})
	if err != nil {
		p.logger.Warn("plan creation call failed", "error", err)
		return fallbackPlan(goalText)
	}

	var raw struct {
		Title string `json:"title"`
		Steps []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			AgentName   string `json:"agent_name"`
		} `json:"steps"`
	}
	if err := llm.DecodeJSONReply(resp.Content, &raw); err != nil {
		p.logger.Warn("plan reply was not valid JSON", "error", err)
		return fallbackPlan(goalText)
	}

	title := raw.Title
	if title == "" {
		title = goalText
	}
	plan := Plan{Title: truncate(title, 60)}
	for _, s := range raw.Steps {
		if len(plan.Steps) >= maxPlanSteps {
			break
		}
		if s.Title == "" {
			continue
		}
		agentName := s.AgentName
		if !validAgents[agentName] {
			agentName = "scout"
		}
		plan.Steps = append(plan.Steps, PlanStep{
			Title:       truncate(s.Title, 60),
			Description: s.Description,
			AgentName:   agentName,
		})
	}
	if len(plan.Steps) == 0 {
		plan.Steps = []PlanStep{{Title: "Research opportunities", Description: goalText, AgentName: "scout"}}
	}
	return plan
}

// SavePlan persists a plan as a goal with ordered steps and returns the goal id.
func (p *Planner) SavePlan(ctx context.Context, userID string, plan Plan) (string, error) {
	goalID, err := p.store.CreateGoal(ctx, userID, plan.Title, "")
	if err != nil {
		return "", fmt.Errorf("create goal: %w", err)
	}
	for i, step := range plan.Steps {
		if _, err := p.store.AddGoalStep(ctx, goalID, i+1, step.Title, step.Description, step.AgentName); err != nil {
			return "", fmt.Errorf("add goal step %d: %w", i+1, err)
		}
	}
	return goalID, nil
}

// ExecuteNextStep runs the lowest pending step of a goal through the
// dispatcher. Returns nil when the goal has no pending steps.
func (p *Planner) ExecuteNextStep(ctx context.Context, goalID, userID string, uc UserContext) (*StepResult, error) {
	step, err := p.store.NextPendingStep(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("next pending step: %w", err)
	}
	if step == nil {
		return nil, nil
	}
	goal, err := p.store.Goal(ctx, goalID, userID)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	if goal == nil {
		return nil, nil
	}

	result := p.runStep(ctx, goal, step, uc, nil)
	if err := p.finishGoalIfDone(ctx, goalID); err != nil {
		p.logger.Warn("failed to update goal status", "goal_id", goalID, "error", err)
	}
	return result, nil
}

// AutoExecute runs all remaining steps of a goal, emitting progress events
// and re-evaluating the plan after each completed step.
func (p *Planner) AutoExecute(ctx context.Context, goalID, userID string, uc UserContext, sink events.Sink) {
	goal, err := p.store.Goal(ctx, goalID, userID)
	if err != nil || goal == nil {
		events.Publish(sink, events.Event{
			Type:    events.TypeGoalComplete,
			Payload: events.GoalCompletePayload{Status: "not_found"},
		})
		return
	}

	for i := 0; i < maxAutoSteps; i++ {
		if err := ctx.Err(); err != nil {
			events.Publish(sink, events.Event{
				Type:    events.TypeGoalComplete,
				Payload: events.GoalCompletePayload{Status: "cancelled"},
			})
			return
		}

		step, err := p.store.NextPendingStep(ctx, goalID)
		if err != nil {
			p.logger.Warn("failed to load next pending step", "goal_id", goalID, "error", err)
			break
		}
		if step == nil {
			break
		}

		events.Publish(sink, events.Event{
			Type: events.TypeGoalStepStart,
			Payload: events.GoalStepStartPayload{
				StepNumber: step.StepNumber,
				Title:      step.Title,
				Agent:      step.AgentName,
			},
		})

		result := p.runStep(ctx, goal, step, uc, sink)

		events.Publish(sink, events.Event{
			Type: events.TypeGoalStepComplete,
			Payload: events.GoalStepCompletePayload{
				StepNumber:    step.StepNumber,
				Status:        result.Status,
				OutputPreview: truncate(result.Output, 500),
			},
		})

		if result.Status == models.StepStatusCompleted {
			p.replanAfter(ctx, goalID, step, result.Output, sink)
		}
	}

	status := "partial"
	if done, err := p.allStepsTerminal(ctx, goalID); err == nil && done {
		if err := p.store.UpdateGoalStatus(ctx, goalID, models.GoalStatusCompleted); err != nil {
			p.logger.Warn("failed to complete goal", "goal_id", goalID, "error", err)
		}
		status = "completed"
	}
	events.Publish(sink, events.Event{
		Type:    events.TypeGoalComplete,
		Payload: events.GoalCompletePayload{Status: status},
	})
}

// PlanStatus returns a goal with all steps and progress, or nil when the
// goal does not exist for the user.
func (p *Planner) PlanStatus(ctx context.Context, goalID, userID string) (*Status, error) {
	goal, err := p.store.Goal(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, nil
	}
	steps, err := p.store.GoalSteps(ctx, goalID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, s := range steps {
		if s.Status == models.StepStatusCompleted {
			completed++
		}
	}
	status := &Status{
		Goal:           goal,
		Steps:          steps,
		TotalSteps:     len(steps),
		CompletedSteps: completed,
	}
	if len(steps) > 0 {
		status.Progress = float64(completed) / float64(len(steps))
	}
	return status, nil
}

// runStep executes one step as a single-agent dispatch and writes back its
// status and output.
func (p *Planner) runStep(ctx context.Context, goal *models.Goal, step *models.GoalStep, uc UserContext, sink events.Sink) *StepResult {
	if err := p.store.UpdateGoalStep(ctx, step.ID, models.StepStatusInProgress, "", ""); err != nil {
		p.logger.Warn("failed to mark step in progress", "step_id", step.ID, "error", err)
	}

	decision := router.Decision{
		Intent:    "goal_step",
		Agents:    []string{step.AgentName},
		Context:   router.ExtractedContext{Role: goal.Title},
		Reasoning: "Executing goal step: " + step.Title,
	}
	outcome := p.dispatcher.Dispatch(ctx, orchestrator.Request{
		UserID:     goal.UserID,
		Message:    fmt.Sprintf("%s: %s", goal.Title, step.Description),
		Profile:    uc.Profile,
		ResumeText: uc.ResumeText,
		Decision:   decision,
	}, sink)

	output := "Agent did not produce output"
	traceID := ""
	status := models.StepStatusFailed
	if len(outcome.Runs) > 0 && outcome.Runs[0].Result != nil {
		run := outcome.Runs[0]
		traceID = run.TraceID
		if run.Result.Output != "" {
			output = run.Result.Output
		}
		if run.Result.Status == models.TraceStatusCompleted {
			status = models.StepStatusCompleted
		}
	}

	if err := p.store.UpdateGoalStep(ctx, step.ID, status, output, traceID); err != nil {
		p.logger.Warn("failed to record step result", "step_id", step.ID, "error", err)
	}

	return &StepResult{
		StepID:     step.ID,
		StepNumber: step.StepNumber,
		Title:      step.Title,
		AgentName:  step.AgentName,
		Output:     output,
		Status:     status,
	}
}

// replanAfter runs the re-plan call and applies the adjustment to the
// remaining pending steps.
func (p *Planner) replanAfter(ctx context.Context, goalID string, completed *models.GoalStep, output string, sink events.Sink) {
	steps, err := p.store.GoalSteps(ctx, goalID)
	if err != nil {
		p.logger.Warn("failed to load steps for re-plan", "goal_id", goalID, "error", err)
		return
	}
	var pending []models.GoalStep
	for _, s := range steps {
		if s.Status == models.StepStatusPending {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return
	}

	adj := p.reEvaluate(ctx, completed, output, pending)
	if adj.Action == AdjustContinue {
		return
	}

	events.Publish(sink, events.Event{
		Type:    events.TypeGoalReplan,
		Payload: events.GoalReplanPayload{Adjustment: adj.Action, Reason: adj.Reason},
	})

	next := pending[0]
	switch adj.Action {
	case AdjustSkipNext:
		err = p.store.UpdateGoalStep(ctx, next.ID, models.StepStatusSkipped, "Skipped: "+adj.Reason, "")
	case AdjustModifyStep:
		if adj.NewDescription != "" {
			err = p.store.SetStepDescription(ctx, next.ID, adj.NewDescription)
		}
	case AdjustAddStep:
		if adj.NewTitle != "" && adj.AgentName != "" {
			if err = p.store.ShiftPendingSteps(ctx, goalID, next.StepNumber); err == nil {
				_, err = p.store.AddGoalStep(ctx, goalID, next.StepNumber, adj.NewTitle, adj.NewDescription, adj.AgentName)
			}
		}
	}
	if err != nil {
		p.logger.Warn("failed to apply plan adjustment", "goal_id", goalID, "action", adj.Action, "error", err)
	}
}

// reEvaluate asks the LLM whether the plan should change after a completed
// step. Any failure reduces to continue.
func (p *Planner) reEvaluate(ctx context.Context, completed *models.GoalStep, output string, pending []models.GoalStep) Adjustment {
	var remaining strings.Builder
	for _, s := range pending {
		fmt.Fprintf(&remaining, "- Step %d: %s (%s)\n", s.StepNumber, s.Title, s.AgentName)
	}
	userMsg := fmt.Sprintf("Completed step: %s (%s)\nOutput preview: %s\n\nRemaining steps:\n%s",
		completed.Title, completed.AgentName, truncate(output, 800), remaining.String())

	resp, err := p.llm.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: replanPrompt},
			{Role: llm.RoleUser, Content: userMsg},
		},
		MaxTokens:   200,
		Temperature: 0.1,
	})
	if err != nil {
		p.logger.Warn("re-plan call failed", "error", err)
		return Adjustment{Action: AdjustContinue, Reason: "Re-plan fallback"}
	}

	var raw struct {
		Action         string `json:"action"`
		Reason         string `json:"reason"`
		NewTitle       string `json:"new_title"`
		NewDescription string `json:"new_description"`
		AgentName      string `json:"agent_name"`
	}
	if err := llm.DecodeJSONReply(resp.Content, &raw); err != nil {
		p.logger.Warn("re-plan reply was not valid JSON", "error", err)
		return Adjustment{Action: AdjustContinue, Reason: "Re-plan fallback"}
	}

	if !validAdjustments[raw.Action] {
		raw.Action = AdjustContinue
	}
	if raw.AgentName != "" && !validAgents[raw.AgentName] {
		raw.AgentName = ""
	}
	return Adjustment{
		Action:         raw.Action,
		Reason:         truncate(raw.Reason, 200),
		NewTitle:       truncate(raw.NewTitle, 60),
		NewDescription: raw.NewDescription,
		AgentName:      raw.AgentName,
	}
}

func (p *Planner) finishGoalIfDone(ctx context.Context, goalID string) error {
	done, err := p.allStepsTerminal(ctx, goalID)
	if err != nil || !done {
		return err
	}
	return p.store.UpdateGoalStatus(ctx, goalID, models.GoalStatusCompleted)
}

// allStepsTerminal reports whether every step reached a terminal status.
func (p *Planner) allStepsTerminal(ctx context.Context, goalID string) (bool, error) {
	steps, err := p.store.GoalSteps(ctx, goalID)
	if err != nil {
		return false, err
	}
	for _, s := range steps {
		switch s.Status {
		case models.StepStatusCompleted, models.StepStatusSkipped, models.StepStatusFailed:
		default:
			return false, nil
		}
	}
	return true, nil
}

func fallbackPlan(goalText string) Plan {
	return Plan{
		Title: truncate(goalText, 60),
		Steps: []PlanStep{
			{Title: "Research opportunities", Description: "Search for relevant positions: " + goalText, AgentName: "scout"},
			{Title: "Analyze fit", Description: "Compare your background against requirements", AgentName: "match"},
			{Title: "Prepare materials", Description: "Write tailored cover letter and resume", AgentName: "forge"},
			{Title: "Prep for interviews", Description: "Practice likely interview questions", AgentName: "coach"},
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
