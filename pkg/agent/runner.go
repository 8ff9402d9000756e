package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kazi-ai/kazi/pkg/bus"
	"github.com/kazi-ai/kazi/pkg/config"
	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm"
	"github.com/kazi-ai/kazi/pkg/models"
	"github.com/kazi-ai/kazi/pkg/tools"
)

// StepRecorder persists individual ReAct steps. Persistence is best effort:
// recording failures are logged, never fatal to the run.
type StepRecorder interface {
	RecordStep(ctx context.Context, step *models.TraceStep) error
}

// Result is the outcome of one agent run.
type Result struct {
	Output    string
	Status    string // completed | failed | cancelled | max_steps
	Steps     int
	ToolCalls int
	FinalStep int
	Elapsed   time.Duration
}

// RunOptions carries the per-dispatch context an agent run participates in.
// All fields are optional; the zero value runs the agent standalone.
type RunOptions struct {
	TraceID   string
	Bus       *bus.Bus
	Events    events.Sink
	Expertise string // learner context block appended to the system prompt
	Hint      string // tool-preference hint appended to the system prompt
}

// Runner drives the ReAct loop for any agent. One runner is safe for
// concurrent runs; all per-run state lives in the run itself.
type Runner struct {
	llm         llm.Client
	steps       StepRecorder
	maxSteps    int
	maxRetries  int
	toolTimeout time.Duration
	logger      *slog.Logger
}

// NewRunner builds a runner from the agent configuration. recorder may be nil
// to disable step persistence.
func NewRunner(client llm.Client, cfg config.AgentConfig, recorder StepRecorder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = config.DefaultMaxSteps
	}
	toolTimeout := cfg.ToolTimeout
	if toolTimeout <= 0 {
		toolTimeout = config.DefaultToolTimeout
	}
	return &Runner{
		llm:         client,
		steps:       recorder,
		maxSteps:    maxSteps,
		maxRetries:  cfg.MaxToolRetries,
		toolTimeout: toolTimeout,
		logger:      logger,
	}
}

// Run executes the ReAct loop: each step the agent thinks, optionally calls
// exactly one tool, and observes the result. The loop ends on FINAL_ANSWER,
// on cancellation, on an LLM failure, or when the step budget is exhausted
// (in which case the history summary becomes the output).
func (r *Runner) Run(ctx context.Context, a *Agent, task string, opts RunOptions) (*Result, error) {
	start := time.Now()
	mem := NewMemory()
	res := &Result{}
	log := r.logger.With("agent", a.Name, "trace_id", opts.TraceID)

	events.Publish(opts.Events, events.Event{
		Type:    events.TypeAgentStatus,
		Payload: events.AgentStatusPayload{Agent: a.Name, Status: "started"},
	})

	// Bus context is read once; mid-run bus traffic does not reshape the
	// prompt between steps.
	userTask := task
	if opts.Bus != nil {
		userTask += opts.Bus.ContextFor(a.Name)
	}

	for step := 1; step <= r.maxSteps; step++ {
		// Cooperative cancellation at the top of every step.
		if err := ctx.Err(); err != nil {
			res.Status = models.TraceStatusCancelled
			res.Output = "Run cancelled."
			res.Steps = mem.StepCount()
			res.Elapsed = time.Since(start)
			log.Info("agent run cancelled", "step", step)
			return res, nil
		}

		log.Debug("react step", "step", step, "max_steps", r.maxSteps)

		resp, err := r.llm.Chat(ctx, llm.Request{
			Messages: r.buildMessages(a, userTask, mem, opts),
			Tools:    a.Registry.Specs(),
		})
		if err != nil {
			res.Status = models.TraceStatusFailed
			res.Steps = mem.StepCount()
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("agent %s step %d: %w", a.Name, step, err)
		}

		if len(resp.ToolCalls) > 0 {
			// Single tool per step keeps observations attributable.
			tc := resp.ToolCalls[0]
			thought := resp.Content
			if thought == "" {
				thought = "Using " + tc.Name
			}

			events.Publish(opts.Events, events.Event{
				Type:    events.TypeAgentReasoning,
				Payload: events.AgentReasoningPayload{Agent: a.Name, Step: step, Thought: thought},
			})

			var args map[string]any
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
				args = map[string]any{}
			}

			result := r.executeWithRetry(ctx, a, tc.Name, args, log)
			res.ToolCalls++

			events.Publish(opts.Events, events.Event{
				Type:    events.TypeToolStatus,
				Payload: events.ToolStatusPayload{Agent: a.Name, Tool: tc.Name, Success: !tools.Failed(result)},
			})

			observation := marshalObservation(result)
			mem.AddStep(Step{
				StepNumber: step,
				Thought:    thought,
				ToolCall: &ToolExecution{
					ToolName:  tc.Name,
					Arguments: args,
					Result:    result,
				},
				Observation: observation,
			})
			r.recordStep(ctx, opts.TraceID, step, thought, tc.Name, args, result, observation, log)
			continue
		}

		content := resp.Content
		if idx := strings.Index(content, "FINAL_ANSWER"); idx >= 0 {
			final := strings.TrimSpace(content[idx+len("FINAL_ANSWER"):])
			res.Status = models.TraceStatusCompleted
			res.Output = final
			res.Steps = mem.StepCount()
			res.FinalStep = step
			res.Elapsed = time.Since(start)
			log.Info("agent run complete", "steps", step, "tool_calls", res.ToolCalls)
			events.Publish(opts.Events, events.Event{
				Type:    events.TypeAgentStatus,
				Payload: events.AgentStatusPayload{Agent: a.Name, Status: "completed"},
			})
			return res, nil
		}

		events.Publish(opts.Events, events.Event{
			Type:    events.TypeAgentReasoning,
			Payload: events.AgentReasoningPayload{Agent: a.Name, Step: step, Thought: content},
		})
		mem.AddStep(Step{StepNumber: step, Thought: content})
		r.recordStep(ctx, opts.TraceID, step, content, "", nil, nil, "", log)
	}

	// Step budget exhausted: the history is still useful output.
	res.Status = models.TraceStatusMaxSteps
	res.Output = mem.HistorySummary()
	res.Steps = mem.StepCount()
	res.Elapsed = time.Since(start)
	log.Warn("agent run hit step limit", "max_steps", r.maxSteps, "tool_calls", res.ToolCalls)
	return res, nil
}

// executeWithRetry runs a tool, retrying while the result reports an
// explicit failure, up to the configured retry budget. A result without a
// "success" key counts as success.
func (r *Runner) executeWithRetry(ctx context.Context, a *Agent, name string, args map[string]any, log *slog.Logger) map[string]any {
	t, ok := a.Registry.Get(name)
	if !ok {
		return map[string]any{"success": false, "error": "Unknown tool: " + name}
	}

	var result map[string]any
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		result = r.executeOnce(ctx, t, args)
		if !tools.Failed(result) {
			return result
		}
		if attempt < r.maxRetries {
			log.Debug("tool failed, retrying", "tool", name, "attempt", attempt+1)
		}
	}
	return result
}

func (r *Runner) executeOnce(ctx context.Context, t tools.Tool, args map[string]any) (result map[string]any) {
	toolCtx, cancel := context.WithTimeout(ctx, r.toolTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			result = map[string]any{"success": false, "error": fmt.Sprintf("Tool failed: %v", rec)}
		}
	}()
	return t.Execute(toolCtx, args)
}

// buildMessages reconstructs the conversation for the LLM call: system
// prompt, the task, then each recorded step as thought plus tool exchange.
func (r *Runner) buildMessages(a *Agent, task string, mem *Memory, opts RunOptions) []llm.Message {
	system := a.PromptWithTools()
	if opts.Expertise != "" {
		system += "\n\n" + opts.Expertise
	}
	if opts.Hint != "" {
		system += "\n\n" + opts.Hint
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: task},
	}

	for _, step := range mem.Steps() {
		messages = append(messages, llm.Message{
			Role:    llm.RoleAssistant,
			Content: "Thought: " + step.Thought,
		})
		if step.ToolCall != nil {
			callID := fmt.Sprintf("call_%d", step.StepNumber)
			argsJSON, _ := json.Marshal(step.ToolCall.Arguments)
			messages = append(messages, llm.Message{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{
					ID:        callID,
					Name:      step.ToolCall.ToolName,
					Arguments: string(argsJSON),
				}},
			})
			resultJSON, _ := json.Marshal(step.ToolCall.Result)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    string(resultJSON),
				ToolCallID: callID,
			})
		}
	}
	return messages
}

func (r *Runner) recordStep(ctx context.Context, traceID string, step int, thought, toolName string, args, result map[string]any, observation string, log *slog.Logger) {
	if r.steps == nil || traceID == "" {
		return
	}
	rec := &models.TraceStep{
		TraceID:     traceID,
		StepNumber:  step,
		Thought:     thought,
		Observation: observation,
		Success:     true,
	}
	if toolName != "" {
		rec.ToolName = toolName
		if argsJSON, err := json.Marshal(args); err == nil {
			rec.ToolArgs = string(argsJSON)
		}
		if resultJSON, err := json.Marshal(result); err == nil {
			rec.ToolResult = string(resultJSON)
		}
		rec.Success = !tools.Failed(result)
	}
	if err := r.steps.RecordStep(ctx, rec); err != nil {
		log.Warn("failed to record trace step", "step", step, "error", err)
	}
}

func marshalObservation(result map[string]any) string {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(out)
}
