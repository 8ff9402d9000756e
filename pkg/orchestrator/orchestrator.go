// Package orchestrator runs the agent pipeline for one user request: it
// dispatches agents in queue order over a shared message bus, evaluates each
// output to adjust the queue, extracts memories, and resolves conflicting
// agent conclusions through negotiation.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kazi-ai/kazi/pkg/agent"
	"github.com/kazi-ai/kazi/pkg/bus"
	"github.com/kazi-ai/kazi/pkg/events"
	"github.com/kazi-ai/kazi/pkg/llm"
	"github.com/kazi-ai/kazi/pkg/models"
	"github.com/kazi-ai/kazi/pkg/negotiation"
	"github.com/kazi-ai/kazi/pkg/router"
	"github.com/kazi-ai/kazi/pkg/tools"
)

// defaultConfidence is assigned to agent responses that do not self-report one.
const defaultConfidence = 0.8

// TraceStore persists agent execution traces. Persistence is best effort:
// a failing store degrades tracing, never the dispatch.
type TraceStore interface {
	CreateTrace(ctx context.Context, trace *models.Trace) (string, error)
	CompleteTrace(ctx context.Context, traceID, status, output string, totalSteps, totalToolCalls int) error
}

// FactStore receives facts mined from agent outputs.
type FactStore interface {
	SaveMemory(ctx context.Context, userID, content, category string) (string, error)
}

// Request is one user message routed into the pipeline.
type Request struct {
	UserID         string
	ConversationID string
	Message        string
	Profile        *models.Profile
	ResumeText     string
	Decision       router.Decision
}

// AgentRun is the outcome of one top-level agent in the pipeline.
type AgentRun struct {
	Agent   string
	TraceID string
	Result  *agent.Result
}

// Outcome is everything a dispatch produced.
type Outcome struct {
	Runs      []AgentRun
	Bus       *bus.Bus
	TraceIDs  []string
	Consensus *negotiation.Consensus
}

// Options wires the orchestrator's collaborators. LLM and Runner are
// required; everything else may be nil and degrades gracefully.
type Options struct {
	LLM            llm.Client
	Runner         *agent.Runner
	Traces         TraceStore
	Facts          FactStore
	Negotiations   negotiation.Store
	Learner        *agent.Learner
	Hints          agent.HintProvider
	Memory         tools.MemoryStore
	TraceReader    tools.TraceReader
	Resumes        tools.ResumeStore
	MaxDelegations int
	Logger         *slog.Logger
}

// Orchestrator coordinates agents, evaluator, memory and negotiation for
// each dispatch. Safe for concurrent dispatches; all per-dispatch state
// lives on the stack and the per-dispatch bus.
type Orchestrator struct {
	llm            llm.Client
	runner         *agent.Runner
	evaluator      *Evaluator
	traces         TraceStore
	facts          FactStore
	negotiations   negotiation.Store
	learner        *agent.Learner
	hints          agent.HintProvider
	memory         tools.MemoryStore
	traceReader    tools.TraceReader
	resumes        tools.ResumeStore
	maxDelegations int
	logger         *slog.Logger
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hints := opts.Hints
	if hints == nil {
		hints = agent.NoopHints{}
	}
	maxDelegations := opts.MaxDelegations
	if maxDelegations <= 0 {
		maxDelegations = tools.MaxDelegations
	}
	return &Orchestrator{
		llm:            opts.LLM,
		runner:         opts.Runner,
		evaluator:      NewEvaluator(opts.LLM, logger),
		traces:         opts.Traces,
		facts:          opts.Facts,
		negotiations:   opts.Negotiations,
		learner:        opts.Learner,
		hints:          hints,
		memory:         opts.Memory,
		traceReader:    opts.TraceReader,
		resumes:        opts.Resumes,
		maxDelegations: maxDelegations,
		logger:         logger,
	}
}

// Dispatch runs the routed agent pipeline for one request. The queue starts
// as the routing decision's agent list; the evaluator mutates it after each
// run. The iteration cap keeps loop_back decisions from spinning forever.
func (o *Orchestrator) Dispatch(ctx context.Context, req Request, sink events.Sink) *Outcome {
	b := bus.New()
	out := &Outcome{Bus: b}

	b.Send(bus.Message{
		Sender:   "user",
		Receiver: "orchestrator",
		Type:     bus.MsgRequest,
		Payload: map[string]any{
			"message": req.Message,
			"intent":  req.Decision.Intent,
		},
	})

	deps := agent.Deps{
		UserID:  req.UserID,
		Memory:  o.memory,
		Traces:  o.traceReader,
		Resumes: o.resumes,
	}
	counter := tools.NewDelegationCounter(o.maxDelegations)

	queue := append([]string(nil), req.Decision.Agents...)
	maxIterations := len(queue) + 3
	delegationsSeen := 0

	for iteration := 0; len(queue) > 0 && iteration < maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			o.logger.Info("dispatch cancelled", "user_id", req.UserID, "pending_agents", queue)
			break
		}

		name := queue[0]
		queue = queue[1:]

		a, err := agent.Build(name, deps)
		if err != nil {
			o.logger.Error("unknown agent in queue", "agent", name)
			continue
		}
		a.Registry.Register(&tools.DelegateTool{
			Run:     o.subAgentRunner(req, b, name, deps, sink, out),
			Counter: counter,
			Agents:  agent.AgentNames,
		})

		task := buildTask(req, name)
		expertise := ""
		if o.learner != nil {
			expertise = o.learner.ExpertiseContext(ctx, req.UserID, name)
		}
		hint := o.hints.ToolHints(ctx, req.UserID, name, req.Message)

		traceID := o.createTrace(ctx, req, name, req.Decision.Intent, task)
		if traceID != "" {
			out.TraceIDs = append(out.TraceIDs, traceID)
		}

		res, err := o.runner.Run(ctx, a, task, agent.RunOptions{
			TraceID:   traceID,
			Bus:       b,
			Events:    sink,
			Expertise: expertise,
			Hint:      hint,
		})
		if err != nil {
			o.logger.Error("agent run failed", "agent", name, "error", err)
			o.completeTrace(ctx, traceID, models.TraceStatusFailed, err.Error(), res.Steps, res.ToolCalls)
			b.Send(bus.Message{
				Sender:   name,
				Receiver: "orchestrator",
				Type:     bus.MsgError,
				Payload:  map[string]any{"error": err.Error()},
				TraceID:  traceID,
			})
			events.Publish(sink, events.Event{
				Type:    events.TypeAgentStatus,
				Payload: events.AgentStatusPayload{Agent: name, Status: "failed"},
			})
			out.Runs = append(out.Runs, AgentRun{Agent: name, TraceID: traceID, Result: res})
			continue
		}

		o.completeTrace(ctx, traceID, res.Status, res.Output, res.Steps, res.ToolCalls)
		b.Send(bus.Message{
			Sender:   name,
			Receiver: "orchestrator",
			Type:     bus.MsgResponse,
			Payload: map[string]any{
				"output":     res.Output,
				"confidence": defaultConfidence,
				"status":     res.Status,
			},
			TraceID: traceID,
		})
		out.Runs = append(out.Runs, AgentRun{Agent: name, TraceID: traceID, Result: res})

		o.rememberFacts(ctx, req, res.Output)

		queue = o.applyEvaluation(ctx, req, name, res.Output, queue, b, sink)

		// Delegate messages are requests for work not yet run; queue any
		// requested agent not already pending.
		delegations := b.Delegations()
		for _, msg := range delegations[delegationsSeen:] {
			target, _ := msg.Payload["agent"].(string)
			if agent.Known(target) && !contains(queue, target) {
				queue = append([]string{target}, queue...)
			}
		}
		delegationsSeen = len(delegations)
	}

	out.Consensus = o.negotiate(ctx, req, b, sink)

	if len(out.TraceIDs) > 0 {
		events.Publish(sink, events.Event{
			Type:    events.TypeTraceIDs,
			Payload: events.TraceIDsPayload{TraceIDs: out.TraceIDs},
		})
	}
	return out
}

// applyEvaluation runs the evaluator on one agent's output, records the
// verdict as an observation, and returns the mutated queue.
func (o *Orchestrator) applyEvaluation(ctx context.Context, req Request, agentName, output string, queue []string, b *bus.Bus, sink events.Sink) []string {
	decision := o.evaluator.Evaluate(ctx, agentName, req.Decision.Intent, output, queue)

	b.Send(bus.Message{
		Sender:   "evaluator",
		Receiver: "orchestrator",
		Type:     bus.MsgObservation,
		Payload: map[string]any{
			"note":   fmt.Sprintf("Evaluator on %s: %s (%s)", agentName, decision.Action, decision.Reason),
			"action": decision.Action,
		},
	})
	events.Publish(sink, events.Event{
		Type: events.TypeEvaluator,
		Payload: events.EvaluatorPayload{
			Agent:       agentName,
			Action:      decision.Action,
			Reason:      decision.Reason,
			TargetAgent: decision.TargetAgent,
		},
	})
	switch decision.Action {
	case ActionStop:
		queue = nil
	case ActionSkipNext:
		if len(queue) > 0 {
			queue = queue[1:]
		}
	case ActionLoopBack:
		queue = append([]string{decision.TargetAgent}, remove(queue, decision.TargetAgent)...)
	case ActionAddAgent:
		if !contains(queue, decision.TargetAgent) {
			queue = append(queue, decision.TargetAgent)
		}
	}
	return queue
}

// subAgentRunner builds the closure the delegate tool invokes. Sub-agents
// get the parent's shared bus and memory tools but no delegate tool of their
// own, which caps delegation depth at one. The completed sub-run is recorded
// as an observation; the parent already holds the output as its tool result,
// so posting a response or delegate message would double-count the work.
func (o *Orchestrator) subAgentRunner(req Request, b *bus.Bus, parent string, deps agent.Deps, sink events.Sink, out *Outcome) tools.SubAgentRunner {
	return func(ctx context.Context, agentName, task string) (string, error) {
		sub, err := agent.Build(agentName, deps)
		if err != nil {
			return "", err
		}

		traceID := o.createTrace(ctx, req, agentName, "delegation", task)
		if traceID != "" {
			out.TraceIDs = append(out.TraceIDs, traceID)
		}

		res, err := o.runner.Run(ctx, sub, task, agent.RunOptions{
			TraceID: traceID,
			Bus:     b,
			Events:  sink,
		})
		if err != nil {
			o.completeTrace(ctx, traceID, models.TraceStatusFailed, err.Error(), 0, 0)
			return "", err
		}
		o.completeTrace(ctx, traceID, res.Status, res.Output, res.Steps, res.ToolCalls)

		b.Send(bus.Message{
			Sender:   parent,
			Receiver: "orchestrator",
			Type:     bus.MsgObservation,
			Payload: map[string]any{
				"note":  fmt.Sprintf("%s delegated to %s: %s", parent, agentName, truncate(res.Output, 2000)),
				"agent": agentName,
				"task":  truncate(task, 500),
			},
			TraceID: traceID,
		})
		return res.Output, nil
	}
}

// negotiate resolves at most one conflict per dispatch: the first one
// detected gets a debate, and its consensus is posted back on the bus.
func (o *Orchestrator) negotiate(ctx context.Context, req Request, b *bus.Bus, sink events.Sink) *negotiation.Consensus {
	conflicts := negotiation.DetectConflicts(b)
	if len(conflicts) == 0 {
		return nil
	}
	conflict := conflicts[0]
	o.logger.Info("conflict detected", "agents", conflict.Agents, "topic", conflict.Topic)

	session := negotiation.NewSession(conflict, b, o.llm, o.negotiations, req.ConversationID, o.logger)
	consensus := session.Run(ctx, sink)

	b.Send(bus.Message{
		Sender:   "negotiator",
		Receiver: "orchestrator",
		Type:     bus.MsgConsensus,
		Payload: map[string]any{
			"consensus_reached": consensus.Reached,
			"position":          consensus.Position,
			"confidence":        consensus.Confidence,
			"dissenting_views":  consensus.DissentingViews,
		},
	})
	return &consensus
}

// rememberFacts mines an agent output for user facts and stores each one.
func (o *Orchestrator) rememberFacts(ctx context.Context, req Request, output string) {
	if o.facts == nil || output == "" {
		return
	}
	for _, fact := range extractFacts(ctx, o.llm, req.Message, output, o.logger) {
		if _, err := o.facts.SaveMemory(ctx, req.UserID, fact.Content, fact.Category); err != nil {
			o.logger.Warn("failed to save extracted fact", "category", fact.Category, "error", err)
		}
	}
}

func (o *Orchestrator) createTrace(ctx context.Context, req Request, agentName, intent, task string) string {
	if o.traces == nil {
		return ""
	}
	id, err := o.traces.CreateTrace(ctx, &models.Trace{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		AgentName:      agentName,
		Intent:         intent,
		Task:           task,
		Status:         models.TraceStatusRunning,
		StartedAt:      time.Now().UTC(),
	})
	if err != nil {
		o.logger.Warn("failed to create trace", "agent", agentName, "error", err)
		return ""
	}
	return id
}

func (o *Orchestrator) completeTrace(ctx context.Context, traceID, status, output string, steps, toolCalls int) {
	if o.traces == nil || traceID == "" {
		return
	}
	if err := o.traces.CompleteTrace(ctx, traceID, status, output, steps, toolCalls); err != nil {
		o.logger.Warn("failed to complete trace", "trace_id", traceID, "error", err)
	}
}

// agentFraming tells each agent what its slice of the request is. Prior
// agent outputs reach it through the bus context, not the task text.
var agentFraming = map[string]string{
	"scout": "Your task: find relevant job opportunities for this user and research the companies behind the best matches.",
	"match": "Your task: analyze how well this user matches the target role, including skills overlap and ATS readiness.",
	"forge": "Your task: produce tailored application materials for this opportunity.",
	"coach": "Your task: prepare this user for interviews for the target role.",
}

// buildTask composes the task an agent receives: the user's request plus
// whatever user context the dispatch carries.
func buildTask(req Request, agentName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User request: %s\n", req.Message)

	if req.Profile != nil {
		if summary := req.Profile.PromptSummary(); summary != "" {
			b.WriteString("\nUser profile:\n")
			b.WriteString(summary)
			b.WriteString("\n")
		}
	}

	ec := req.Decision.Context
	if ec.Company != "" || ec.Role != "" || len(ec.Skills) > 0 || ec.URL != "" {
		b.WriteString("\nKnown context:\n")
		if ec.Company != "" {
			fmt.Fprintf(&b, "- Target company: %s\n", ec.Company)
		}
		if ec.Role != "" {
			fmt.Fprintf(&b, "- Target role: %s\n", ec.Role)
		}
		if len(ec.Skills) > 0 {
			fmt.Fprintf(&b, "- Skills mentioned: %s\n", strings.Join(ec.Skills, ", "))
		}
		if ec.URL != "" {
			fmt.Fprintf(&b, "- URL: %s\n", ec.URL)
		}
	}

	if req.ResumeText != "" {
		b.WriteString("\nUser resume:\n")
		b.WriteString(truncate(req.ResumeText, 3000))
		b.WriteString("\n")
	}

	if framing, ok := agentFraming[agentName]; ok {
		b.WriteString("\n")
		b.WriteString(framing)
	}
	return b.String()
}

func contains(queue []string, name string) bool {
	for _, n := range queue {
		if n == name {
			return true
		}
	}
	return false
}

func remove(queue []string, name string) []string {
	out := queue[:0]
	for _, n := range queue {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
