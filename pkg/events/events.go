// Package events defines the typed event stream a dispatch emits while it
// runs. The core produces events to a Sink as agents complete; the transport
// layer (SSE, WebSocket, tests) consumes them and encodes them however it
// wishes. Backpressure is the sink's concern, not the core's.
package events

// Type enumerates the event kinds on the dispatch stream.
type Type string

const (
	TypeRouting           Type = "routing"
	TypeToolStatus        Type = "tool_status"
	TypeAgentStatus       Type = "agent_status"
	TypeAgentReasoning    Type = "agent_reasoning"
	TypeEvaluator         Type = "evaluator"
	TypeTraceIDs          Type = "trace_ids"
	TypeNegotiationRound  Type = "negotiation_round"
	TypeNegotiationResult Type = "negotiation_result"
	TypeContent           Type = "content"
	TypeDone              Type = "done"

	// Goal auto-execution events.
	TypeGoalStepStart    Type = "goal_step_start"
	TypeGoalStepComplete Type = "goal_step_complete"
	TypeGoalReplan       Type = "goal_replan"
	TypeGoalComplete     Type = "goal_complete"
)

// Event is one entry on the stream. Payload is one of the typed payload
// structs below, discriminated by Type.
type Event struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// RoutingPayload announces the routing decision for a dispatch.
type RoutingPayload struct {
	Intent    string   `json:"intent"`
	Agents    []string `json:"agents"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// AgentStatusPayload marks an agent starting or finishing.
type AgentStatusPayload struct {
	Agent  string `json:"agent"`
	Status string `json:"status"` // "started", "completed", "failed"
}

// AgentReasoningPayload streams one reasoning step from an agent.
type AgentReasoningPayload struct {
	Agent   string `json:"agent"`
	Step    int    `json:"step"`
	Thought string `json:"thought"`
}

// ToolStatusPayload marks a tool call within an agent run.
type ToolStatusPayload struct {
	Agent   string `json:"agent"`
	Tool    string `json:"tool"`
	Success bool   `json:"success"`
}

// EvaluatorPayload carries the pipeline evaluator's decision after an agent.
type EvaluatorPayload struct {
	Agent       string `json:"agent"`
	Action      string `json:"action"`
	Reason      string `json:"reason,omitempty"`
	TargetAgent string `json:"target_agent,omitempty"`
}

// TraceIDsPayload links the dispatch to its persisted traces.
type TraceIDsPayload struct {
	TraceIDs []string `json:"trace_ids"`
}

// NegotiationRoundPayload streams one agent position in a debate round.
type NegotiationRoundPayload struct {
	Round        int     `json:"round"`
	Agent        string  `json:"agent"`
	ResponseType string  `json:"response_type"`
	Position     string  `json:"position"`
	Confidence   float64 `json:"confidence"`
}

// NegotiationResultPayload carries the final consensus outcome.
type NegotiationResultPayload struct {
	ConsensusReached bool     `json:"consensus_reached"`
	Position         string   `json:"position"`
	Confidence       float64  `json:"confidence"`
	DissentingViews  []string `json:"dissenting_views"`
	RoundsTaken      int      `json:"rounds_taken"`
}

// ContentPayload streams a chunk of synthesized response text.
type ContentPayload struct {
	Delta string `json:"delta"`
}

// GoalStepStartPayload marks a goal step beginning execution.
type GoalStepStartPayload struct {
	StepNumber int    `json:"step_number"`
	Title      string `json:"title"`
	Agent      string `json:"agent"`
}

// GoalStepCompletePayload marks a goal step finishing.
type GoalStepCompletePayload struct {
	StepNumber    int    `json:"step_number"`
	Status        string `json:"status"` // "completed", "failed"
	OutputPreview string `json:"output_preview"`
}

// GoalReplanPayload reports a mid-plan adjustment.
type GoalReplanPayload struct {
	Adjustment string `json:"adjustment"`
	Reason     string `json:"reason"`
}

// GoalCompletePayload terminates a goal auto-execution stream.
type GoalCompletePayload struct {
	Status string `json:"status"` // "completed", "partial", "cancelled", "not_found"
}
