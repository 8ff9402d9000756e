package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazi-ai/kazi/pkg/llm"
)

// Evaluator actions.
const (
	ActionContinue  = "continue"
	ActionLoopBack  = "loop_back"
	ActionSkipNext  = "skip_next"
	ActionStop      = "stop"
	ActionAddAgent  = "add_agent"
	ActionNegotiate = "negotiate"
)

var validActions = map[string]bool{
	ActionContinue: true, ActionLoopBack: true, ActionSkipNext: true,
	ActionStop: true, ActionAddAgent: true, ActionNegotiate: true,
}

var evaluatorAgents = map[string]bool{
	"scout": true, "match": true, "forge": true, "coach": true,
}

const evalPrompt = `You are a pipeline evaluator for a career AI system. After an agent produces output, decide what should happen next.

AGENTS: scout (job search), match (resume analysis), forge (resume/cover letter writing), coach (interview prep)

DECISION OPTIONS:
- "continue": The output is good, proceed to the next agent in the pipeline.
- "loop_back": Output is poor or missing critical data. Re-run the same or a different agent.
- "skip_next": Output is so strong the next agent is unnecessary.
- "stop": All work is done; no more agents needed.
- "add_agent": Insert an additional agent that wasn't originally planned.

GUIDELINES:
- If search found 0 results -> loop_back to scout with broader terms
- If ATS score is above 90% -> skip_next (forge is unnecessary)
- If agent output is clearly wrong (wrong company, irrelevant data) -> loop_back
- If user only asked for one thing and it's done -> stop
- Default to "continue" if unsure
- Be concise in your reason (one sentence max)

Respond with ONLY valid JSON (no markdown):
{"action": "continue|loop_back|skip_next|stop|add_agent", "reason": "brief explanation", "target_agent": "agent name or empty string"}`

// Decision is the evaluator's verdict on one agent's output.
type Decision struct {
	Action      string
	Reason      string
	TargetAgent string
}

// Evaluator runs a cheap LLM call after each agent to control pipeline
// flow. Any failure degrades to continue.
type Evaluator struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewEvaluator(client llm.Client, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{llm: client, logger: logger}
}

// Evaluate analyzes one agent's output against the remaining pipeline.
func (e *Evaluator) Evaluate(ctx context.Context, agentName, intent, output string, remaining []string) Decision {
	remainingStr := "none"
	if len(remaining) > 0 {
		remainingStr = strings.Join(remaining, ", ")
	}
	preview := output
	if preview == "" {
		preview = "(empty)"
	}
	preview = truncate(preview, 1500)

	userMsg := fmt.Sprintf("Agent: %s\nIntent: %s\nRemaining agents: %s\nAgent output (preview):\n%s",
		agentName, intent, remainingStr, preview)

	resp, err := e.llm.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: evalPrompt},
			{Role: llm.RoleUser, Content: userMsg},
		},
		MaxTokens:   200,
		Temperature: 0.1,
	})
	if err != nil {
		e.logger.Warn("evaluator call failed", "agent", agentName, "error", err)
		return Decision{Action: ActionContinue, Reason: "Evaluator fallback"}
	}

	var raw struct {
		Action      string `json:"action"`
		Reason      string `json:"reason"`
		TargetAgent string `json:"target_agent"`
	}
	if err := llm.DecodeJSONReply(resp.Content, &raw); err != nil {
		e.logger.Warn("evaluator reply was not valid JSON", "agent", agentName, "error", err)
		return Decision{Action: ActionContinue, Reason: "Evaluator fallback"}
	}
	return normalizeDecision(raw.Action, raw.Reason, raw.TargetAgent)
}

func normalizeDecision(action, reason, target string) Decision {
	if !validActions[action] {
		action = ActionContinue
	}
	reason = truncate(reason, 200)
	if target != "" && !evaluatorAgents[target] {
		target = ""
	}
	// loop_back and add_agent are meaningless without a target.
	if (action == ActionLoopBack || action == ActionAddAgent) && target == "" {
		action = ActionContinue
		if reason == "" {
			reason = "No target agent specified, continuing"
		}
	}
	return Decision{Action: action, Reason: reason, TargetAgent: target}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
