package agent

import "context"

// HintProvider supplies per-user tool preference hints learned from past
// outcomes. The learner behind it is external; the runtime only injects the
// rendered hint into the agent's prompt. Empty string means no hint.
type HintProvider interface {
	ToolHints(ctx context.Context, userID, agentName, query string) string
}

// NoopHints is the provider used when no learned model is wired in.
type NoopHints struct{}

func (NoopHints) ToolHints(ctx context.Context, userID, agentName, query string) string {
	return ""
}
