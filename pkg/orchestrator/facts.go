package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kazi-ai/kazi/pkg/llm"
)

const memoryExtractionPrompt = `You are a memory extraction system. Given the output of an AI agent that helped a user, extract key facts worth remembering about the user for future conversations.

Extract up to 5 facts. Each fact should be a concise statement. Categorize each as:
- "fact": objective information (skills, experience, education, current job)
- "preference": user preferences (remote work, specific companies, salary expectations)
- "goal": career goals or targets
- "outcome": results of actions taken (ATS scores, interview prep completed, applications sent)

Respond with ONLY valid JSON array (no markdown):
[{"content": "fact text", "category": "fact|preference|goal|outcome"}]

If there are no meaningful facts to extract, return: []`

var factCategories = map[string]bool{
	"fact": true, "preference": true, "goal": true, "outcome": true,
}

// extractedFact is one persistable fact mined from an agent's output.
type extractedFact struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

// extractFacts mines an agent's output for facts worth remembering about the
// user. Best effort: any failure returns nothing.
func extractFacts(ctx context.Context, client llm.Client, userMessage, agentOutput string, logger *slog.Logger) []extractedFact {
	resp, err := client.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: memoryExtractionPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("User said: %s\n\nAgent output:\n%s",
				truncate(userMessage, 500), truncate(agentOutput, 2000))},
		},
		MaxTokens:   400,
		Temperature: 0.1,
	})
	if err != nil {
		logger.Debug("fact extraction call failed", "error", err)
		return nil
	}

	var facts []extractedFact
	if err := llm.DecodeJSONReply(resp.Content, &facts); err != nil {
		logger.Debug("fact extraction reply was not valid JSON", "error", err)
		return nil
	}

	out := facts[:0]
	for _, f := range facts {
		if f.Content == "" {
			continue
		}
		if !factCategories[f.Category] {
			f.Category = "fact"
		}
		out = append(out, f)
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
