// Package router classifies user messages into an intent and an ordered
// agent pipeline with a single cheap LLM call. Routing never fails: any
// classification error falls back to general chat.
package router

import (
	"context"
	"log/slog"

	"github.com/kazi-ai/kazi/pkg/llm"
)

// Intents.
const (
	IntentJobSearch     = "job_search"
	IntentAnalyzeMatch  = "analyze_match"
	IntentWriteMaterial = "write_materials"
	IntentInterviewPrep = "interview_prep"
	IntentMultiStep     = "multi_step"
	IntentGeneralChat   = "general_chat"
)

var validIntents = map[string]bool{
	IntentJobSearch:     true,
	IntentAnalyzeMatch:  true,
	IntentWriteMaterial: true,
	IntentInterviewPrep: true,
	IntentMultiStep:     true,
	IntentGeneralChat:   true,
}

var validAgents = map[string]bool{
	"scout": true, "match": true, "forge": true, "coach": true,
}

// defaultAgents maps each intent to its agent pipeline, applied when the
// classifier names an intent but returns no usable agent list.
var defaultAgents = map[string][]string{
	IntentJobSearch:     {"scout"},
	IntentAnalyzeMatch:  {"match"},
	IntentWriteMaterial: {"match", "forge"},
	IntentInterviewPrep: {"coach"},
	IntentMultiStep:     {"scout", "match", "forge", "coach"},
}

// ExtractedContext holds entities the classifier recognized in the message.
type ExtractedContext struct {
	Company string   `json:"company,omitempty"`
	Role    string   `json:"role,omitempty"`
	Skills  []string `json:"skills,omitempty"`
	URL     string   `json:"url,omitempty"`
	HasJD   bool     `json:"has_jd,omitempty"`
}

// Decision is the routing result: an intent, the agents to dispatch in
// order, and extracted context. Immutable after construction.
type Decision struct {
	Intent       string           `json:"intent"`
	Agents       []string         `json:"agents"`
	Context      ExtractedContext `json:"extracted_context"`
	Reasoning    string           `json:"reasoning"`
	NeedsResume  bool             `json:"needs_resume"`
	NeedsProfile bool             `json:"needs_profile"`
}

const routingPrompt = `You are an intent classifier for KaziAI, a career assistant.
Classify the user's message into exactly one intent and determine which agents to invoke.

INTENTS:
- job_search: User wants to find, search for, or discover jobs/roles/positions
- analyze_match: User wants to compare resume vs job description, check fit, or get ATS score
- write_materials: User wants a cover letter, resume rewrite, or application materials written
- interview_prep: User wants interview preparation, practice questions, or coaching
- multi_step: User wants end-to-end help (e.g. "help me apply to X" or "help me land a role at Y")
- general_chat: Greetings, general career advice, casual conversation, or anything that doesn't need a specialized agent

AGENTS:
- scout: Job discovery and company research
- match: Skills analysis, JD parsing, and ATS scoring
- forge: Cover letter and resume writing
- coach: Interview preparation and coaching

ROUTING RULES:
- job_search -> ["scout"]
- analyze_match -> ["match"]
- write_materials -> ["match", "forge"] (match first for context, then forge writes)
- interview_prep -> ["coach"]
- multi_step -> ["scout", "match", "forge", "coach"] (or a relevant subset)
- general_chat -> [] (no agents needed)

CONTEXT EXTRACTION:
Extract any mentioned: company name, role/title, skills, URL, or job description text.

Respond with ONLY valid JSON (no markdown, no explanation):
{
  "intent": "one of the intents above",
  "agents": ["list", "of", "agent", "names"],
  "extracted_context": {
    "company": "company name or null",
    "role": "role/title or null",
    "skills": ["mentioned", "skills"] or [],
    "url": "any URL mentioned or null",
    "has_jd": true/false
  },
  "reasoning": "one sentence explaining why this classification",
  "needs_resume": true/false,
  "needs_profile": true/false
}`

// Router classifies user intent and determines which agents to dispatch.
type Router struct {
	llm    llm.Client
	logger *slog.Logger
}

func New(client llm.Client, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{llm: client, logger: logger}
}

// Route classifies a user message. It always returns a valid decision; any
// classifier failure falls back to general chat with no agents.
func (r *Router) Route(ctx context.Context, message string, hasResume, hasProfile bool) Decision {
	hint := ""
	if hasResume {
		hint += " The user has a resume on file."
	}
	if hasProfile {
		hint += " The user has a profile set up."
	}

	resp, err := r.llm.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: routingPrompt},
			{Role: llm.RoleUser, Content: message + hint},
		},
		MaxTokens:   300,
		Temperature: 0.1,
	})
	if err != nil {
		r.logger.Warn("routing classification failed", "error", err)
		return fallbackDecision()
	}

	var raw struct {
		Intent  string   `json:"intent"`
		Agents  []string `json:"agents"`
		Context struct {
			Company string   `json:"company"`
			Role    string   `json:"role"`
			Skills  []string `json:"skills"`
			URL     string   `json:"url"`
			HasJD   bool     `json:"has_jd"`
		} `json:"extracted_context"`
		Reasoning    string `json:"reasoning"`
		NeedsResume  bool   `json:"needs_resume"`
		NeedsProfile bool   `json:"needs_profile"`
	}
	if err := llm.DecodeJSONReply(resp.Content, &raw); err != nil {
		r.logger.Warn("routing reply was not valid JSON", "error", err)
		return fallbackDecision()
	}

	intent := raw.Intent
	if !validIntents[intent] {
		intent = IntentGeneralChat
	}

	var agents []string
	for _, a := range raw.Agents {
		if validAgents[a] {
			agents = append(agents, a)
		}
	}
	// Keep intent and agents consistent even when the model disagrees with
	// its own classification.
	if intent == IntentGeneralChat {
		agents = nil
	} else if len(agents) == 0 {
		agents = defaultAgents[intent]
	}

	return Decision{
		Intent: intent,
		Agents: agents,
		Context: ExtractedContext{
			Company: raw.Context.Company,
			Role:    raw.Context.Role,
			Skills:  raw.Context.Skills,
			URL:     raw.Context.URL,
			HasJD:   raw.Context.HasJD,
		},
		Reasoning:    raw.Reasoning,
		NeedsResume:  raw.NeedsResume,
		NeedsProfile: raw.NeedsProfile,
	}
}

func fallbackDecision() Decision {
	return Decision{
		Intent:    IntentGeneralChat,
		Reasoning: "Router fallback due to classification error",
	}
}
