package models

import (
	"fmt"
	"strings"
	"time"
)

// Profile is the user's career profile, summarized into agent task prompts.
type Profile struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name,omitempty"`
	Headline    string   `json:"headline,omitempty"`
	Location    string   `json:"location,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	YearsOfExp  int      `json:"years_of_experience,omitempty"`
	TargetRoles []string `json:"target_roles,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

// PromptSummary renders a compact one-block profile summary for injection
// into agent tasks. Empty fields are omitted; an empty profile renders "".
func (p *Profile) PromptSummary() string {
	if p == nil {
		return ""
	}
	var lines []string
	if p.Name != "" {
		lines = append(lines, "Name: "+p.Name)
	}
	if p.Headline != "" {
		lines = append(lines, "Headline: "+p.Headline)
	}
	if p.Location != "" {
		lines = append(lines, "Location: "+p.Location)
	}
	if len(p.Skills) > 0 {
		lines = append(lines, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if p.YearsOfExp > 0 {
		lines = append(lines, fmt.Sprintf("Experience: %d years", p.YearsOfExp))
	}
	if len(p.TargetRoles) > 0 {
		lines = append(lines, "Target roles: "+strings.Join(p.TargetRoles, ", "))
	}
	if p.Summary != "" {
		lines = append(lines, "Summary: "+p.Summary)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// Memory is one episodic memory fact learned about a user.
type Memory struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Category       string    `json:"category"` // fact | preference | goal | outcome
	Content        string    `json:"content"`
	SourceConvID   string    `json:"source_conversation_id,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation groups chat messages and dispatches for one thread.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is one persisted chat turn.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"` // user | assistant
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
