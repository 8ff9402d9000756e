package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazi-ai/kazi/pkg/llm/llmtest"
)

func TestRoute_ValidClassification(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`{
		"intent": "job_search",
		"agents": ["scout"],
		"extracted_context": {"company": "Acme", "role": "Backend Engineer", "skills": ["go", "postgres"], "url": "", "has_jd": false},
		"reasoning": "User wants to find jobs",
		"needs_resume": false,
		"needs_profile": true
	}`))
	r := New(client, nil)

	d := r.Route(context.Background(), "find me backend jobs at Acme", false, true)

	assert.Equal(t, IntentJobSearch, d.Intent)
	assert.Equal(t, []string{"scout"}, d.Agents)
	assert.Equal(t, "Acme", d.Context.Company)
	assert.Equal(t, "Backend Engineer", d.Context.Role)
	assert.Equal(t, []string{"go", "postgres"}, d.Context.Skills)
	assert.True(t, d.NeedsProfile)
}

func TestRoute_FencedJSONReply(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text("```json\n{\"intent\": \"interview_prep\", \"agents\": [\"coach\"]}\n```"))
	r := New(client, nil)

	d := r.Route(context.Background(), "prep me for my interview", false, false)

	assert.Equal(t, IntentInterviewPrep, d.Intent)
	assert.Equal(t, []string{"coach"}, d.Agents)
}

func TestRoute_UnknownIntentFallsBackToGeneralChat(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`{"intent": "world_domination", "agents": ["scout"]}`))
	r := New(client, nil)

	d := r.Route(context.Background(), "hello", false, false)

	assert.Equal(t, IntentGeneralChat, d.Intent)
	assert.Empty(t, d.Agents)
}

func TestRoute_UnknownAgentsFiltered(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`{"intent": "write_materials", "agents": ["match", "wizard", "forge"]}`))
	r := New(client, nil)

	d := r.Route(context.Background(), "write my cover letter", true, false)

	assert.Equal(t, []string{"match", "forge"}, d.Agents)
}

func TestRoute_EmptyAgentsGetIntentDefaults(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`{"intent": "multi_step", "agents": []}`))
	r := New(client, nil)

	d := r.Route(context.Background(), "help me land a role at Acme", true, true)

	assert.Equal(t, []string{"scout", "match", "forge", "coach"}, d.Agents)
}

func TestRoute_GeneralChatClearsAgents(t *testing.T) {
	// The model sometimes classifies general_chat but still names agents.
	client := llmtest.NewScriptedClient(llmtest.Text(`{"intent": "general_chat", "agents": ["scout"]}`))
	r := New(client, nil)

	d := r.Route(context.Background(), "hi there", false, false)

	assert.Equal(t, IntentGeneralChat, d.Intent)
	assert.Empty(t, d.Agents)
}

func TestRoute_ClassifierErrorFallsBack(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Failure(errors.New("provider down")))
	r := New(client, nil)

	d := r.Route(context.Background(), "find me a job", false, false)

	assert.Equal(t, IntentGeneralChat, d.Intent)
	assert.Empty(t, d.Agents)
}

func TestRoute_InvalidJSONFallsBack(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text("I think this is a job search request."))
	r := New(client, nil)

	d := r.Route(context.Background(), "find me a job", false, false)

	assert.Equal(t, IntentGeneralChat, d.Intent)
	assert.Empty(t, d.Agents)
}

func TestRoute_ResumeAndProfileHintsReachClassifier(t *testing.T) {
	client := llmtest.NewScriptedClient(llmtest.Text(`{"intent": "analyze_match", "agents": ["match"]}`))
	r := New(client, nil)

	r.Route(context.Background(), "check my fit", true, true)

	require.Len(t, client.Requests, 1)
	userMsg := client.Requests[0].Messages[1].Content
	assert.Contains(t, userMsg, "resume on file")
	assert.Contains(t, userMsg, "profile set up")
}
