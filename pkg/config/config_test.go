package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("AGENT_MAX_STEPS", "")
	t.Setenv("MAX_TOOL_ROUNDS", "")
	t.Setenv("HTTP_PORT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "", cfg.LLM.Model)
	assert.Equal(t, DefaultMaxSteps, cfg.Agent.MaxSteps)
	assert.Equal(t, DefaultMaxToolRetries, cfg.Agent.MaxToolRetries)
	assert.Equal(t, DefaultToolTimeout, cfg.Agent.ToolTimeout)
	assert.Equal(t, DefaultMaxDelegations, cfg.Agent.MaxDelegations)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "llama3.1")
	t.Setenv("AGENT_MAX_STEPS", "25")
	t.Setenv("MAX_TOOL_ROUNDS", "4")
	t.Setenv("HTTP_PORT", "9090")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
	assert.Equal(t, 4, cfg.Agent.MaxToolRetries)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("AGENT_MAX_STEPS", "not-a-number")
	t.Setenv("MAX_TOOL_ROUNDS", "-3")

	cfg := Load()

	assert.Equal(t, DefaultMaxSteps, cfg.Agent.MaxSteps)
	assert.Equal(t, DefaultMaxToolRetries, cfg.Agent.MaxToolRetries)
}
