// Package config assembles runtime configuration from the environment.
// All knobs have working defaults so a bare `kazi` start comes up against
// Groq with the stock agent limits.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for agent execution limits.
const (
	DefaultMaxSteps       = 15               // ReAct iterations per agent run
	DefaultMaxToolRetries = 2                // extra attempts after a failed tool call
	DefaultToolTimeout    = 10 * time.Second // per tool HTTP call
	DefaultMaxDelegations = 5                // sub-agent runs per dispatch
)

// LLMConfig selects the provider and model for all LLM calls.
type LLMConfig struct {
	Provider string // groq | openai | deepseek | ollama
	Model    string // empty means provider default
}

// AgentConfig bounds agent execution.
type AgentConfig struct {
	MaxSteps       int
	MaxToolRetries int
	ToolTimeout    time.Duration
	MaxDelegations int
}

// Config is the root configuration passed to the orchestrator at construction.
type Config struct {
	HTTPPort string
	LLM      LLMConfig
	Agent    AgentConfig
}

// Load reads configuration from the environment, applying defaults.
// Recognized variables: LLM_PROVIDER, LLM_MODEL, AGENT_MAX_STEPS,
// MAX_TOOL_ROUNDS, HTTP_PORT.
func Load() Config {
	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "groq"),
			Model:    os.Getenv("LLM_MODEL"),
		},
		Agent: AgentConfig{
			MaxSteps:       getEnvInt("AGENT_MAX_STEPS", DefaultMaxSteps),
			MaxToolRetries: getEnvInt("MAX_TOOL_ROUNDS", DefaultMaxToolRetries),
			ToolTimeout:    DefaultToolTimeout,
			MaxDelegations: DefaultMaxDelegations,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
