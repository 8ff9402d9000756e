package tools

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delegateArgs() map[string]any {
	return map[string]any{
		"agent_name":       "match",
		"task_description": "analyze the fit",
	}
}

func TestDelegationCounter_CapsAtLimit(t *testing.T) {
	c := NewDelegationCounter(2)

	assert.True(t, c.TryAcquire())
	assert.True(t, c.TryAcquire())
	assert.False(t, c.TryAcquire())
	assert.Equal(t, 2, c.Count())
}

func TestDelegationCounter_NonPositiveLimitUsesDefault(t *testing.T) {
	c := NewDelegationCounter(0)
	assert.Equal(t, MaxDelegations, c.Limit())

	c = NewDelegationCounter(-1)
	assert.Equal(t, MaxDelegations, c.Limit())
}

func TestDelegationCounter_ConcurrentAcquire(t *testing.T) {
	c := NewDelegationCounter(5)
	var wg sync.WaitGroup
	acquired := make(chan bool, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired <- c.TryAcquire()
		}()
	}
	wg.Wait()
	close(acquired)

	wins := 0
	for ok := range acquired {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 5, wins)
	assert.Equal(t, 5, c.Count())
}

func TestDelegateTool_RunsSubAgent(t *testing.T) {
	tool := &DelegateTool{
		Run: func(_ context.Context, agentName, task string) (string, error) {
			assert.Equal(t, "match", agentName)
			assert.Equal(t, "analyze the fit", task)
			return "analysis done", nil
		},
		Counter: NewDelegationCounter(5),
	}

	result := tool.Execute(context.Background(), delegateArgs())

	require.False(t, Failed(result))
	assert.Equal(t, "match", result["agent"])
	assert.Equal(t, "analysis done", result["output"])
}

func TestDelegateTool_MissingArgs(t *testing.T) {
	tool := &DelegateTool{Counter: NewDelegationCounter(5)}

	result := tool.Execute(context.Background(), map[string]any{"agent_name": "match"})

	assert.True(t, Failed(result))
	assert.Contains(t, result["error"], "required")
}

func TestDelegateTool_RefusesFromSubAgent(t *testing.T) {
	tool := &DelegateTool{Depth: 1, Counter: NewDelegationCounter(5)}

	result := tool.Execute(context.Background(), delegateArgs())

	assert.True(t, Failed(result))
	assert.Contains(t, result["error"], "max depth 1")
}

func TestDelegateTool_LimitReached(t *testing.T) {
	counter := NewDelegationCounter(1)
	tool := &DelegateTool{
		Run:     func(context.Context, string, string) (string, error) { return "ok", nil },
		Counter: counter,
	}

	first := tool.Execute(context.Background(), delegateArgs())
	second := tool.Execute(context.Background(), delegateArgs())

	assert.False(t, Failed(first))
	assert.True(t, Failed(second))
	assert.Contains(t, second["error"], "Delegation limit reached (max 1")
}

func TestDelegateTool_SubAgentErrorReported(t *testing.T) {
	tool := &DelegateTool{
		Run: func(context.Context, string, string) (string, error) {
			return "", errors.New("sub-agent exploded")
		},
		Counter: NewDelegationCounter(5),
	}

	result := tool.Execute(context.Background(), delegateArgs())

	assert.True(t, Failed(result))
	assert.Contains(t, result["error"], "Delegation to match failed")
	assert.Contains(t, result["error"], "sub-agent exploded")
}

func TestDelegateTool_OutputTruncated(t *testing.T) {
	tool := &DelegateTool{
		Run: func(context.Context, string, string) (string, error) {
			return strings.Repeat("x", 5000), nil
		},
		Counter: NewDelegationCounter(5),
	}

	result := tool.Execute(context.Background(), delegateArgs())

	require.False(t, Failed(result))
	assert.Len(t, result["output"], 3000)
}
