// Package llmtest provides a scripted Client for tests. Each Chat call pops
// the next scripted reply; tests assert on the recorded requests afterwards.
package llmtest

import (
	"context"
	"sync"

	"github.com/kazi-ai/kazi/pkg/llm"
)

// Reply is one scripted turn: a canned response or an error.
type Reply struct {
	Response llm.Response
	Err      error
}

// ScriptedClient implements llm.Client with a fixed reply sequence.
type ScriptedClient struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []llm.Request // every request seen, in call order
	// Repeat, when set, is returned once the script is exhausted instead of
	// failing, for tests that don't care about later calls.
	Repeat *Reply
}

// NewScriptedClient creates a client that returns the given replies in order.
func NewScriptedClient(replies ...Reply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

// Text is shorthand for a plain assistant text reply.
func Text(content string) Reply {
	return Reply{Response: llm.Response{Content: content}}
}

// ToolCall is shorthand for a reply containing a single tool call.
func ToolCall(id, name, args string) Reply {
	return Reply{Response: llm.Response{ToolCalls: []llm.ToolCall{{ID: id, Name: name, Arguments: args}}}}
}

// Failure is shorthand for an errored call.
func Failure(err error) Reply {
	return Reply{Err: err}
}

func (c *ScriptedClient) Chat(_ context.Context, req llm.Request) (llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Requests = append(c.Requests, req)

	if len(c.replies) == 0 {
		if c.Repeat != nil {
			return c.Repeat.Response, c.Repeat.Err
		}
		return llm.Response{Content: "FINAL_ANSWER script exhausted"}, nil
	}
	next := c.replies[0]
	c.replies = c.replies[1:]
	return next.Response, next.Err
}

func (c *ScriptedClient) Model() string { return "scripted" }

// Calls returns how many Chat calls were made.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}
