package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SendStampsTimestamp(t *testing.T) {
	b := New()

	b.Send(Message{Sender: "scout", Receiver: "orchestrator", Type: MsgResponse})

	msgs := b.All()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestBus_SendKeepsCallerTimestamp(t *testing.T) {
	b := New()
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	b.Send(Message{Sender: "scout", Type: MsgResponse, Timestamp: ts})

	assert.Equal(t, ts, b.All()[0].Timestamp)
}

func TestBus_OrderIsSendOrder(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "scout", Type: MsgResponse})
	b.Send(Message{Sender: "evaluator", Type: MsgObservation})
	b.Send(Message{Sender: "match", Type: MsgResponse})

	msgs := b.All()
	require.Len(t, msgs, 3)
	assert.Equal(t, "scout", msgs[0].Sender)
	assert.Equal(t, "evaluator", msgs[1].Sender)
	assert.Equal(t, "match", msgs[2].Sender)
}

func TestBus_TypedFilters(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "user", Receiver: "orchestrator", Type: MsgRequest})
	b.Send(Message{Sender: "scout", Receiver: "orchestrator", Type: MsgResponse})
	b.Send(Message{Sender: "evaluator", Receiver: "orchestrator", Type: MsgObservation})
	b.Send(Message{Sender: "scout", Receiver: "match", Type: MsgDelegate})
	b.Send(Message{Sender: "match", Receiver: "orchestrator", Type: MsgResponse})
	b.Send(Message{Sender: "scout", Receiver: "orchestrator", Type: MsgDebatePosition})
	b.Send(Message{Sender: "negotiator", Receiver: "orchestrator", Type: MsgConsensus})

	assert.Len(t, b.Responses(), 2)
	assert.Len(t, b.Observations(), 1)
	assert.Len(t, b.Delegations(), 1)
	assert.Len(t, b.DebateMessages(), 2)
	assert.Len(t, b.For("match"), 1)
	assert.Equal(t, 7, b.Len())
}

func TestBus_ContextFor_Empty(t *testing.T) {
	b := New()
	assert.Equal(t, "", b.ContextFor("scout"))

	// Requests and the receiver's own responses do not contribute context.
	b.Send(Message{Sender: "user", Type: MsgRequest, Payload: map[string]any{"message": "hi"}})
	b.Send(Message{Sender: "scout", Type: MsgResponse, Payload: map[string]any{"output": "found jobs"}})
	assert.Equal(t, "", b.ContextFor("scout"))
}

func TestBus_ContextFor_ResponsesAndObservations(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "scout", Type: MsgResponse, Payload: map[string]any{
		"output":     "Found 5 Go roles at Acme.",
		"confidence": 0.8,
	}})
	b.Send(Message{Sender: "evaluator", Type: MsgObservation, Payload: map[string]any{
		"note": "Evaluator on scout: continue (good output)",
	}})

	ctx := b.ContextFor("match")
	assert.Contains(t, ctx, "CONTEXT FROM PREVIOUS AGENTS:")
	assert.Contains(t, ctx, "--- SCOUT AGENT RESULTS --- (confidence: 80%)")
	assert.Contains(t, ctx, "Found 5 Go roles at Acme.")
	assert.Contains(t, ctx, "[Note] Evaluator on scout: continue (good output)")
}

func TestBus_ContextFor_NoConfidenceBanner(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "scout", Type: MsgResponse, Payload: map[string]any{
		"output": "plain result",
	}})

	ctx := b.ContextFor("match")
	assert.Contains(t, ctx, "--- SCOUT AGENT RESULTS ---\n")
	assert.NotContains(t, ctx, "confidence:")
}

func TestBus_ContextFor_SkipsEmptyOutput(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "scout", Type: MsgResponse, Payload: map[string]any{"output": ""}})

	assert.Equal(t, "", b.ContextFor("match"))
}

func TestBus_ContextFor_IsPure(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "scout", Type: MsgResponse, Payload: map[string]any{
		"output": "result", "confidence": 0.9,
	}})

	first := b.ContextFor("match")
	second := b.ContextFor("match")
	assert.Equal(t, first, second)
}

func TestBus_FiltersReturnCopies(t *testing.T) {
	b := New()
	b.Send(Message{Sender: "scout", Type: MsgResponse, Payload: map[string]any{"output": "x"}})

	msgs := b.All()
	msgs[0].Sender = "mutated"

	assert.Equal(t, "scout", b.All()[0].Sender)
}
