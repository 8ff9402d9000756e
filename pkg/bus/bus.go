// Package bus provides the typed message log used for structured agent
// communication within a single dispatch. Agents post messages to the bus;
// the orchestrator reads them to build context for subsequent agents, handle
// delegation requests, and track evaluator observations.
package bus

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// MessageType discriminates the payload schema of a Message.
type MessageType string

const (
	// MsgRequest is the user or orchestrator task request.
	MsgRequest MessageType = "request"
	// MsgResponse is an agent's output with confidence.
	MsgResponse MessageType = "response"
	// MsgObservation carries evaluator notes and status updates.
	MsgObservation MessageType = "observation"
	// MsgDelegate is an agent asking the orchestrator to invoke another agent.
	MsgDelegate MessageType = "delegate"
	// MsgError is an agent failure report.
	MsgError MessageType = "error"
	// MsgDebatePosition is an agent's position in a negotiation round.
	MsgDebatePosition MessageType = "debate_position"
	// MsgConsensus is the final consensus from a negotiation.
	MsgConsensus MessageType = "consensus"
)

// Message is a typed message between agents or between an agent and the
// orchestrator. Messages are immutable once sent.
type Message struct {
	Sender    string         // "scout", "match", "forge", "coach", "orchestrator", "user", "negotiator"
	Receiver  string         // target agent or "orchestrator"
	Type      MessageType    // discriminates Payload schema
	Payload   map[string]any // structured data, never raw concatenated strings
	Timestamp time.Time
	TraceID   string // optional link to a persisted trace
}

// Bus is an append-only, in-memory message log scoped to one dispatch.
// It is created at dispatch start and discarded at dispatch end; it is never
// shared across dispatches. Iteration order equals send order.
type Bus struct {
	mu   sync.Mutex
	msgs []Message
}

// New creates an empty bus for a single dispatch.
func New() *Bus {
	return &Bus{}
}

// Send appends a message to the log. The timestamp is stamped on send if the
// caller left it zero. Messages are never mutated or removed afterwards.
func (b *Bus) Send(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

// For returns all messages addressed to a specific receiver, in send order.
func (b *Bus) For(receiver string) []Message {
	return b.filter(func(m Message) bool { return m.Receiver == receiver })
}

// Observations returns all observation messages (evaluator notes, status updates).
func (b *Bus) Observations() []Message {
	return b.filter(func(m Message) bool { return m.Type == MsgObservation })
}

// Delegations returns all delegate requests posted by agents.
func (b *Bus) Delegations() []Message {
	return b.filter(func(m Message) bool { return m.Type == MsgDelegate })
}

// Responses returns all agent response messages.
func (b *Bus) Responses() []Message {
	return b.filter(func(m Message) bool { return m.Type == MsgResponse })
}

// DebateMessages returns all debate positions and consensus messages.
func (b *Bus) DebateMessages() []Message {
	return b.filter(func(m Message) bool {
		return m.Type == MsgDebatePosition || m.Type == MsgConsensus
	})
}

// All returns a snapshot of every message on the bus in send order.
func (b *Bus) All() []Message {
	return b.filter(func(Message) bool { return true })
}

// Len returns the number of messages on the bus.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

func (b *Bus) filter(keep func(Message) bool) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, 0, len(b.msgs))
	for _, m := range b.msgs {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// ContextFor builds a prompt-injectable context block from messages relevant
// to a receiver: every response from other senders (with a confidence banner
// when present) and every observation note, in send order. Returns the empty
// string when no such messages exist. Repeated calls on identical bus state
// return identical strings.
func (b *Bus) ContextFor(receiver string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var parts []string
	for _, m := range b.msgs {
		switch {
		case m.Type == MsgResponse && m.Sender != receiver:
			output, _ := m.Payload["output"].(string)
			if output == "" {
				continue
			}
			header := fmt.Sprintf("--- %s AGENT RESULTS ---", strings.ToUpper(m.Sender))
			if conf, ok := floatPayload(m.Payload, "confidence"); ok {
				header += fmt.Sprintf(" (confidence: %.0f%%)", conf*100)
			}
			parts = append(parts, header+"\n"+output)

		case m.Type == MsgObservation:
			note, _ := m.Payload["note"].(string)
			parts = append(parts, "[Note] "+note)
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "\n\nCONTEXT FROM PREVIOUS AGENTS:\n" + strings.Join(parts, "\n\n")
}

// floatPayload reads a numeric payload value that may have been decoded as
// either float64 or int (JSON round-trips produce float64).
func floatPayload(payload map[string]any, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
