package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_NilSinkIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Publish(nil, Event{Type: TypeDone})
	})
}

func TestChannelSink_DeliversInOrder(t *testing.T) {
	sink := NewChannelSink(4)
	sink.Publish(Event{Type: TypeRouting})
	sink.Publish(Event{Type: TypeAgentStatus})
	sink.Close()

	var got []Type
	for ev := range sink.C {
		got = append(got, ev.Type)
	}
	assert.Equal(t, []Type{TypeRouting, TypeAgentStatus}, got)
}

func TestCollectorSink_OfType(t *testing.T) {
	sink := &CollectorSink{}
	sink.Publish(Event{Type: TypeAgentStatus, Payload: AgentStatusPayload{Agent: "scout", Status: "started"}})
	sink.Publish(Event{Type: TypeEvaluator})
	sink.Publish(Event{Type: TypeAgentStatus, Payload: AgentStatusPayload{Agent: "scout", Status: "completed"}})

	statuses := sink.OfType(TypeAgentStatus)
	require.Len(t, statuses, 2)
	assert.Equal(t, "started", statuses[0].Payload.(AgentStatusPayload).Status)
	assert.Equal(t, "completed", statuses[1].Payload.(AgentStatusPayload).Status)
	assert.Empty(t, sink.OfType(TypeDone))
}
