package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence_NoFence(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripCodeFence(`{"a": 1}`))
}

func TestStripCodeFence_JSONFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, StripCodeFence(in))
}

func TestStripCodeFence_BareFence(t *testing.T) {
	in := "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, StripCodeFence(in))
}

func TestStripCodeFence_SurroundingWhitespace(t *testing.T) {
	in := "  \n```json\n{\"a\": 1}\n```\n  "
	assert.Equal(t, `{"a": 1}`, StripCodeFence(in))
}

func TestDecodeJSONReply_Fenced(t *testing.T) {
	var out struct {
		Action string `json:"action"`
	}
	err := DecodeJSONReply("```json\n{\"action\": \"stop\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "stop", out.Action)
}

func TestDecodeJSONReply_Invalid(t *testing.T) {
	var out map[string]any
	err := DecodeJSONReply("not json at all", &out)
	assert.Error(t, err)
}
