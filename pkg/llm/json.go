package llm

import (
	"encoding/json"
	"strings"
)

// StripCodeFence removes a markdown code fence wrapping an LLM reply, if
// present. Models asked for "JSON only" still wrap output in ```json fences
// often enough that every JSON-reply call site needs this.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		s = s[3:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSONReply strips any code fence from an LLM reply and unmarshals the
// remainder into v. Returns the unmarshal error unchanged so callers can fall
// back per their own policy.
func DecodeJSONReply(reply string, v any) error {
	return json.Unmarshal([]byte(StripCodeFence(reply)), v)
}
