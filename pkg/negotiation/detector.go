// Package negotiation resolves conflicts between agent outputs with a
// structured debate: opening positions, rebuttals, and final positions over
// at most three rounds, ending in consensus or a highest-confidence ruling.
package negotiation

import (
	"fmt"
	"strings"

	"github.com/kazi-ai/kazi/pkg/bus"
)

// Conflict detection thresholds.
const (
	confidenceThreshold = 0.3
	sentimentThreshold  = 3 // keyword matches
)

var positiveKeywords = []string{"excellent", "strong", "great", "perfect", "ideal", "recommended", "top", "best"}
var negativeKeywords = []string{"poor", "weak", "bad", "avoid", "risky", "unlikely", "mismatch", "low"}

// Conflict is a detected disagreement between two agent outputs.
type Conflict struct {
	Agents        []string
	Topic         string // confidence_divergence | sentiment_contradiction
	Details       string
	ConfidenceGap float64
}

// DetectConflicts scans all agent responses on the bus pairwise and returns
// the conflicts found, in scan order.
func DetectConflicts(b *bus.Bus) []Conflict {
	responses := b.Responses()
	if len(responses) < 2 {
		return nil
	}

	var conflicts []Conflict
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			if c := checkPair(responses[i], responses[j]); c != nil {
				conflicts = append(conflicts, *c)
			}
		}
	}
	return conflicts
}

func checkPair(r1, r2 bus.Message) *Conflict {
	c1 := payloadConfidence(r1.Payload, 0.5)
	c2 := payloadConfidence(r2.Payload, 0.5)
	o1 := strings.ToLower(payloadOutput(r1.Payload))
	o2 := strings.ToLower(payloadOutput(r2.Payload))

	// Confidence divergence wins over sentiment when both apply.
	gap := c1 - c2
	if gap < 0 {
		gap = -gap
	}
	if gap > confidenceThreshold {
		return &Conflict{
			Agents:        []string{r1.Sender, r2.Sender},
			Topic:         "confidence_divergence",
			Details:       fmt.Sprintf("%s confidence %.0f%% vs %s confidence %.0f%%", r1.Sender, c1*100, r2.Sender, c2*100),
			ConfidenceGap: gap,
		}
	}

	pos1, neg1 := sentimentCounts(o1)
	pos2, neg2 := sentimentCounts(o2)
	if (pos1 >= sentimentThreshold && neg2 >= sentimentThreshold) ||
		(neg1 >= sentimentThreshold && pos2 >= sentimentThreshold) {
		return &Conflict{
			Agents: []string{r1.Sender, r2.Sender},
			Topic:  "sentiment_contradiction",
			Details: fmt.Sprintf("%s is %s, %s is %s",
				r1.Sender, sentimentLabel(pos1, neg1),
				r2.Sender, sentimentLabel(pos2, neg2)),
		}
	}
	return nil
}

func sentimentCounts(output string) (positive, negative int) {
	for _, kw := range positiveKeywords {
		if strings.Contains(output, kw) {
			positive++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(output, kw) {
			negative++
		}
	}
	return positive, negative
}

func sentimentLabel(positive, negative int) string {
	if positive > negative {
		return "positive"
	}
	return "negative"
}

func payloadConfidence(payload map[string]any, def float64) float64 {
	switch v := payload["confidence"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return def
}

func payloadOutput(payload map[string]any) string {
	if s, ok := payload["output"].(string); ok {
		return s
	}
	return ""
}
