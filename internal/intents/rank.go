package intents

import (
	"fmt"
	"sort"
)

const (
	DefaultCopilot = "common"
	DefaultLimit   = 5
	// rankedTriggerID is the trigger every ranked option points at.
	rankedTriggerID = "main"
)

// Score is a caller-supplied confidence for a category.
type Score struct {
	Category        string  `json:"category"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// Option is one ranked intent returned to the platform.
type Option struct {
	DisplayName      string  `json:"DisplayName"`
	TriggerID        string  `json:"TriggerId"`
	TopicID          string  `json:"TopicId"`
	ExternalIntentID string  `json:"ExternalIntentId"`
	ConfidenceScore  float64 `json:"ConfidenceScore"`
	Category         string  `json:"Category"`
}

// Query narrows a ranking.
type Query struct {
	Copilot  string
	Subtopic string
	Limit    int
}

// Rank orders scores by confidence and maps them to visible intents of the
// copilot. A non-empty subtopic keeps only intents tagged with it. At most
// Limit options are returned.
func (c Catalog) Rank(scores []Score, q Query) ([]Option, error) {
	copilot := q.Copilot
	if copilot == "" {
		copilot = DefaultCopilot
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	section, ok := c[copilot]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCopilot, copilot)
	}

	sorted := append([]Score(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ConfidenceScore > sorted[j].ConfidenceScore
	})

	out := make([]Option, 0, limit)
	for _, score := range sorted {
		for _, intent := range section.Topics {
			if len(out) >= limit {
				return out, nil
			}
			if intent.ExternalIntentID != score.Category || !intent.Visible() {
				continue
			}
			if q.Subtopic != "" && !intent.hasSubtopic(q.Subtopic) {
				continue
			}
			out = append(out, Option{
				DisplayName:      intent.DisplayName,
				TriggerID:        rankedTriggerID,
				TopicID:          intent.TopicID,
				ExternalIntentID: score.Category,
				ConfidenceScore:  score.ConfidenceScore,
				Category:         score.Category,
			})
		}
	}
	return out, nil
}
