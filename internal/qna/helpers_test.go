package qna

import (
	"context"
	"encoding/json"
	"sync"

	"warranty-copilot/internal/llm"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/topics"
)

// stubClient records every call and answers Generate with a canned JSON body.
type stubClient struct {
	mu       sync.Mutex
	response string
	err      error
	primeErr error
	primes   [][][]string
	prompts  []llm.Prompt
}

func (s *stubClient) Prime(_ context.Context, system ...[]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primes = append(s.primes, system)
	return s.primeErr
}

func (s *stubClient) Generate(_ context.Context, prompt llm.Prompt, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.response), out)
}

func (s *stubClient) primeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.primes)
}

func (s *stubClient) promptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func doorsTopic() topics.Topic {
	return topics.Topic{
		TopicID:             "cr_doors",
		DisplayName:         "Doors",
		AdditionalTopicInfo: "Exterior doors include garage service doors.",
		Issues: []topics.Issue{
			{IssueNumber: 1, Observation: "Door binds in frame", CorrectiveMeasure: "Builder will adjust", AssociatedFlow: "door_binding", Subtopics: []string{"frame"}},
			{IssueNumber: 2, Observation: "Door warped", CorrectiveMeasure: "Builder will replace", AssociatedFlow: "door_warp", Subtopics: []string{"slab"}},
			{IssueNumber: 3, Observation: "Gap under threshold", CorrectiveMeasure: "Homeowner maintenance", AssociatedFlow: "", Subtopics: []string{"frame", "threshold"}},
			{IssueNumber: 4, Observation: "Frame split", CorrectiveMeasure: "Builder will repair", AssociatedFlow: "7", Subtopics: []string{"frame"}},
		},
	}
}

func seededStore() *topics.MemoryStore {
	store := topics.NewMemoryStore()
	_ = store.Put(context.Background(), config.BuildEnvDev, "doors", doorsTopic())
	return store
}

const twoChoiceResult = `{
	"issue_number": 1,
	"builder_responsible": true,
	"question_model": {
		"question_text": "Where does your door stick?",
		"answer_set": [
			{"answer_text": "Top of frame", "warrantable_certainty_modifier": 60, "answer_index": 1, "associated_copilot_flow": "door_binding", "closest_matching_issue_number": 1},
			{"answer_text": "Whole slab", "warrantable_certainty_modifier": 40, "answer_index": 2, "associated_copilot_flow": "door_warp", "closest_matching_issue_number": 2}
		],
		"user_answer": null,
		"closest_matching_issue_number": 7,
		"closest_matching_flow": null,
		"reason": "binding"
	},
	"correct_issue_certainty_score": 70,
	"issue_warrantable_certainty_score": 50
}`
