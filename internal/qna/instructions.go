package qna

import (
	"encoding/json"
	"fmt"

	"warranty-copilot/internal/topics"
)

// candidate is the trimmed issue shape shown to the model.
type candidate struct {
	AssociatedFlow string `json:"associated_copilot_flow"`
	Observation    string `json:"observation"`
	IssueNumber    int    `json:"issue_number"`
}

// candidates keeps only issues with both an observation and a flow.
func candidates(issues []topics.Issue) []candidate {
	out := make([]candidate, 0, len(issues))
	for _, issue := range issues {
		if issue.Observation == "" || issue.AssociatedFlow == "" {
			continue
		}
		out = append(out, candidate{
			AssociatedFlow: issue.AssociatedFlow,
			Observation:    issue.Observation,
			IssueNumber:    issue.IssueNumber,
		})
	}
	return out
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// BaseInstructions frames the candidate list for a subtopic. The topic's
// additional info is always the final element.
func BaseInstructions(topic topics.Topic, subtopic string, issues []topics.Issue) []string {
	return []string{
		fmt.Sprintf("Consider this list, which will be referred to as: 'topic_list', which is a list of issues in which the 'observation' is a basic description of a homeowners issue: \n%s.", mustJSON(candidates(issues))),
		"The user will submit an issue related to their residential home, which the 'topic_list' will be used to determine if the issue is warrantable",
		"Any system instructions which includes something like: 'some_variable', is referencing a field that will be assigned.",
		fmt.Sprintf("Assume the user's issue relates to their home's %s and all responses should be structured around a residential home's %s.", topic.DisplayName, subtopic),
		topic.AdditionalTopicInfo,
	}
}

// ClarifyingInstructions asks for one clarifying question with 2 to 5
// answers. Prior turns, when present, are appended verbatim.
func ClarifyingInstructions(topic topics.Topic, subtopic string, prior []DialogTurn) []string {
	out := []string{
		"Assign 'question_model' using a clarifying question as 'question_text' and the relative multiple choice answers to the question as 'answer_set'.",
		fmt.Sprintf("The 'question_text' should be formed to include the issue's topic: %s, and this subtopic: %s and addressing the user's issue.", topic.DisplayName, subtopic),
		"The goal is to determine which topic most closely matches the user's issue.",
		"Never include an answer being some form of the following; 'Other', 'Not Certain' or 'None' as one of the 'answer_set' answers.",
		"The amount of answers in 'answer_set' should be between 2 to 5 answers, which prioritize answers clarifying the related topic observation the most. It's preferable that there would be more answers, up to 5.",
		"Each 'answer_text' values should only be a couple words long, maximum 4.",
		"Assign each 'answer_set' value: 'associated_copilot_flow' as the closest matching value for the field: 'associated_copilot_flow' from each object from the 'topic_list'.",
	}
	if len(prior) > 0 {
		out = append(out, fmt.Sprintf("Take into account the user' previous questions and their selected answers as: %s", mustJSON(prior)))
	}
	return out
}

// RedirectInstructions asks the model to classify free text against the
// candidate flows. There is no uncertain option.
func RedirectInstructions(topic topics.Topic, subtopic string, issues []topics.Issue) []string {
	return []string{
		fmt.Sprintf("Consider this list of common homeowner issue descriptions: %s.", mustJSON(candidates(issues))),
		"Each 'associated_copilot_flow' will have a basic general description as the 'observation' value.",
		"Compare the user's input against: 'observation' and assign: 'closest_matching_copilot_flow' as the value: 'associated_copilot_flow' of the same object, which contains the closes matching description.",
		"Always assign a value.",
		fmt.Sprintf("Assume the user's issue is related to their home's %s, specifically %s", topic.DisplayName, subtopic),
	}
}

// ExtractionInstructions asks for the closest full issue record, builder
// responsibility and a warrantable certainty score given the dialog so far.
func ExtractionInstructions(topic topics.Topic, issues []topics.Issue, history []DialogTurn) []string {
	if history == nil {
		history = []DialogTurn{}
	}
	if issues == nil {
		issues = []topics.Issue{}
	}
	return []string{
		fmt.Sprintf("Extract the closest matching object from: %s.", mustJSON(issues)),
		"If the 'corrective_measure' signifies that the builder or contractor must correct the users issue, assign 'builder_responsible' to True",
		fmt.Sprintf("Consider the previous questions and answers: %s.", mustJSON(history)),
		"Assign 'issue_warrantable_certainty_score' a score of 1 to 100, with 100 being the overall certainty of the issue being warrantable.",
	}
}
