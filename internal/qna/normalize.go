package qna

import (
	"strconv"

	"warranty-copilot/internal/topics"
)

const (
	NotListedText = "Not listed"
	// NotListedFlow is the flow id of the synthetic fallback answer.
	NotListedFlow = "None"
)

// Normalize repairs a model result in place. It only touches the question:
// indices are renumbered when the first one is 1, the closest flow is resolved
// from issues, and the "Not listed" answer is appended. Call it once per
// result.
func Normalize(result *StructuredResult, issues []topics.Issue) {
	if result == nil || result.Question == nil {
		return
	}
	q := result.Question
	renumberAnswers(q)
	resolveClosestFlow(q, issues)
	appendNotListed(q)
}

// renumberAnswers fixes the model's one-based indices. Only a leading 1
// triggers it; other bad sequences are kept as sent.
func renumberAnswers(q *StructuredQuestion) {
	if len(q.AnswerSet) == 0 || q.AnswerSet[0].AnswerIndex != 1 {
		return
	}
	for i := range q.AnswerSet {
		q.AnswerSet[i].AnswerIndex = i
	}
}

// resolveClosestFlow sets the closest flow when an issue's flow equals the
// decimal form of the reported issue number. Flows are normally names, so
// this rarely matches; the field is internal and never sent to the platform.
func resolveClosestFlow(q *StructuredQuestion, issues []topics.Issue) {
	if q.ClosestMatchingIssueNumber == nil || *q.ClosestMatchingIssueNumber == 0 {
		return
	}
	want := strconv.Itoa(*q.ClosestMatchingIssueNumber)
	for _, issue := range issues {
		if issue.AssociatedFlow == want {
			flow := issue.AssociatedFlow
			q.ClosestMatchingFlow = &flow
		}
	}
}

func appendNotListed(q *StructuredQuestion) {
	zero := 0.0
	none := NotListedFlow
	issue := 0
	q.AnswerSet = append(q.AnswerSet, AnswerChoice{
		AnswerText:                 NotListedText,
		CertaintyModifier:          &zero,
		AnswerIndex:                len(q.AnswerSet),
		AssociatedFlow:             &none,
		ClosestMatchingIssueNumber: &issue,
	})
}
