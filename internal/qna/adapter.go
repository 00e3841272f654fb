package qna

const (
	answerScore    = 50
	redirectScore  = 100
	notListedScore = 0
)

// wireTopicID builds the platform topic id for a flow.
func wireTopicID(topicID, flow string) string {
	return topicID + ".topic." + flow
}

// ToWire maps a normalized question to the platform format. Answers without a
// flow are dropped. Only the final answer may carry the "None" flow, so a
// model answer that copies it is dropped too. The question must already have
// been through Normalize; ToWire itself never appends.
func ToWire(topicID string, q *StructuredQuestion) *WireQuestion {
	if q == nil {
		return nil
	}
	out := &WireQuestion{
		QuestionText: q.QuestionText,
		AnswerSet:    make([]WireAnswer, 0, len(q.AnswerSet)),
	}
	last := len(q.AnswerSet) - 1
	for i, choice := range q.AnswerSet {
		flow := choice.Flow()
		if flow == "" {
			continue
		}
		score := answerScore
		if flow == NotListedFlow {
			if i != last {
				continue
			}
			score = notListedScore
		}
		out.AnswerSet = append(out.AnswerSet, WireAnswer{
			DisplayName:                choice.AnswerText,
			ExternalIntentID:           flow,
			Score:                      score,
			TopicID:                    wireTopicID(topicID, flow),
			TriggerID:                  flow,
			ClosestMatchingIssueNumber: choice.ClosestMatchingIssueNumber,
		})
	}
	return out
}

// RedirectToWire maps a redirect pick to a single full-confidence answer.
func RedirectToWire(topicID string, r *RedirectResult) *WireAnswer {
	if r == nil || r.ClosestMatchingCopilotFlow == nil || *r.ClosestMatchingCopilotFlow == "" {
		return nil
	}
	flow := *r.ClosestMatchingCopilotFlow
	issue := 1
	return &WireAnswer{
		DisplayName:                flow,
		ExternalIntentID:           flow,
		Score:                      redirectScore,
		TopicID:                    wireTopicID(topicID, flow),
		TriggerID:                  flow,
		ClosestMatchingIssueNumber: &issue,
	}
}

// ToExtraction maps an extraction result, including any follow-up question.
func ToExtraction(topicID string, r *StructuredResult) *ExtractionResponse {
	if r == nil {
		return nil
	}
	return &ExtractionResponse{
		IssueNumber:                    r.IssueNumber,
		BuilderResponsible:             r.BuilderResponsible,
		CorrectIssueCertaintyScore:     r.CorrectIssueCertaintyScore,
		IssueWarrantableCertaintyScore: r.IssueWarrantableCertaintyScore,
		Question:                       ToWire(topicID, r.Question),
	}
}
