package qna

import (
	"encoding/json"
	"strings"
)

// Purpose selects which instruction set a converse call adds to the base
// instructions.
type Purpose string

const (
	PurposeColdStart Purpose = "cold_start"
	PurposeClarify   Purpose = "clarify"
	PurposeRedirect  Purpose = "redirect"
	PurposeExtract   Purpose = "extract"
	// PurposeAcknowledge validates the request and answers without a
	// completion call.
	PurposeAcknowledge Purpose = "acknowledge"
)

// DialogTurn is one prior question and the answer the user picked. The caller
// resubmits the full history on every turn.
type DialogTurn struct {
	QuestionText string  `json:"question_text"`
	AnswerText   *string `json:"answer_text"`
}

// Request is the inbound body of /dynamic_qna and /clarify_issue. Query
// parameters and JSON body are both accepted; body fields win.
type Request struct {
	Copilot           string       `json:"copilot" form:"copilot"`
	Subtopic          string       `json:"subtopic" form:"subtopic"`
	UserInput         string       `json:"user_input" form:"user_input"`
	RedirectAnswer    string       `json:"redirect_answer" form:"redirect_answer"`
	Env               string       `json:"env" form:"env"`
	PreviousQuestions []DialogTurn `json:"previous_questions" form:"-"`
}

// TopicName is the topic document requested. Only the copilot name selects
// the document.
func (r Request) TopicName() string {
	return strings.TrimSpace(r.Copilot)
}

// Input is the free text the purpose works on. Redirect prefers the selected
// answer over the original user input.
func (r Request) Input(p Purpose) string {
	if p == PurposeRedirect {
		if a := strings.TrimSpace(r.RedirectAnswer); a != "" {
			return a
		}
	}
	return strings.TrimSpace(r.UserInput)
}

// AnswerChoice is one multiple choice answer as produced by the model.
// AnswerIndex is untrusted until normalized.
type AnswerChoice struct {
	AnswerText                 string   `json:"answer_text"`
	CertaintyModifier          *float64 `json:"warrantable_certainty_modifier"`
	AnswerIndex                int      `json:"answer_index"`
	AssociatedFlow             *string  `json:"associated_copilot_flow"`
	ClosestMatchingIssueNumber *int     `json:"closest_matching_issue_number"`
}

// Flow returns the associated flow or "".
func (a AnswerChoice) Flow() string {
	if a.AssociatedFlow == nil {
		return ""
	}
	return *a.AssociatedFlow
}

// StructuredQuestion is a clarifying question with its answer choices.
type StructuredQuestion struct {
	QuestionText               string         `json:"question_text"`
	AnswerSet                  []AnswerChoice `json:"answer_set"`
	UserAnswer                 *string        `json:"user_answer"`
	ClosestMatchingIssueNumber *int           `json:"closest_matching_issue_number"`
	ClosestMatchingFlow        *string        `json:"closest_matching_flow"`
	Reason                     string         `json:"reason"`
}

// WarrantableCertainty is a coarse warranty coverage estimate.
type WarrantableCertainty int

const (
	CertaintyNone   WarrantableCertainty = 0
	CertaintyLow    WarrantableCertainty = 25
	CertaintyMedium WarrantableCertainty = 50
	CertaintyHigh   WarrantableCertainty = 100
)

// BucketCertainty rounds a raw score down to the nearest level.
func BucketCertainty(score float64) WarrantableCertainty {
	switch {
	case score >= float64(CertaintyHigh):
		return CertaintyHigh
	case score >= float64(CertaintyMedium):
		return CertaintyMedium
	case score >= float64(CertaintyLow):
		return CertaintyLow
	default:
		return CertaintyNone
	}
}

// UnmarshalJSON accepts any number or null and buckets it.
func (w *WarrantableCertainty) UnmarshalJSON(data []byte) error {
	var raw *float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*w = CertaintyNone
		return nil
	}
	*w = BucketCertainty(*raw)
	return nil
}

func (w WarrantableCertainty) String() string {
	switch w {
	case CertaintyHigh:
		return "high"
	case CertaintyMedium:
		return "medium"
	case CertaintyLow:
		return "low"
	default:
		return "none"
	}
}

// StructuredResult is the model's structured answer for one user turn.
type StructuredResult struct {
	IssueNumber                    *int                 `json:"issue_number"`
	BuilderResponsible             *bool                `json:"builder_responsible"`
	Question                       *StructuredQuestion  `json:"question_model"`
	CorrectIssueCertaintyScore     int                  `json:"correct_issue_certainty_score"`
	IssueWarrantableCertaintyScore WarrantableCertainty `json:"issue_warrantable_certainty_score"`
}

// RedirectResult is the model's pick for a free text answer.
type RedirectResult struct {
	ClosestMatchingCopilotFlow *string `json:"closest_matching_copilot_flow"`
}

// WireAnswer is one answer in the conversational platform's format.
type WireAnswer struct {
	DisplayName                string `json:"DisplayName"`
	ExternalIntentID           string `json:"ExternalIntentId"`
	Score                      int    `json:"Score"`
	TopicID                    string `json:"TopicId"`
	TriggerID                  string `json:"TriggerId"`
	ClosestMatchingIssueNumber *int   `json:"closest_matching_issue_number"`
}

// WireQuestion is the question/answer payload returned to the platform.
type WireQuestion struct {
	QuestionText string       `json:"question_text"`
	AnswerSet    []WireAnswer `json:"answer_set"`
}

// ExtractionResponse reports the issue the dialog converged on.
type ExtractionResponse struct {
	IssueNumber                    *int                 `json:"issue_number"`
	BuilderResponsible             *bool                `json:"builder_responsible"`
	CorrectIssueCertaintyScore     int                  `json:"correct_issue_certainty_score"`
	IssueWarrantableCertaintyScore WarrantableCertainty `json:"issue_warrantable_certainty_score"`
	Question                       *WireQuestion        `json:"question,omitempty"`
}
