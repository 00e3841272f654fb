package qna

import "warranty-copilot/internal/llm"

var answerChoiceType = llm.Object(
	llm.Prop("answer_text", llm.String()),
	llm.Prop("warrantable_certainty_modifier", llm.Describe(llm.Null(llm.Number()), "0 to 100, lower means less likely warrantable")),
	llm.Prop("answer_index", llm.Integer()),
	llm.Prop("associated_copilot_flow", llm.Null(llm.String())),
	llm.Prop("closest_matching_issue_number", llm.Null(llm.Integer())),
)

var questionType = llm.Object(
	llm.Prop("question_text", llm.String()),
	llm.Prop("answer_set", llm.Array(answerChoiceType)),
	llm.Prop("user_answer", llm.Null(llm.String())),
	llm.Prop("closest_matching_issue_number", llm.Null(llm.Integer())),
	llm.Prop("closest_matching_flow", llm.Null(llm.String())),
	llm.Prop("reason", llm.String()),
)

// StructuredResultSchema matches StructuredResult.
var StructuredResultSchema = llm.Schema{
	Name: "ai_response_format",
	Root: llm.Object(
		llm.Prop("issue_number", llm.Null(llm.Integer())),
		llm.Prop("builder_responsible", llm.Null(llm.Boolean())),
		llm.Prop("question_model", llm.Null(questionType)),
		llm.Prop("correct_issue_certainty_score", llm.Describe(llm.Integer(), "1 to 100")),
		llm.Prop("issue_warrantable_certainty_score", &llm.Type{
			Kind: llm.KindInteger,
			Enum: []any{int(CertaintyHigh), int(CertaintyMedium), int(CertaintyLow), int(CertaintyNone)},
		}),
	),
}

// RedirectSchema matches RedirectResult.
var RedirectSchema = llm.Schema{
	Name: "redirect_response",
	Root: llm.Object(
		llm.Prop("closest_matching_copilot_flow", llm.Null(llm.String())),
	),
}
