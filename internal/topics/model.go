package topics

import "strings"

// Issue is one warranty guideline entry within a topic.
type Issue struct {
	IssueNumber                 int      `json:"issue_number" bson:"issue_number"`
	Observation                 string   `json:"observation" bson:"observation"`
	PerformanceGuideline        string   `json:"performance_guideline,omitempty" bson:"performance_guideline,omitempty"`
	RemodelingSpecificGuideline string   `json:"remodeling_specific_guideline,omitempty" bson:"remodeling_specific_guideline,omitempty"`
	VoidWarrantyFactors         string   `json:"void_warranty_factors,omitempty" bson:"void_warranty_factors,omitempty"`
	CorrectiveMeasure           string   `json:"corrective_measure" bson:"corrective_measure"`
	Discussion                  string   `json:"discussion,omitempty" bson:"discussion,omitempty"`
	AssociatedFlow              string   `json:"associated_copilot_flow" bson:"associated_copilot_flow"`
	Chapter                     int      `json:"chapter,omitempty" bson:"chapter,omitempty"`
	Subchapter                  int      `json:"subchapter,omitempty" bson:"subchapter,omitempty"`
	Subtopics                   []string `json:"subtopics" bson:"subtopics"`
}

// HasSubtopic reports whether the issue is tagged with subtopic.
func (i Issue) HasSubtopic(subtopic string) bool {
	for _, s := range i.Subtopics {
		if s == subtopic {
			return true
		}
	}
	return false
}

// Topic is the training document for one copilot topic.
type Topic struct {
	TopicID             string  `json:"topic_id" bson:"topic_id"`
	DisplayName         string  `json:"topic" bson:"topic"`
	AdditionalNotes     string  `json:"additional_notes" bson:"additional_notes"`
	AdditionalTopicInfo string  `json:"additional_topic_info" bson:"additional_topic_info"`
	Issues              []Issue `json:"issues" bson:"issues"`
}

// IssuesFor returns a fresh slice of the issues tagged with subtopic, in
// document order.
func (t Topic) IssuesFor(subtopic string) []Issue {
	out := make([]Issue, 0, len(t.Issues))
	for _, issue := range t.Issues {
		if issue.HasSubtopic(subtopic) {
			out = append(out, issue)
		}
	}
	return out
}

// KnownTopics lists the topic document names a copilot may request.
var KnownTopics = []string{
	"appliances",
	"decking",
	"doors",
	"electrical",
	"exterior_finishes",
	"flooring",
	"foundation",
	"garage",
	"General",
	"interior_climate_control",
	"interior_finishes",
	"landscape_and_sitework",
	"plumbing",
	"roof",
	"shared",
	"structural",
	"walls_and_ceilings",
}

// Canonical maps a requested topic name to its document name. Matching is
// case-insensitive and ignores surrounding whitespace.
func Canonical(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	for _, known := range KnownTopics {
		if strings.EqualFold(known, trimmed) {
			return known, nil
		}
	}
	return "", unknownTopicError(trimmed)
}
