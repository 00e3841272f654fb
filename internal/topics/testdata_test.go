package topics

func doorsTopic() Topic {
	return Topic{
		TopicID:             "cr_doors",
		DisplayName:         "Doors",
		AdditionalTopicInfo: "Exterior doors include garage service doors.",
		Issues: []Issue{
			{IssueNumber: 1, Observation: "Door binds in frame", CorrectiveMeasure: "Builder will adjust", AssociatedFlow: "door_binding", Subtopics: []string{"frame"}},
			{IssueNumber: 2, Observation: "Door warped", CorrectiveMeasure: "Builder will replace", AssociatedFlow: "door_warp", Subtopics: []string{"slab"}},
			{IssueNumber: 3, Observation: "Gap under threshold", CorrectiveMeasure: "Homeowner maintenance", AssociatedFlow: "", Subtopics: []string{"frame", "threshold"}},
		},
	}
}
