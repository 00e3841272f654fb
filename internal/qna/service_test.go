package qna

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"warranty-copilot/internal/llm"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/topics"
)

func newTestService(client llm.Client) *Service {
	return NewService(seededStore(), client, config.BuildEnvDev, time.Second)
}

func TestHandleColdStartPrimesDetached(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &stubClient{}
	svc := newTestService(client)

	ctx, cancel := context.WithCancel(context.Background())
	out, err := svc.Handle(ctx, PurposeClarify, Request{Copilot: "doors", Subtopic: "frame"})
	cancel()
	require.NoError(t, err)
	assert.True(t, out.Acknowledged())
	assert.Equal(t, PurposeColdStart, out.Purpose)

	svc.Wait()
	require.Equal(t, 1, client.primeCount())
	assert.Equal(t, 0, client.promptCount())
	require.Len(t, client.primes[0], 1)
	assert.Equal(t, doorsTopic().AdditionalTopicInfo, client.primes[0][0][4])
}

func TestHandleColdStartResourceIgnoresInput(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &stubClient{primeErr: errors.New("boom")}
	svc := newTestService(client)

	out, err := svc.Handle(context.Background(), PurposeColdStart, Request{Copilot: "doors", Subtopic: "frame", UserInput: "door sticks"})
	require.NoError(t, err)
	assert.True(t, out.Acknowledged())
	svc.Wait()
	assert.Equal(t, 0, client.promptCount())
}

func TestHandleClarifyBuildsPromptAndNormalizes(t *testing.T) {
	client := &stubClient{response: twoChoiceResult}
	svc := newTestService(client)

	out, err := svc.Handle(context.Background(), PurposeClarify, Request{
		Copilot:           "Doors",
		Subtopic:          "frame",
		UserInput:         "my door won't close",
		PreviousQuestions: []DialogTurn{{QuestionText: "Which door?", AnswerText: strPtr("Front")}},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Question)
	require.Len(t, out.Question.AnswerSet, 3)
	assert.Equal(t, NotListedFlow, out.Question.AnswerSet[2].ExternalIntentID)

	require.Equal(t, 1, client.promptCount())
	prompt := client.prompts[0]
	require.Len(t, prompt.System, 2)
	assert.Len(t, prompt.System[0], 5)
	assert.Len(t, prompt.System[1], 8)
	assert.Equal(t, []string{"my door won't close"}, prompt.User)
	assert.Equal(t, StructuredResultSchema.Name, prompt.Schema.Name)
}

func TestHandleRedirectUsesRedirectAnswer(t *testing.T) {
	client := &stubClient{response: `{"closest_matching_copilot_flow":"door_binding"}`}
	svc := newTestService(client)

	out, err := svc.Handle(context.Background(), PurposeRedirect, Request{
		Copilot: "doors", Subtopic: "frame", UserInput: "door", RedirectAnswer: "it sticks at the top",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Redirect)
	assert.Equal(t, "cr_doors.topic.door_binding", out.Redirect.TopicID)
	assert.Equal(t, []string{"it sticks at the top"}, client.prompts[0].User)
	assert.Equal(t, RedirectSchema.Name, client.prompts[0].Schema.Name)
}

func TestHandleExtract(t *testing.T) {
	client := &stubClient{response: `{"issue_number":1,"builder_responsible":true,"question_model":null,"correct_issue_certainty_score":88,"issue_warrantable_certainty_score":73}`}
	svc := newTestService(client)

	out, err := svc.Handle(context.Background(), PurposeExtract, Request{Copilot: "doors", Subtopic: "frame", UserInput: "door binds"})
	require.NoError(t, err)
	require.NotNil(t, out.Extraction)
	assert.Equal(t, 1, *out.Extraction.IssueNumber)
	assert.True(t, *out.Extraction.BuilderResponsible)
	assert.Equal(t, CertaintyMedium, out.Extraction.IssueWarrantableCertaintyScore)
	assert.Nil(t, out.Extraction.Question)
	assert.Contains(t, client.prompts[0].System[1][0], "door_warp")
}

func TestHandleDegradesWhenNoResult(t *testing.T) {
	for _, clientErr := range []error{llm.ErrNoResult, errors.New("upstream 503")} {
		client := &stubClient{err: clientErr}
		svc := newTestService(client)

		out, err := svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "doors", Subtopic: "frame", UserInput: "x"})
		require.NoError(t, err)
		assert.True(t, out.Acknowledged())
		assert.Nil(t, out.Body())
	}
}

func TestHandleDisconnectedClient(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := NewService(seededStore(), nil, config.BuildEnvDev, 0)
	out, err := svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "doors", Subtopic: "frame", UserInput: "x"})
	require.NoError(t, err)
	assert.True(t, out.Acknowledged())

	_, err = svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "doors", Subtopic: "frame"})
	require.NoError(t, err)
	svc.Wait()
}

func TestHandleValidationPrecedesBackend(t *testing.T) {
	client := &stubClient{response: twoChoiceResult}
	svc := newTestService(client)

	_, err := svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "doors", UserInput: "x"})
	assert.ErrorIs(t, err, ErrMissingTopic)

	_, err = svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "spaceship", Subtopic: "frame", UserInput: "x"})
	assert.ErrorIs(t, err, topics.ErrUnknownTopic)

	_, err = svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "roof", Subtopic: "frame", UserInput: "x"})
	assert.ErrorIs(t, err, topics.ErrNotFound)

	_, err = svc.Handle(context.Background(), PurposeClarify, Request{Copilot: "doors", Subtopic: "frame", UserInput: "x", Env: "PROD"})
	assert.ErrorIs(t, err, topics.ErrNotFound)

	assert.Equal(t, 0, client.promptCount())
	assert.Equal(t, 0, client.primeCount())
}

func TestRequestTopicNameUsesCopilot(t *testing.T) {
	assert.Equal(t, "doors", Request{Copilot: " doors "}.TopicName())
	assert.Equal(t, "", Request{}.TopicName())
	assert.Equal(t, "b", Request{UserInput: "a", RedirectAnswer: "b"}.Input(PurposeRedirect))
	assert.Equal(t, "a", Request{UserInput: "a", RedirectAnswer: "b"}.Input(PurposeClarify))
}
