package qna

import (
	"context"
	"errors"
	"sync"
	"time"

	"warranty-copilot/internal/llm"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/metrics"
	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/telemetry"
	"warranty-copilot/internal/topics"
)

const defaultPrimeTimeout = 30 * time.Second

var (
	// ErrMissingTopic is returned when copilot/topic or subtopic is empty.
	ErrMissingTopic = errors.New("copilot and subtopic are required")
	// ErrInvalidResource is returned for an unknown clarify_issue resource.
	ErrInvalidResource = errors.New("invalid resource")
)

// Service runs the cold start and converse flows.
type Service struct {
	Topics       topics.Store
	LLM          llm.Client
	Env          config.BuildEnv
	PrimeTimeout time.Duration

	wg sync.WaitGroup
}

// NewService constructs a Service. A nil client behaves as disconnected.
func NewService(store topics.Store, client llm.Client, env config.BuildEnv, primeTimeout time.Duration) *Service {
	if client == nil {
		client = llm.Disconnected{}
	}
	return &Service{Topics: store, LLM: client, Env: env, PrimeTimeout: primeTimeout}
}

// Outcome is what a call produced. At most one payload is set; none means
// the caller should acknowledge.
type Outcome struct {
	Purpose    Purpose
	Question   *WireQuestion
	Redirect   *WireAnswer
	Extraction *ExtractionResponse
}

// Acknowledged reports whether there is no payload to return.
func (o Outcome) Acknowledged() bool {
	return o.Question == nil && o.Redirect == nil && o.Extraction == nil
}

// Body returns the payload to serialize, or nil for an acknowledgement.
func (o Outcome) Body() any {
	switch {
	case o.Question != nil:
		return o.Question
	case o.Redirect != nil:
		return o.Redirect
	case o.Extraction != nil:
		return o.Extraction
	default:
		return nil
	}
}

// Handle validates req, loads the topic and runs purpose. An empty input
// always takes the cold start path. Model failures degrade to an
// acknowledgement and are never returned as errors.
func (s *Service) Handle(ctx context.Context, purpose Purpose, req Request) (Outcome, error) {
	name := req.TopicName()
	subtopic := req.Subtopic
	if name == "" || subtopic == "" {
		return Outcome{}, ErrMissingTopic
	}

	env := s.Env
	if req.Env != "" {
		env = config.ParseBuildEnv(req.Env)
	}
	topic, err := topics.Load(ctx, s.Topics, env, name)
	if err != nil {
		return Outcome{}, err
	}

	if purpose == PurposeAcknowledge {
		return Outcome{Purpose: purpose}, nil
	}

	subIssues := topic.IssuesFor(subtopic)
	base := BaseInstructions(topic, subtopic, subIssues)

	input := req.Input(purpose)
	if purpose == PurposeColdStart || input == "" {
		s.coldStart(ctx, base, name, subtopic)
		return Outcome{Purpose: PurposeColdStart}, nil
	}

	metrics.IncConverse()
	out := Outcome{Purpose: purpose}
	switch purpose {
	case PurposeRedirect:
		var result RedirectResult
		prompt := llm.Prompt{
			System: [][]string{base, RedirectInstructions(topic, subtopic, subIssues)},
			User:   []string{input},
			Schema: RedirectSchema,
		}
		if s.generate(ctx, prompt, &result, name, purpose) {
			out.Redirect = RedirectToWire(topic.TopicID, &result)
		}
	case PurposeExtract:
		var result StructuredResult
		prompt := llm.Prompt{
			System: [][]string{base, ExtractionInstructions(topic, topic.Issues, req.PreviousQuestions)},
			User:   []string{input},
			Schema: StructuredResultSchema,
		}
		if s.generate(ctx, prompt, &result, name, purpose) {
			Normalize(&result, topic.Issues)
			out.Extraction = ToExtraction(topic.TopicID, &result)
		}
	default:
		var result StructuredResult
		prompt := llm.Prompt{
			System: [][]string{base, ClarifyingInstructions(topic, subtopic, req.PreviousQuestions)},
			User:   []string{input},
			Schema: StructuredResultSchema,
		}
		if s.generate(ctx, prompt, &result, name, purpose) {
			Normalize(&result, topic.Issues)
			out.Question = ToWire(topic.TopicID, result.Question)
		}
	}
	if out.Acknowledged() {
		metrics.IncDegraded()
	}
	return out, nil
}

// Wait blocks until detached priming calls have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// coldStart primes the backend with the base instructions on a detached
// goroutine. The result is discarded and the request does not wait for it.
func (s *Service) coldStart(ctx context.Context, base []string, topic, subtopic string) {
	metrics.IncColdStart()
	timeout := s.PrimeTimeout
	if timeout <= 0 {
		timeout = defaultPrimeTimeout
	}
	detached := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pctx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()

		err := s.LLM.Prime(pctx, base)
		if err == nil || errors.Is(err, llm.ErrNoResult) {
			return
		}
		metrics.IncPrimeFailed()
		telemetry.Warn("qna.prime_failed", map[string]any{
			"request_id": middleware.RequestIDFrom(detached),
			"copilot":    topic,
			"subtopic":   subtopic,
			"error":      err,
		})
	}()
}

func (s *Service) generate(ctx context.Context, prompt llm.Prompt, out any, topic string, purpose Purpose) bool {
	start := time.Now()
	err := s.LLM.Generate(ctx, prompt, out)
	metrics.ObserveCompletionMs(float64(time.Since(start).Milliseconds()))
	if err == nil {
		return true
	}
	if !errors.Is(err, llm.ErrNoResult) {
		telemetry.Warn("qna.generate_failed", map[string]any{
			"request_id": middleware.RequestIDFrom(ctx),
			"copilot":    topic,
			"purpose":    string(purpose),
			"schema":     prompt.Schema.Name,
			"error":      err,
		})
	}
	return false
}
