package topics

import (
	"context"
	"errors"
	"fmt"

	"warranty-copilot/internal/shared/config"
)

var (
	// ErrNotFound is returned when no document exists for a known topic.
	ErrNotFound = errors.New("topic not found")
	// ErrUnknownTopic is returned for names outside KnownTopics.
	ErrUnknownTopic = errors.New("unknown topic")
)

func unknownTopicError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTopic, name)
}

// Store fetches topic documents. Every call returns a freshly decoded Topic;
// callers may not assume anything is cached between requests.
type Store interface {
	Get(ctx context.Context, env config.BuildEnv, name string) (Topic, error)
}

// Writer persists topic documents, used when seeding a store.
type Writer interface {
	Put(ctx context.Context, env config.BuildEnv, name string, topic Topic) error
}

// Load canonicalises name and fetches it from store.
func Load(ctx context.Context, store Store, env config.BuildEnv, name string) (Topic, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return Topic{}, err
	}
	topic, err := store.Get(ctx, env, canonical)
	if err != nil {
		return Topic{}, fmt.Errorf("load topic %s: %w", canonical, err)
	}
	return topic, nil
}
