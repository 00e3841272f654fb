package topics

import (
	"context"
	"sync"

	"warranty-copilot/internal/shared/config"
)

// MemoryStore is an in-memory Store keyed by env prefix and topic name.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Topic
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Topic)}
}

func memoryKey(env config.BuildEnv, name string) string {
	return env.CollectionPrefix() + name
}

func (s *MemoryStore) Get(ctx context.Context, env config.BuildEnv, name string) (Topic, error) {
	if err := ctx.Err(); err != nil {
		return Topic{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	topic, ok := s.data[memoryKey(env, name)]
	if !ok {
		return Topic{}, ErrNotFound
	}
	return cloneTopic(topic), nil
}

func (s *MemoryStore) Put(ctx context.Context, env config.BuildEnv, name string, topic Topic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[memoryKey(env, name)] = cloneTopic(topic)
	return nil
}

func cloneTopic(t Topic) Topic {
	out := t
	out.Issues = make([]Issue, len(t.Issues))
	for i, issue := range t.Issues {
		issue.Subtopics = append([]string(nil), issue.Subtopics...)
		out.Issues[i] = issue
	}
	return out
}
