package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/storage/object"
)

// FileStore reads the combined training-data JSON (a map of topic name to
// Topic) from an object store on every Get.
type FileStore struct {
	Objects object.Store
	Key     string
}

// NewFileStore constructs a FileStore over the object at key.
func NewFileStore(objects object.Store, key string) *FileStore {
	return &FileStore{Objects: objects, Key: key}
}

func (s *FileStore) Get(ctx context.Context, _ config.BuildEnv, name string) (Topic, error) {
	all, err := s.All(ctx)
	if err != nil {
		return Topic{}, err
	}
	topic, ok := all[name]
	if !ok {
		return Topic{}, ErrNotFound
	}
	return topic, nil
}

// All decodes every topic in the combined file.
func (s *FileStore) All(ctx context.Context) (map[string]Topic, error) {
	raw, err := object.ReadAll(ctx, s.Objects, s.Key)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read training data: %w", err)
	}
	return DecodeCombined(raw)
}

// DecodeCombined parses combined training data.
func DecodeCombined(raw []byte) (map[string]Topic, error) {
	var all map[string]Topic
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode training data: %w", err)
	}
	return all, nil
}
