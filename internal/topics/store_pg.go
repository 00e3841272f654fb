package topics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"warranty-copilot/internal/shared/config"
)

// PGStore keeps topics in the warranty_topics table with issues as JSONB.
type PGStore struct {
	DB *sql.DB
}

func (s *PGStore) Get(ctx context.Context, env config.BuildEnv, name string) (Topic, error) {
	const query = `
SELECT topic_id, display_name, additional_notes, additional_topic_info, issues
FROM warranty_topics
WHERE collection = $1 AND name = $2`

	var topic Topic
	var issues []byte
	err := s.DB.QueryRowContext(ctx, query, env.Collection(Collection), name).Scan(
		&topic.TopicID,
		&topic.DisplayName,
		&topic.AdditionalNotes,
		&topic.AdditionalTopicInfo,
		&issues,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Topic{}, ErrNotFound
	}
	if err != nil {
		return Topic{}, fmt.Errorf("select topic: %w", err)
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &topic.Issues); err != nil {
			return Topic{}, fmt.Errorf("decode issues: %w", err)
		}
	}
	return topic, nil
}

func (s *PGStore) Put(ctx context.Context, env config.BuildEnv, name string, topic Topic) error {
	const query = `
INSERT INTO warranty_topics (collection, name, topic_id, display_name, additional_notes, additional_topic_info, issues, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (collection, name) DO UPDATE SET
    topic_id = EXCLUDED.topic_id,
    display_name = EXCLUDED.display_name,
    additional_notes = EXCLUDED.additional_notes,
    additional_topic_info = EXCLUDED.additional_topic_info,
    issues = EXCLUDED.issues,
    updated_at = now()`

	issues := topic.Issues
	if issues == nil {
		issues = []Issue{}
	}
	payload, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, query,
		env.Collection(Collection),
		name,
		topic.TopicID,
		topic.DisplayName,
		topic.AdditionalNotes,
		topic.AdditionalTopicInfo,
		payload,
	)
	return err
}
