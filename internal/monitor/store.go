package monitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"warranty-copilot/internal/shared/config"
)

// Collection holds one document per topic carrying the monitor flag.
const Collection = "warranty_topics"

// ErrTopicRequired is returned when the topic or env is missing.
var ErrTopicRequired = errors.New("Requires topic, error_flagged, and env")

// FlagStore persists the postman monitor error flag per topic.
type FlagStore interface {
	SetFlag(ctx context.Context, env config.BuildEnv, topic string, flagged bool) error
}

// dataset names the shared dataset an env reads. STAGE and PROD share one.
func dataset(env config.BuildEnv) string {
	return strings.TrimSuffix(env.CollectionPrefix(), "_")
}

// MongoStore sets the flag on the topic's document.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore constructs a MongoStore over database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) SetFlag(ctx context.Context, env config.BuildEnv, topic string, flagged bool) error {
	_, err := s.db.Collection(env.Collection(Collection)).UpdateOne(
		ctx,
		bson.M{"_id": topic},
		bson.M{"$set": bson.M{"postman_monitor_error_flag": flagged}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("update monitor flag: %w", err)
	}
	return nil
}

// PGStore keeps flags in copilot_monitor_flags.
type PGStore struct {
	DB *sql.DB
}

func (s *PGStore) SetFlag(ctx context.Context, env config.BuildEnv, topic string, flagged bool) error {
	const query = `
INSERT INTO copilot_monitor_flags (env, topic, postman_monitor_error_flag, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (env, topic) DO UPDATE SET
    postman_monitor_error_flag = EXCLUDED.postman_monitor_error_flag,
    updated_at = now()`

	if _, err := s.DB.ExecContext(ctx, query, dataset(env), topic, flagged); err != nil {
		return fmt.Errorf("upsert monitor flag: %w", err)
	}
	return nil
}

// MemoryStore is an in-process FlagStore for local runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

func (s *MemoryStore) SetFlag(ctx context.Context, env config.BuildEnv, topic string, flagged bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[dataset(env)+"/"+topic] = flagged
	return nil
}

// Flag returns the stored flag and whether one was set.
func (s *MemoryStore) Flag(env config.BuildEnv, topic string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.flags[dataset(env)+"/"+topic]
	return v, ok
}
