package topics

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"warranty-copilot/internal/shared/config"
)

// Collection is the base name of the topic document collection; the
// build env prefix is prepended, e.g. dev_azure_data.
const Collection = "azure_data"

// MongoStore keeps one document per topic, keyed by topic name, with the
// issues embedded.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore constructs a MongoStore over database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

type mongoTopic struct {
	Name  string `bson:"_id"`
	Topic `bson:",inline"`
}

func (s *MongoStore) Get(ctx context.Context, env config.BuildEnv, name string) (Topic, error) {
	var doc mongoTopic
	err := s.db.Collection(env.Collection(Collection)).
		FindOne(ctx, bson.M{"_id": name}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Topic{}, ErrNotFound
	}
	if err != nil {
		return Topic{}, fmt.Errorf("find topic: %w", err)
	}
	return doc.Topic, nil
}

func (s *MongoStore) Put(ctx context.Context, env config.BuildEnv, name string, topic Topic) error {
	_, err := s.db.Collection(env.Collection(Collection)).ReplaceOne(
		ctx,
		bson.M{"_id": name},
		mongoTopic{Name: name, Topic: topic},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert topic: %w", err)
	}
	return nil
}
