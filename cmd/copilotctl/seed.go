package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/storage/db"
	"warranty-copilot/internal/shared/storage/object"
	localstore "warranty-copilot/internal/shared/storage/object/local"
	s3store "warranty-copilot/internal/shared/storage/object/s3"
	"warranty-copilot/internal/shared/telemetry"
	"warranty-copilot/internal/topics"
)

const seedConcurrency = 4

func newSeedCmd(load func() config.Config) *cobra.Command {
	var (
		envName string
		target  string
		key     string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Copy combined training data into the topic document store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := load()
			if target == "" {
				target = cfg.TopicStore
			}
			if key == "" {
				key = cfg.TopicDataKey
			}
			ctx := cmd.Context()

			objects, err := openObjects(ctx, cfg)
			if err != nil {
				return err
			}
			all, err := topics.NewFileStore(objects, key).All(ctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", key, err)
			}

			writer, closeWriter, err := openWriter(ctx, cfg, target)
			if err != nil {
				return err
			}
			defer closeWriter()

			env := config.ParseBuildEnv(envName)
			n, err := seedTopics(ctx, writer, env, all)
			if err != nil {
				return err
			}
			telemetry.Info("copilotctl.seeded", map[string]any{"env": string(env), "target": target, "topics": n})
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d topics into %s (%s)\n", n, target, env)
			return nil
		},
	}
	cmd.Flags().StringVar(&envName, "env", "DEV", "build env to seed (DEV, STAGE, PROD, TEST)")
	cmd.Flags().StringVar(&target, "target", "", "mongo or postgres (defaults to TOPIC_STORE)")
	cmd.Flags().StringVar(&key, "key", "", "object key of the combined training data (defaults to TOPIC_DATA_KEY)")
	return cmd
}

// seedTopics writes every topic under its canonical name. Unknown names are
// skipped.
func seedTopics(ctx context.Context, w topics.Writer, env config.BuildEnv, all map[string]topics.Topic) (int, error) {
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	written := 0
	for _, name := range names {
		canonical, err := topics.Canonical(name)
		if err != nil {
			telemetry.Warn("copilotctl.seed_skipped", map[string]any{"topic": name})
			continue
		}
		topic := all[name]
		written++
		g.Go(func() error {
			if err := w.Put(gctx, env, canonical, topic); err != nil {
				return fmt.Errorf("seed %s: %w", canonical, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return written, nil
}

func openObjects(ctx context.Context, cfg config.Config) (object.Store, error) {
	if cfg.ObjectStoreType == "s3" {
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	}
	return localstore.New(cfg.LocalStoreDir), nil
}

func openWriter(ctx context.Context, cfg config.Config, target string) (topics.Writer, func(), error) {
	switch target {
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, nil, fmt.Errorf("MONGO_URI is required")
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return topics.NewMongoStore(client.Database(cfg.MongoDatabase)), closeFn, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required")
		}
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.ProfileOptions(db.ProfileMigrate))
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return &topics.PGStore{DB: sqlDB}, func() { _ = sqlDB.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("seed target must be mongo or postgres, got %q", target)
	}
}
