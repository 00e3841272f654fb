package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"warranty-copilot/internal/intents"
	"warranty-copilot/internal/llm"
	"warranty-copilot/internal/llm/azure"
	"warranty-copilot/internal/llm/gemini"
	"warranty-copilot/internal/monitor"
	"warranty-copilot/internal/qna"
	"warranty-copilot/internal/services/health"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/server"
	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/storage/db"
	"warranty-copilot/internal/shared/storage/object"
	localstore "warranty-copilot/internal/shared/storage/object/local"
	s3store "warranty-copilot/internal/shared/storage/object/s3"
	"warranty-copilot/internal/shared/telemetry"
	"warranty-copilot/internal/teams"
	"warranty-copilot/internal/topics"
	"warranty-copilot/internal/waitsec"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Mongo   *mongo.Client
	Redis   *redis.Client
	Objects object.Store
	LLM     llm.Client
	Topics  topics.Store
	Flags   monitor.FlagStore
	Intents intents.Loader
	QnA     *qna.Service
	Health  *health.Service
}

// Build connects every configured backend and wires the handlers.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg, Health: health.NewService()}

	var err error
	if app.Objects, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Mongo, err = buildMongo(ctx, cfg); err != nil {
		return nil, err
	}
	app.Redis = buildRedis(cfg)
	if app.LLM, err = buildLLM(ctx, cfg.LLM); err != nil {
		return nil, err
	}
	if app.Topics, err = app.buildTopics(); err != nil {
		return nil, err
	}
	app.Flags = app.buildFlags()
	app.Intents = intents.Loader{Store: app.Objects, Key: cfg.IntentsKey}
	app.QnA = qna.NewService(app.Topics, app.LLM, cfg.BuildEnv, cfg.LLM.PrimeTimeout)
	app.registerChecks()

	var limiter middleware.Limiter
	if app.Redis != nil {
		limiter = middleware.NewRedisLimiter(app.Redis, "copilot:ratelimit:")
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:  cfg,
		Limiter: limiter,
		Health:  app.Health,
		QnA:     qna.NewHandler(app.QnA),
		Intents: intents.NewHandler(app.Intents),
		Monitor: monitor.NewHandler(app.Flags),
		Teams:   teams.NewHandler(teams.NewNotifier(cfg.TeamsWebhookURL), cfg.TeamsMention),
		WaitSec: waitsec.NewHandler(),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"build_env":    string(cfg.BuildEnv),
		"topic_store":  cfg.TopicStore,
		"object_store": cfg.ObjectStoreType,
		"llm_provider": cfg.LLM.Provider,
		"dependencies": app.Health.Names(),
	})
	return app, nil
}

// Close waits for background priming and releases connections.
func (a *App) Close(ctx context.Context) error {
	if a.QnA != nil {
		a.QnA.Wait()
	}
	var errs []error
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.TopicStore == "postgres" {
			return nil, fmt.Errorf("TOPIC_STORE=postgres requires DATABASE_URL")
		}
		return nil, nil
	}

	opts := db.ProfileOptions(db.RuntimeProfile())
	connect := db.Connect
	if db.IsLambdaRuntime() {
		connect = db.Shared
	}
	sqlDB, err := connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) && cfg.TopicStore != "postgres" {
			telemetry.Warn("bootstrap.db_unavailable", map[string]any{"error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildMongo(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	if strings.TrimSpace(cfg.MongoURI) == "" {
		if cfg.TopicStore == "mongo" {
			return nil, fmt.Errorf("TOPIC_STORE=mongo requires MONGO_URI")
		}
		return nil, nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, nil
}

func buildRedis(cfg config.Config) *redis.Client {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildLLM returns nil when no backend is configured and a Disconnected
// client when one is configured but fails to construct. Either way the QnA
// service answers every request with an acknowledgement.
func buildLLM(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.Provider})
			return nil, nil
		}
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxRetries)
		if err != nil {
			return llmUnavailable(cfg.Provider, err), nil
		}
		return client, nil
	default:
		if strings.TrimSpace(cfg.AzureEndpoint) == "" {
			telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.Provider})
			return nil, nil
		}
		azureCfg := azure.Config{
			Endpoint:   cfg.AzureEndpoint,
			Deployment: cfg.AzureDeployment,
			Model:      cfg.AzureModel,
			APIVersion: cfg.AzureAPIVersion,
			APIKey:     cfg.AzureAPIKey,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}
		if azureCfg.APIKey == "" && cfg.AzureClientID != "" {
			azureCfg.TokenSource = azure.EntraTokenSource(ctx, cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureSecret)
		}
		client, err := azure.New(azureCfg)
		if err != nil {
			return llmUnavailable(cfg.Provider, err), nil
		}
		return client, nil
	}
}

// llmUnavailable keeps the service answering with acknowledgements when the
// provider is configured but cannot be constructed.
func llmUnavailable(provider string, err error) llm.Client {
	telemetry.Warn("bootstrap.llm_unavailable", map[string]any{
		"provider": provider,
		"error":    err.Error(),
	})
	return llm.Disconnected{Reason: err}
}

func (a *App) buildTopics() (topics.Store, error) {
	switch a.Config.TopicStore {
	case "mongo":
		return topics.NewMongoStore(a.Mongo.Database(a.Config.MongoDatabase)), nil
	case "postgres":
		return &topics.PGStore{DB: a.DB}, nil
	default:
		return topics.NewFileStore(a.Objects, a.Config.TopicDataKey), nil
	}
}

// buildFlags prefers the document store since flags live on topic documents.
func (a *App) buildFlags() monitor.FlagStore {
	switch {
	case a.Mongo != nil:
		return monitor.NewMongoStore(a.Mongo.Database(a.Config.MongoDatabase))
	case a.DB != nil:
		return &monitor.PGStore{DB: a.DB}
	default:
		if !isDevLike(a.Config.Env) {
			telemetry.Warn("bootstrap.monitor_flags_in_memory", nil)
		}
		return monitor.NewMemoryStore()
	}
}

func (a *App) registerChecks() {
	if a.DB != nil {
		a.Health.Register("postgres", a.DB.PingContext)
	}
	if a.Mongo != nil {
		a.Health.Register("mongo", func(ctx context.Context) error {
			return a.Mongo.Ping(ctx, readpref.Primary())
		})
	}
	if a.Redis != nil {
		a.Health.Register("redis", func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
