package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"warranty-copilot/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	BuildEnv BuildEnv

	LLM LLMConfig

	TopicStore   string
	TopicDataKey string
	IntentsKey   string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	RedisAddr     string

	RateLimitRPS   float64
	RateLimitBurst int

	TeamsWebhookURL string
	TeamsMention    string
}

// LLMConfig selects and configures the completion backend.
type LLMConfig struct {
	Provider        string
	AzureAPIKey     string
	AzureEndpoint   string
	AzureDeployment string
	AzureModel      string
	AzureAPIVersion string
	AzureTenantID   string
	AzureClientID   string
	AzureSecret     string
	GeminiAPIKey    string
	GeminiModel     string
	Timeout         time.Duration
	MaxRetries      int
	PrimeTimeout    time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	buildEnv := ParseBuildEnv(getEnv("BUILD_ENV", "DEV"))

	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		Env:      env,
		BuildEnv: buildEnv,
		LLM: LLMConfig{
			Provider:        normalizeProvider(getEnv("LLM_PROVIDER", "azure")),
			AzureAPIKey:     getEnv("AZURE_AI_API_KEY", ""),
			AzureEndpoint:   getEnv("AZURE_AI_ENDPOINT", ""),
			AzureDeployment: getEnv("AZURE_AI_DEPLOYMENT_NAME", "gpt-4o"),
			AzureModel:      getEnv("AZURE_AI_MODEL_NAME", "gpt-4o"),
			AzureAPIVersion: getEnv("AZURE_AI_API_VERSION", "2024-10-21"),
			AzureTenantID:   getEnv("AZURE_AI_TENANT_ID", ""),
			AzureClientID:   getEnv("AZURE_AI_CLIENT_ID", ""),
			AzureSecret:     getEnv("AZURE_AI_CLIENT_SECRET", ""),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:         time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
			MaxRetries:      getEnvInt("LLM_MAX_RETRIES", 2),
			PrimeTimeout:    getEnvDuration("PRIME_TIMEOUT", 30*time.Second),
		},
		TopicStore:      normalizeTopicStore(getEnv("TOPIC_STORE", "file")),
		TopicDataKey:    getEnv("TOPIC_DATA_KEY", "combined_training_data.json"),
		IntentsKey:      getEnv("INTENTS_KEY", "TopicIntents.yaml"),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "warranty"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       strings.TrimPrefix(getEnv("REDIS_ADDR", ""), "redis://"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
		TeamsWebhookURL: getEnv("TEAMS_WEBHOOK_URL", ""),
		TeamsMention:    getEnv("TEAMS_MENTION", ""),
	}

	if env == "production" && cfg.TopicStore == "file" {
		telemetry.Warn("config.topic_store_file_in_production", nil)
	}
	return cfg
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeTopicStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mongo", "mongodb":
		return "mongo"
	case "postgres", "pg":
		return "postgres"
	default:
		return "file"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "off", "disabled":
		return "none"
	default:
		return "azure"
	}
}
