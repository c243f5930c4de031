package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string
	AppEnv   string
	LogLevel string

	// empty disables the audit tables; "sqlite:<path>" selects the embedded driver
	DBDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// rabbitMQ
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	// AI provider
	AIProvider        string
	OllamaBaseURL     string
	OllamaModel       string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiProject     string
	GeminiLocation    string
	RemoteTimeout     time.Duration

	// local model + sessions
	ModelDir                 string
	SessionMaxMessages       int
	SessionTimeout           time.Duration
	MaintenanceInterval      time.Duration
	FeedbackRetrainThreshold int

	AdminJWTSecret string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getduration accepts Go durations ("90s") or a bare number of seconds.
func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func Load() Config {
	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/supportbot?charset=utf8mb4&parseTime=true&loc=Local
	// sqlite:./data/supportbot.db

	concurrency := getint("WORKER_CONCURRENCY", 2)
	if concurrency <= 0 {
		concurrency = 2
	}
	if concurrency > 50 {
		concurrency = 50
	}

	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDSN: os.Getenv("DB_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       getenv("RABBIT_QUEUE", "supportbot_events"),
		WorkerConcurrency: concurrency,

		AIProvider:        getenv("AI_PROVIDER", "ollama"),
		OllamaBaseURL:     getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getenv("OLLAMA_MODEL", "llama3:latest"),
		OpenRouterBaseURL: getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getenv("OPENROUTER_MODEL", "openrouter/auto"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       os.Getenv("GEMINI_MODEL"),
		GeminiProject:     os.Getenv("GEMINI_PROJECT"),
		GeminiLocation:    getenv("GEMINI_LOCATION", "us-central1"),
		RemoteTimeout:     getduration("REMOTE_TIMEOUT", 15*time.Second),

		ModelDir:                 getenv("MODEL_DIR", "./models"),
		SessionMaxMessages:       getint("SESSION_MAX_MESSAGES", 20),
		SessionTimeout:           getduration("SESSION_TIMEOUT", 30*time.Minute),
		MaintenanceInterval:      getduration("MAINTENANCE_INTERVAL", time.Hour),
		FeedbackRetrainThreshold: getint("FEEDBACK_RETRAIN_THRESHOLD", 20),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
	}
}
