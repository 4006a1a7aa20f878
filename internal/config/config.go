package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	StorageDriver          string
	BoltPath               string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	OperatorUsername       string
	OperatorPassword       string
	AuthSecret             string
	AccessTokenTTLMinutes  int
	GeminiAPIKey           string
	GeminiModel            string
	AISuggestionTTLSeconds int
	RabbitMQURL            string
	LogMode                string
	LogFile                string
	LowStockThreshold      int
	ReportSchedule         string
}

const (
	StorageBolt     = "bolt"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("STORAGE_DRIVER", StorageBolt)
	v.SetDefault("BOLT_PATH", "butik.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("OPERATOR_USERNAME", "owner")
	v.SetDefault("OPERATOR_PASSWORD", "")
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("AI_SUGGESTION_TTL_SECONDS", 600)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("REPORT_SCHEDULE", "@daily")
	v.AutomaticEnv()

	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	suggestionTTL := v.GetInt("AI_SUGGESTION_TTL_SECONDS")
	if suggestionTTL < 0 {
		suggestionTTL = 0
	}
	lowStock := v.GetInt("LOW_STOCK_THRESHOLD")
	if lowStock < 0 {
		lowStock = 10
	}

	return Config{
		Port:                   v.GetString("PORT"),
		AllowedOrigin:          v.GetString("ALLOWED_ORIGIN"),
		StorageDriver:          strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		BoltPath:               v.GetString("BOLT_PATH"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		OperatorUsername:       strings.TrimSpace(v.GetString("OPERATOR_USERNAME")),
		OperatorPassword:       strings.TrimSpace(v.GetString("OPERATOR_PASSWORD")),
		AuthSecret:             strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes:  tokenTTL,
		GeminiAPIKey:           strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:            v.GetString("GEMINI_MODEL"),
		AISuggestionTTLSeconds: suggestionTTL,
		RabbitMQURL:            v.GetString("RABBITMQ_URL"),
		LogMode:                v.GetString("LOG_MODE"),
		LogFile:                v.GetString("LOG_FILE"),
		LowStockThreshold:      lowStock,
		ReportSchedule:         v.GetString("REPORT_SCHEDULE"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// AIEnabled reports whether a pricing provider key is configured.
func (c Config) AIEnabled() bool {
	return c.GeminiAPIKey != ""
}
