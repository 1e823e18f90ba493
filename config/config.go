package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries read from the environment.
type Config struct {
	DBDriver    string
	DatabaseURL string
	HTTPAddr    string

	RabbitMQURI   string
	RabbitMQQueue string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	LogLevel   string
	LogFormat  string
	BcryptCost int

	User     string
	Password string
}

// LoadConfig reads .env file and returns a Config struct
func LoadConfig() *Config {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	return &Config{
		DBDriver:        getEnv("BANK_DB_DRIVER", "sqlite"),
		DatabaseURL:     getEnv("DATABASE_URL", "bank.db"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
		RabbitMQURI:     getEnv("RABBITMQ_URI", ""),
		RabbitMQQueue:   getEnv("RABBITMQ_QUEUE", "ledger_entries"),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "banking_app"),
		MongoCollection: getEnv("MONGO_COLLECTION", "transactions"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		BcryptCost:      getEnvInt("BCRYPT_COST", 0),
		User:            getEnv("BANK_USER", ""),
		Password:        getEnv("BANK_PASSWORD", ""),
	}
}

// NewLogger builds the process logger. format is "json" or "text"; level is
// one of debug, info, warn, error.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Helper to get env with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring non-numeric environment variable", "key", key, "value", value)
		return fallback
	}
	return n
}
