// Package config reads service settings from the environment. A .env file in
// the working directory is loaded first by the godotenv autoload import in
// main.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is every setting the server and historian read at startup.
type Config struct {
	Port           int
	AllowedOrigins []string
	LogLevel       string

	// ActionRate is the minimum spacing between inbound actions on one
	// connection; ActionBurst allows short bursts above it.
	ActionRate  time.Duration
	ActionBurst int

	Redis     RedisConfig
	Historian HistorianConfig
	Postgres  PostgresConfig
}

// RedisConfig locates the action queue. An empty Addr disables recording.
type RedisConfig struct {
	Addr  string
	DB    int
	Queue string
}

// HistorianConfig tunes batching in the historian service.
type HistorianConfig struct {
	BatchSize  int
	FlushDelay time.Duration
}

// PostgresConfig holds the connection parameters for the action archive.
type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// ConnString renders the parameters as a postgres:// URL.
func (c PostgresConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Database,
	}
	return u.String()
}

// Load reads the environment, falling back to defaults for anything unset or
// unparsable.
func Load() Config {
	return Config{
		Port:           getEnvInt("PORT", 8080),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ActionRate:     time.Duration(getEnvInt("ACTION_RATE_MS", 100)) * time.Millisecond,
		ActionBurst:    getEnvInt("ACTION_BURST", 10),
		Redis: RedisConfig{
			Addr:  getEnv("REDIS_ADDR", ""),
			DB:    getEnvInt("REDIS_DB", 0),
			Queue: getEnv("HISTORIAN_QUEUE_NAME", "blackjack_actions"),
		},
		Historian: HistorianConfig{
			BatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
			FlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		},
		Postgres: PostgresConfig{
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Database: getEnv("PG_DATABASE", "blackjack"),
		},
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
