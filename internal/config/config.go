package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort int
	LogLevel   string

	DatabaseURL string

	JWTSecret      []byte
	AccessTokenTTL time.Duration
	RefreshTTL     time.Duration
	ResetTokenTTL  time.Duration

	SuperUserEmail    string
	SuperUserPassword string
	BaseURL           string

	KafkaBrokers []string
	MailTopic    string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string
}

// Load reads .env when present and falls back to the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	return Config{
		Env:        EnvDefault("APP_ENV", "development"),
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL: time.Duration(EnvIntDefault("ACCESS_TOKEN_TTL_HOURS", 24)) * time.Hour,
		RefreshTTL:     time.Duration(EnvIntDefault("REFRESH_TTL_HOURS", 24)) * time.Hour,
		ResetTokenTTL:  time.Duration(EnvIntDefault("RESET_TOKEN_TTL_MINUTES", 30)) * time.Minute,

		SuperUserEmail:    os.Getenv("SUPERUSER_EMAIL"),
		SuperUserPassword: os.Getenv("SUPERUSER_PASSWORD"),
		BaseURL:           EnvDefault("BASE_URL", "http://localhost:8080"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		MailTopic:    EnvDefault("MAIL_TOPIC", "email_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "contacts"),
	}
}

func (c Config) IsDevelopment() bool { return c.Env == "development" }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
