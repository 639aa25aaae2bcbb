package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	// DataRoot is the filesystem root of the content tree. It is read once
	// here and injected into the path builder; nothing else consults the
	// environment for it.
	DataRoot   string
	CORSOrigin string
	// TokenTTL is the client-visible session lifetime hint (cookie Max-Age).
	// Tokens are not expired server-side.
	TokenTTL time.Duration
	// RedisURL, when set, moves auth token storage to Redis.
	RedisURL string
}

func Load() Config {
	return Config{
		Addr:        getenv("API_ADDR", ":8990"),
		DatabaseURL: getenv("DATABASE_URL", "./data/draftbook.db"),
		DataRoot:    getenv("DRAFTBOOK_DATA_ROOT", "./data/accounts"),
		CORSOrigin:  getenv("DRAFTBOOK_CORS_ORIGIN", "*"),
		TokenTTL:    time.Duration(getenvInt("DRAFTBOOK_TOKEN_TTL_SECONDS", 3600)) * time.Second,
		RedisURL:    getenv("REDIS_URL", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
