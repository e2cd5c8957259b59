// Package config builds process configuration from environment variables so
// main stays lean. Defaults suit the local compose environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Addr     string
	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
	CacheTTL time.Duration
}

// Redis captures cache backend settings. An empty URL disables the external
// cache; the service then memoizes in process memory.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres captures repository settings. An empty URL keeps matches in
// process memory, which is only useful for local runs.
type Postgres struct {
	URL string
}

// Kafka captures the donation event stream settings. Empty brokers disable
// event intake entirely (admin surface still works).
type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
	Workers int
}

// FromEnv reads the environment and fills in defaults.
func FromEnv() Config {
	return Config{
		Addr: envOr("FOODMATCH_ADDR", ":8080"),
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Postgres: Postgres{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envOr("KAFKA_TOPIC", "donation.events"),
			Group:   envOr("KAFKA_GROUP", "matching-service-group"),
			Workers: envIntOr("KAFKA_WORKERS", 4),
		},
		CacheTTL: envDurationOr("MATCH_CACHE_TTL", 30*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
