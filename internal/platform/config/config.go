package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the API server and the
// sweeper. Values come from the environment so main stays lean.
type Server struct {
	Addr          string
	PublicBaseURL string
	DatabaseURL   string
	JWTSigningKey string
	Redis         RedisConfig
	Kafka         KafkaConfig

	// Sweep windows.
	WantedPromotionAfter time.Duration
	PaymentPendingMaxAge time.Duration
	TokenMaxIdle         time.Duration
}

// RedisConfig holds connection settings for the wanted-list cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the optional timeline publisher settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("CASEFILE_ADDR", ":8080"),
		PublicBaseURL: envOr("CASEFILE_PUBLIC_BASE_URL", "http://localhost:8080"),
		DatabaseURL:   os.Getenv("CASEFILE_DATABASE_URL"),
		JWTSigningKey: envOr("CASEFILE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("CASEFILE_REDIS_URL"),
			PoolSize:     envIntOr("CASEFILE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CASEFILE_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("CASEFILE_KAFKA_BROKERS")),
			Topic:   envOr("CASEFILE_TIMELINE_TOPIC", "casefile.timeline"),
		},
		WantedPromotionAfter: envDurationOr("CASEFILE_WANTED_PROMOTION_AFTER", 30*24*time.Hour),
		PaymentPendingMaxAge: envDurationOr("CASEFILE_PAYMENT_PENDING_MAX_AGE", 7*24*time.Hour),
		TokenMaxIdle:         envDurationOr("CASEFILE_TOKEN_MAX_IDLE", 90*24*time.Hour),
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

func splitNonEmpty(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
