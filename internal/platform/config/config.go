package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// BootstrapAdmin is the one principal that receives the admin role on
	// first contact and self-heals it on every subsequent call.
	BootstrapAdmin string

	// RedisURL, when set, backs the sharing index with Redis instead of the
	// in-process map.
	RedisURL string

	// PostgresDSN, when set, persists the audit trail in Postgres instead of
	// the in-process store.
	PostgresDSN string

	// KafkaBrokers and KafkaAuditTopic, when set, mirror every audit entry
	// onto a Kafka topic for downstream compliance consumers.
	KafkaBrokers    []string
	KafkaAuditTopic string

	ShutdownTimeout time.Duration
}

// RedisConfig tunes the platform Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("HEALTHCHAIN_ADDR", ":8080"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       envOr("JWT_ISSUER", "healthchain"),
		JWTAudience:     envOr("JWT_AUDIENCE", "healthchain-api"),
		BootstrapAdmin:  os.Getenv("BOOTSTRAP_ADMIN"),
		RedisURL:        os.Getenv("REDIS_URL"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "healthchain.audit"),
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// Redis derives the Redis client config with pool defaults.
func (s Server) Redis() RedisConfig {
	return RedisConfig{
		URL:          s.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
