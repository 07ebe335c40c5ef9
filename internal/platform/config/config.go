package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	DatabaseURL     string
	Redis           RedisConfig
	Kafka           KafkaConfig
	Auth            AuthConfig
	AdminTokenHash  string
	TrustedProxies  string
	RateLimit       RateLimitConfig
	Signup          SignupConfig
	ShutdownTimeout time.Duration
}

// RedisConfig configures the shared rate limit store. An empty URL keeps
// rate limiting process-local.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures audit event streaming. An empty Brokers list
// keeps audit events in the database only.
type KafkaConfig struct {
	Brokers         string
	AuditTopic      string
	Acks            string
	DeliveryTimeout time.Duration
}

// AuthConfig configures verification of identity provider access tokens.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
	TokenTTL  time.Duration
}

type RateLimitConfig struct {
	SweepInterval  time.Duration
	GlobalRPS      float64
	GlobalBurst    int
	StatsInterval  time.Duration
	FailureTrigger int
}

type SignupConfig struct {
	IPWindow time.Duration
	IPMax    int
}

const devJWTSecret = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed values fall back to defaults; Validate reports what production cannot run without.
func FromEnv() Server {
	jwtSecret := os.Getenv("AUTH_JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = devJWTSecret
	}

	return Server{
		Addr:           envString("TERMYX_ADDR", ":8080"),
		Environment:    envString("ENVIRONMENT", "development"),
		LogLevel:       envString("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 20),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			AuditTopic:      envString("KAFKA_AUDIT_TOPIC", "termyx.audit"),
			Acks:            envString("KAFKA_ACKS", "all"),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
			Issuer:    os.Getenv("AUTH_JWT_ISSUER"),
			Audience:  envString("AUTH_JWT_AUDIENCE", "authenticated"),
			TokenTTL:  envDuration("AUTH_TOKEN_TTL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			SweepInterval:  envDuration("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
			GlobalRPS:      envFloat("GLOBAL_THROTTLE_RPS", 500),
			GlobalBurst:    envInt("GLOBAL_THROTTLE_BURST", 1000),
			StatsInterval:  15 * time.Second,
			FailureTrigger: envInt("RATE_LIMIT_BREAKER_FAILURES", 5),
		},
		Signup: SignupConfig{
			IPWindow: envDuration("SIGNUP_IP_WINDOW", 24*time.Hour),
			IPMax:    envInt("SIGNUP_IP_MAX", 3),
		},
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// IsProduction reports whether the service runs with production safeguards.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// Validate rejects configurations that are unsafe outside development.
func (s Server) Validate() error {
	var errs []error
	if s.IsProduction() {
		if s.Auth.JWTSecret == devJWTSecret {
			errs = append(errs, errors.New("AUTH_JWT_SECRET is required in production"))
		}
		if s.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
	}
	if s.Signup.IPMax <= 0 {
		errs = append(errs, errors.New("SIGNUP_IP_MAX must be positive"))
	}
	if s.Signup.IPWindow <= 0 {
		errs = append(errs, errors.New("SIGNUP_IP_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
