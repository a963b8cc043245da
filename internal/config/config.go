package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Security SecurityConfig
	Alert    AlertConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AuthConfig struct {
	// JWTSecret is shared with the identity provider; aegis only verifies
	JWTSecret string
}

type SecurityConfig struct {
	// MaxBodyBytes caps request bodies on the security endpoints before parsing
	MaxBodyBytes int64
	// EventDataCap truncates free-text event fields before persisting
	EventDataCap int
	CSRFTokenTTL time.Duration
	// Bounds applied to caller-supplied rate limit policies
	MinMaxAttempts   int
	MaxWindow        time.Duration
	MaxBlockDuration time.Duration
	// Retention for idle, unblocked rate limit counters
	CounterRetention time.Duration
	CleanupInterval  time.Duration
	// DemoSessionKey is a 32-byte hex-encoded AEAD key; empty disables demo sessions
	DemoSessionKey []byte
	DemoSessionTTL time.Duration
	// IP pre-limit applied by middleware before any handler runs
	RequestsPerMinute int
}

type AlertConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
	ToAddress   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "aegis"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			JWTSecret: jwtSecret,
		},
		Security: SecurityConfig{
			MaxBodyBytes:      int64(getEnvAsInt("SECURITY_MAX_BODY_BYTES", 5000)),
			EventDataCap:      getEnvAsInt("SECURITY_EVENT_DATA_CAP", 100),
			CSRFTokenTTL:      getEnvAsDuration("CSRF_TOKEN_TTL", 1*time.Hour),
			MinMaxAttempts:    getEnvAsInt("RATE_LIMIT_MIN_MAX_ATTEMPTS", 3),
			MaxWindow:         getEnvAsDuration("RATE_LIMIT_MAX_WINDOW", 24*time.Hour),
			MaxBlockDuration:  getEnvAsDuration("RATE_LIMIT_MAX_BLOCK", 24*time.Hour),
			CounterRetention:  getEnvAsDuration("RATE_LIMIT_RETENTION", 30*24*time.Hour),
			CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			DemoSessionTTL:    getEnvAsDuration("DEMO_SESSION_TTL", 30*time.Minute),
			RequestsPerMinute: getEnvAsInt("IP_REQUESTS_PER_MINUTE", 60),
		},
		Alert: AlertConfig{
			AWSRegion:   getEnv("ALERT_AWS_REGION", ""),
			FromAddress: getEnv("ALERT_FROM_ADDRESS", ""),
			ToAddress:   getEnv("ALERT_TO_ADDRESS", ""),
		},
	}

	cfg.Alert.Enabled = cfg.Alert.AWSRegion != "" && cfg.Alert.FromAddress != "" && cfg.Alert.ToAddress != ""

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if keyHex := getEnv("DEMO_SESSION_KEY", ""); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("DEMO_SESSION_KEY must be 32 bytes hex-encoded")
		}
		cfg.Security.DemoSessionKey = key
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum strength for the shared verification secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: dashboard dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
