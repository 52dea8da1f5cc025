package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Database drivers understood by the storage layer.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	Port        string `yaml:"port" env:"API_PORT" env-default:"8080"`
	Environment string `yaml:"environment" env:"API_ENV" env-default:"development"`
	LogLevel    string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`

	JWTSecret       string        `yaml:"jwt-secret" env:"JWT_SECRET" env-default:"dev-secret-change-me"`
	JWTIssuer       string        `yaml:"jwt-issuer" env:"JWT_ISSUER" env-default:"biteback-api"`
	AccessTokenTTL  time.Duration `yaml:"access-token-ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh-token-ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`

	// Comma separated e-mail lists promoted to a role on registration.
	OwnerEmails string `yaml:"owner-emails" env:"OWNER_EMAILS"`
	StaffEmails string `yaml:"staff-emails" env:"STAFF_EMAILS"`

	AllowedOrigins string `yaml:"cors-allowed-origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
	RateLimitRPS   int    `yaml:"rate-limit-rps" env:"RATE_LIMIT_RPS" env-default:"20"`
	RateLimitBurst int    `yaml:"rate-limit-burst" env:"RATE_LIMIT_BURST" env-default:"40"`

	DatabaseDriver string `yaml:"database-driver" env:"DATABASE_DRIVER" env-default:"memory"`
	DatabaseURL    string `yaml:"database-url" env:"DATABASE_URL" env-default:"biteback.db"`

	RewardPointsPerVisit   int64         `yaml:"reward-points-per-visit" env:"REWARD_POINTS_PER_VISIT" env-default:"100"`
	CleanupInterval        time.Duration `yaml:"cleanup-interval" env:"CLEANUP_INTERVAL" env-default:"1h"`
	ReservationGracePeriod time.Duration `yaml:"reservation-grace-period" env:"RESERVATION_GRACE_PERIOD" env-default:"2h"`

	KafkaBrokers []string `yaml:"kafka-brokers" env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `yaml:"kafka-topic" env:"KAFKA_TOPIC" env-default:"biteback.reservations"`
}

// Load reads an optional YAML file and then applies environment overrides.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config error: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("config: token ttl values must be positive")
	}
	if c.RewardPointsPerVisit < 0 {
		return fmt.Errorf("config: REWARD_POINTS_PER_VISIT must not be negative")
	}
	switch c.DatabaseDriver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverPGX:
	default:
		return fmt.Errorf("config: unknown database driver %q", c.DatabaseDriver)
	}
	return nil
}

// Usage describes the environment variables understood by Load.
func Usage() string {
	var cfg Config
	description, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return description
}
