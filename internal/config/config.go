package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBUrl             string        `envconfig:"DB_URL" required:"true"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiry  time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`
	BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`

	CORSOrigins    []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	RateLimitRPS   float64  `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int      `envconfig:"RATE_LIMIT_BURST" default:"20"`

	ResetTokenTTL time.Duration `envconfig:"RESET_TOKEN_TTL" default:"30m"`
	AppBaseURL    string        `envconfig:"APP_BASE_URL" default:"http://localhost:5173"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// LoadConfig reads an optional .env file and then the process environment.
// The bool reports whether a .env file was found.
func LoadConfig() (Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, dotenv, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, dotenv, err
	}

	return cfg, dotenv, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c Config) validate() error {
	if c.DBUrl == "" || c.JWTSecret == "" {
		return fmt.Errorf("DB_URL and JWT_SECRET must not be empty")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("RESET_TOKEN_TTL must be positive")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}
