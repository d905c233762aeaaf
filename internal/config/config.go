// backend/internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"elephant-quiz/internal/quiz"
	"elephant-quiz/pkg/database"
	"elephant-quiz/pkg/logging"

	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("JWT_SECRET must be set")

type Config struct {
	HTTPAddr      string
	Database      database.Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	Quiz          quiz.Config
	QuestionBank  string
	Logging       logging.Config
	CORSOrigins   []string
	// AuthRatePerMinute limits login and register attempts per client address.
	AuthRatePerMinute int
}

// Load reads .env, if present, and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset values.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := reader{getenv: getenv}
	defaults := quiz.DefaultConfig()

	cfg := &Config{
		HTTPAddr: env.str("HTTP_ADDR", ":8080"),
		Database: database.Config{
			Host:         env.str("DB_HOST", "localhost"),
			Port:         env.str("DB_PORT", "5432"),
			User:         env.str("DB_USER", "postgres"),
			Password:     env.str("DB_PASSWORD", ""),
			DBName:       env.str("DB_NAME", "elephant_quiz"),
			SSLMode:      env.str("DB_SSLMODE", "disable"),
			MaxOpenConns: env.number("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: env.number("DB_MAX_IDLE_CONNS", 5),
		},
		RedisAddr:     env.str("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.str("REDIS_PASSWORD", ""),
		RedisDB:       env.number("REDIS_DB", 0),
		JWTSecret:     env.str("JWT_SECRET", ""),
		Quiz: quiz.Config{
			SessionLength: env.number("QUIZ_SESSION_LENGTH", defaults.SessionLength),
			TimeBudget:    env.number("QUIZ_TIME_BUDGET", defaults.TimeBudget),
			TickInterval:  env.duration("QUIZ_TICK", defaults.TickInterval),
		},
		QuestionBank: env.str("QUESTION_BANK", ""),
		Logging: logging.Config{
			File:       env.str("LOG_FILE", ""),
			MaxSizeMB:  env.number("LOG_MAX_SIZE_MB", 10),
			MaxBackups: env.number("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: env.number("LOG_MAX_AGE_DAYS", 28),
		},
		CORSOrigins:       env.list("CORS_ORIGINS", []string{"http://localhost:3000"}),
		AuthRatePerMinute: env.number("AUTH_RATE_PER_MINUTE", 30),
	}
	if env.err != nil {
		return nil, env.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Quiz.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", quiz.ErrInvalidConfig)
	}
	if c.AuthRatePerMinute <= 0 {
		return fmt.Errorf("AUTH_RATE_PER_MINUTE must be positive, got %d", c.AuthRatePerMinute)
	}
	return c.Quiz.Validate()
}

// reader keeps the first parse error so FromEnv can report it once.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, fallback string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (r *reader) number(key string, fallback int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", key, err)
	}
	return d
}

func (r *reader) list(key string, fallback []string) []string {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
