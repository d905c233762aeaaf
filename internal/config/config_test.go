package config

import (
	"errors"
	"testing"
	"time"

	"elephant-quiz/internal/quiz"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"JWT_SECRET": "s3cret"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Quiz != quiz.DefaultConfig() {
		t.Fatalf("expected default quiz config, got %+v", cfg.Quiz)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"JWT_SECRET":          "s3cret",
		"HTTP_ADDR":           ":9000",
		"QUIZ_SESSION_LENGTH": "5",
		"QUIZ_TIME_BUDGET":    "60",
		"QUIZ_TICK":           "500ms",
		"CORS_ORIGINS":        "http://a.test, http://b.test",
		"LOG_FILE":            "/tmp/quiz.log",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" || cfg.Logging.File != "/tmp/quiz.log" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	want := quiz.Config{SessionLength: 5, TimeBudget: 60, TickInterval: 500 * time.Millisecond}
	if cfg.Quiz != want {
		t.Fatalf("expected %+v, got %+v", want, cfg.Quiz)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"missing secret", map[string]string{}, ErrMissingSecret},
		{"zero length", map[string]string{"JWT_SECRET": "x", "QUIZ_SESSION_LENGTH": "0"}, quiz.ErrInvalidConfig},
		{"negative budget", map[string]string{"JWT_SECRET": "x", "QUIZ_TIME_BUDGET": "-1"}, quiz.ErrInvalidConfig},
		{"zero tick", map[string]string{"JWT_SECRET": "x", "QUIZ_TICK": "0s"}, quiz.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(envOf(tt.env)); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := FromEnv(envOf(map[string]string{"JWT_SECRET": "x", "QUIZ_TIME_BUDGET": "soon"})); err == nil {
		t.Fatalf("expected a parse error")
	}
}
