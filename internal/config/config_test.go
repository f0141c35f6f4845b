package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:  AppConfig{Env: "local", Port: 8080},
		DB:   DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "edge"},
		Auth: AuthConfig{JWTSecret: "secret"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Auth.JWTSecret = strings.Repeat("s", 32)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_ProductionRequiresLongSecret(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET length error, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.DB.Schema != "public" {
		t.Fatalf("expected public schema default, got %q", c.DB.Schema)
	}
	if c.Throttle.Limit != 8 || c.Throttle.TTL != 30*time.Second {
		t.Fatalf("unexpected throttle defaults: %+v", c.Throttle)
	}
	if c.ThrottleEnabled() {
		t.Fatalf("throttle must be disabled without REDIS_HOST")
	}
}

func TestValidate_RejectsBadSchema(t *testing.T) {
	c := validConfig()
	c.DB.Schema = "public; drop table x"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestValidate_RedisPortCheckedOnlyWhenHostSet(t *testing.T) {
	c := validConfig()
	c.Redis.Host = "localhost"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected REDIS_PORT error")
	}
	c.Redis.Port = 6379
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "n")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CONCURRENCY_LIMIT", "3")
	t.Setenv("CONCURRENCY_TTL", "5s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":9000" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.Throttle.Limit != 3 || c.Throttle.TTL != 5*time.Second {
		t.Fatalf("unexpected throttle config: %+v", c.Throttle)
	}
}

func TestLoad_RejectsNonNumericPort(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_RateLimit(t *testing.T) {
	c := validConfig()
	c.Throttle.RPS = 2.5
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.RateLimitEnabled() || c.Throttle.Burst != 3 {
		t.Fatalf("expected burst rounded up to 3, got %+v", c.Throttle)
	}

	c = validConfig()
	c.Throttle.RPS = -1
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_RPS") {
		t.Fatalf("expected RATE_LIMIT_RPS error, got %v", err)
	}
}

func TestLoad_RateLimitFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "edge")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_RPS", "fast")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_RPS must be a number") {
		t.Fatalf("expected parse error, got %v", err)
	}

	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("RATE_LIMIT_BURST", "20")
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Throttle.RPS != 10 || c.Throttle.Burst != 20 {
		t.Fatalf("unexpected throttle %+v", c.Throttle)
	}
}

func TestLoad_EnvFileFillsUnsetVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DB_NAME=from_file\nJWT_SECRET=from_file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("JWT_SECRET", "from_env")
	// Registered with t.Setenv so the value godotenv writes is restored afterwards.
	t.Setenv("DB_NAME", "")
	os.Unsetenv("DB_NAME")
	t.Setenv("ENV_FILE", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DB.Name != "from_file" {
		t.Fatalf("expected DB_NAME from file, got %q", c.DB.Name)
	}
	if c.Auth.JWTSecret != "from_env" {
		t.Fatalf("environment must win over the file, got %q", c.Auth.JWTSecret)
	}

	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ENV_FILE") {
		t.Fatalf("expected ENV_FILE error, got %v", err)
	}
}
