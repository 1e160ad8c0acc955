package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"CONFIG_FILE", "DB_PATH", "SERVER_PORT", "LOG_LEVEL", "SENTRY_DSN", "ENV",
		"JWT_SECRET", "JWT_TTL", "ADMIN_API_KEY", "PUBLIC_BASE_URL", "UPLOAD_DIR",
		"UPLOAD_MAX_BYTES", "CORS_ORIGINS", "TRUSTED_PROXIES", "TTS_PROVIDER", "TTS_TIMEOUT",
		"TTS_RATE_BURST", "TTS_RATE_PER_SECOND", "TTS_RATE_CLIENT_TTL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "TTS_MODEL", "TTS_VOICE",
		"SHUTDOWN_GRACE", "SEED_ADMIN_EMAIL", "SEED_ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != defaultDBPath {
		t.Errorf("expected default DB path %q, got %q", defaultDBPath, cfg.DBPath)
	}

	if cfg.ServerPort != defaultServerPort {
		t.Errorf("expected default server port %d, got %d", defaultServerPort, cfg.ServerPort)
	}

	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("expected default log level %q, got %q", defaultLogLevel, cfg.LogLevel)
	}

	if cfg.Environment != defaultEnvironment {
		t.Errorf("expected default environment %q, got %q", defaultEnvironment, cfg.Environment)
	}

	if cfg.ShutdownGrace != defaultShutdownGrace {
		t.Errorf("expected shutdown grace %s, got %s", defaultShutdownGrace, cfg.ShutdownGrace)
	}

	if cfg.JWTTTL != 0 {
		t.Errorf("expected tokens without expiry by default, got %s", cfg.JWTTTL)
	}

	if cfg.TTS.Provider != defaultTTSProvider {
		t.Errorf("expected default TTS provider %q, got %q", defaultTTSProvider, cfg.TTS.Provider)
	}

	if cfg.TTS.RateLimit.Burst != defaultRateBurst {
		t.Errorf("expected default burst %d, got %d", defaultRateBurst, cfg.TTS.RateLimit.Burst)
	}

	if len(cfg.CORSOrigins) != len(defaultCORSOrigins) {
		t.Errorf("expected default CORS origins, got %v", cfg.CORSOrigins)
	}

	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadWithExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/tmp/scango.db")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_SECRET", "signing")
	t.Setenv("JWT_TTL", "24h")
	t.Setenv("ADMIN_API_KEY", "legacy")
	t.Setenv("PUBLIC_BASE_URL", "https://demo.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	t.Setenv("TTS_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TTS_RATE_BURST", "3")
	t.Setenv("TTS_RATE_PER_SECOND", "1.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != "/tmp/scango.db" {
		t.Errorf("expected DB path %q, got %q", "/tmp/scango.db", cfg.DBPath)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.ServerPort)
	}

	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("expected JWT TTL 24h, got %s", cfg.JWTTTL)
	}

	if cfg.PublicBaseURL != "https://demo.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.PublicBaseURL)
	}

	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("expected two CORS origins, got %v", cfg.CORSOrigins)
	}

	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" || cfg.TrustedProxies[1] != "127.0.0.1" {
		t.Errorf("expected two trusted proxies, got %v", cfg.TrustedProxies)
	}

	if cfg.TTS.Provider != "openai" {
		t.Errorf("expected provider lowercased to openai, got %q", cfg.TTS.Provider)
	}

	if cfg.TTS.RateLimit.Burst != 3 || cfg.TTS.RateLimit.RequestsPerSecond != 1.5 {
		t.Errorf("unexpected rate limit settings %+v", cfg.TTS.RateLimit)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoadReadsTOMLFileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "scango.toml")
	contents := "db_path = \"/srv/scango.db\"\nserver_port = 7070\ncors_origins = [\"https://file.example.com\"]\ntrusted_proxies = [\"172.16.0.0/12\"]\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != "/srv/scango.db" {
		t.Errorf("expected DB path from file, got %q", cfg.DBPath)
	}

	if cfg.ServerPort != 6060 {
		t.Errorf("expected environment to override file port, got %d", cfg.ServerPort)
	}

	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://file.example.com" {
		t.Errorf("expected CORS origins from file, got %v", cfg.CORSOrigins)
	}

	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "172.16.0.0/12" {
		t.Errorf("expected trusted proxies from file, got %v", cfg.TrustedProxies)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "invalid")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid port, got nil")
	}

	if !strings.Contains(err.Error(), "invalid SERVER_PORT value") {
		t.Fatalf("expected error to mention invalid SERVER_PORT value, got %v", err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("TTS_TIMEOUT", "soon")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid duration, got nil")
	}

	if !strings.Contains(err.Error(), "invalid TTS_TIMEOUT value") {
		t.Fatalf("expected error to mention TTS_TIMEOUT, got %v", err)
	}
}

func TestValidateRequiresSecrets(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected missing JWT_SECRET error, got %v", err)
	}

	cfg.JWTSecret = "signing"
	cfg.TTS.Provider = "openai"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing OPENAI_API_KEY error, got %v", err)
	}

	cfg.TTS.Provider = "polly"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}
