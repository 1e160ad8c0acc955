package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the ScanGo server.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration

	JWTSecret   string
	JWTTTL      time.Duration
	AdminAPIKey string

	PublicBaseURL  string
	UploadDir      string
	UploadMaxBytes int64
	CORSOrigins    []string
	TrustedProxies []string

	TTS TTSConfig

	SeedAdminEmail    string
	SeedAdminPassword string
}

// TTSConfig groups the text-to-speech provider and rate limiting settings.
type TTSConfig struct {
	Provider      string
	Timeout       time.Duration
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	Voice         string
	RateLimit     RateLimitConfig
}

// RateLimitConfig configures the per-client token bucket on the TTS route.
type RateLimitConfig struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

// fileConfig mirrors the optional TOML file. Every field is optional; the
// environment wins over the file.
type fileConfig struct {
	DBPath         string   `toml:"db_path"`
	ServerPort     int      `toml:"server_port"`
	LogLevel       string   `toml:"log_level"`
	Environment    string   `toml:"env"`
	PublicBaseURL  string   `toml:"public_base_url"`
	UploadDir      string   `toml:"upload_dir"`
	UploadMaxBytes int64    `toml:"upload_max_bytes"`
	CORSOrigins    []string `toml:"cors_origins"`
	TrustedProxies []string `toml:"trusted_proxies"`
	TTSProvider    string   `toml:"tts_provider"`
	TTSModel       string   `toml:"tts_model"`
	TTSVoice       string   `toml:"tts_voice"`
}

const (
	defaultDBPath         = "./data/scango.db"
	defaultServerPort     = 8080
	defaultLogLevel       = "info"
	defaultEnvironment    = "development"
	defaultShutdownGrace  = 10 * time.Second
	defaultPublicBaseURL  = "https://scan-go-frontend.onrender.com"
	defaultUploadDir      = "./uploads"
	defaultUploadMaxBytes = 5 << 20
	defaultTTSProvider    = "google"
	defaultTTSTimeout     = 15 * time.Second
	defaultTTSModel       = "tts-1"
	defaultTTSVoice       = "alloy"
	defaultRateBurst      = 10
	defaultRatePerSecond  = 0.2
	defaultRateClientTTL  = 10 * time.Minute
)

var defaultCORSOrigins = []string{"https://scanmeai.com", "http://localhost:5173"}

// Load reads configuration values from an optional TOML file and the
// environment, applying defaults where necessary.
func Load() (*Config, error) {
	file, err := loadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:            getEnv("DB_PATH", orString(file.DBPath, defaultDBPath)),
		LogLevel:          getEnv("LOG_LEVEL", orString(file.LogLevel, defaultLogLevel)),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		Environment:       getEnv("ENV", orString(file.Environment, defaultEnvironment)),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminAPIKey:       os.Getenv("ADMIN_API_KEY"),
		PublicBaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", orString(file.PublicBaseURL, defaultPublicBaseURL)), "/"),
		UploadDir:         getEnv("UPLOAD_DIR", orString(file.UploadDir, defaultUploadDir)),
		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
		CORSOrigins:       defaultCORSOrigins,
		TTS: TTSConfig{
			Provider:      strings.ToLower(getEnv("TTS_PROVIDER", orString(file.TTSProvider, defaultTTSProvider))),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:         getEnv("TTS_MODEL", orString(file.TTSModel, defaultTTSModel)),
			Voice:         getEnv("TTS_VOICE", orString(file.TTSVoice, defaultTTSVoice)),
		},
	}

	if len(file.CORSOrigins) > 0 {
		cfg.CORSOrigins = file.CORSOrigins
	}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	cfg.TrustedProxies = file.TrustedProxies
	if raw := os.Getenv("TRUSTED_PROXIES"); raw != "" {
		cfg.TrustedProxies = splitList(raw)
	}

	portFallback := defaultServerPort
	if file.ServerPort > 0 {
		portFallback = file.ServerPort
	}
	portValue := getEnv("SERVER_PORT", strconv.Itoa(portFallback))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	maxBytesFallback := int64(defaultUploadMaxBytes)
	if file.UploadMaxBytes > 0 {
		maxBytesFallback = file.UploadMaxBytes
	}
	maxBytesValue := getEnv("UPLOAD_MAX_BYTES", strconv.FormatInt(maxBytesFallback, 10))
	if cfg.UploadMaxBytes, err = strconv.ParseInt(maxBytesValue, 10, 64); err != nil || cfg.UploadMaxBytes <= 0 {
		return nil, eris.Errorf("invalid UPLOAD_MAX_BYTES value: %s", maxBytesValue)
	}

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"SHUTDOWN_GRACE", defaultShutdownGrace, &cfg.ShutdownGrace},
		{"JWT_TTL", 0, &cfg.JWTTTL},
		{"TTS_TIMEOUT", defaultTTSTimeout, &cfg.TTS.Timeout},
		{"TTS_RATE_CLIENT_TTL", defaultRateClientTTL, &cfg.TTS.RateLimit.ClientTTL},
	}
	for _, d := range durations {
		value, err := getDuration(d.key, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}

	burstValue := getEnv("TTS_RATE_BURST", strconv.Itoa(defaultRateBurst))
	if cfg.TTS.RateLimit.Burst, err = strconv.Atoi(burstValue); err != nil {
		return nil, eris.Wrapf(err, "invalid TTS_RATE_BURST value: %s", burstValue)
	}

	rateValue := getEnv("TTS_RATE_PER_SECOND", strconv.FormatFloat(defaultRatePerSecond, 'f', -1, 64))
	if cfg.TTS.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(rateValue, 64); err != nil {
		return nil, eris.Wrapf(err, "invalid TTS_RATE_PER_SECOND value: %s", rateValue)
	}

	return cfg, nil
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return eris.New("JWT_SECRET is required")
	}
	switch c.TTS.Provider {
	case "google":
	case "openai":
		if strings.TrimSpace(c.TTS.OpenAIAPIKey) == "" {
			return eris.New("OPENAI_API_KEY is required when TTS_PROVIDER is openai")
		}
	default:
		return eris.Errorf("unsupported TTS_PROVIDER: %s", c.TTS.Provider)
	}
	return nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	if strings.TrimSpace(path) == "" {
		return file, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return file, eris.Wrapf(err, "reading config file: %s", path)
	}
	if err := toml.Unmarshal(raw, &file); err != nil {
		return file, eris.Wrapf(err, "parsing config file: %s", path)
	}
	return file, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}

func orString(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
