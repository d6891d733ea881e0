package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port          string
	MongoURI      string // empty means in-memory store
	DBName        string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	S3Endpoint    string // S3-compatible endpoint (MinIO); empty for AWS
	AdminEmail    string
	JWTSecret     string
	SessionTTL    time.Duration
	CookieSecure  bool
	MaxUploadMB   int64
	OpenAIKey     string
	OpenAIBaseURL string
	ChatModel     string
	TTSProvider   string // google, openai or polly
	GoogleTTSURL  string
	AIMaxChars    int
	LogLevel      string
	CORSOrigins   []string // empty allows any origin without credentials
}

func Load() (*Config, error) {
	_ = os.Setenv("AWS_REGION", getEnv("AWS_REGION", "us-east-1"))
	maxMB, err := getEnvInt("MAX_UPLOAD_MB", 50)
	if err != nil {
		return nil, err
	}
	ttlHours, err := getEnvInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	aiMax, err := getEnvInt("AI_MAX_CHARS", 24000)
	if err != nil {
		return nil, err
	}
	provider := strings.ToLower(getEnv("TTS_PROVIDER", "google"))
	switch provider {
	case "google", "openai", "polly":
	default:
		return nil, fmt.Errorf("TTS_PROVIDER must be google, openai or polly (got %q)", provider)
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGODB_URI", ""),
		DBName:        getEnv("MONGODB_DB", "readify"),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Endpoint:    getEnv("AWS_S3_ENDPOINT", ""),
		AdminEmail:    strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:    time.Duration(ttlHours) * time.Hour,
		CookieSecure:  getEnvBool("COOKIE_SECURE", true),
		MaxUploadMB:   maxMB,
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		ChatModel:     getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		TTSProvider:   provider,
		GoogleTTSURL:  getEnv("GOOGLE_TTS_URL", "https://translate.google.com/translate_tts"),
		AIMaxChars:    int(aiMax),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   getEnvList("CORS_ORIGINS"),
	}, nil
}

// RequiredEnvVars must be set for the server to start.
var RequiredEnvVars = []string{
	"JWT_SECRET",
	"ADMIN_EMAIL",
}

// Validate reports missing required env vars and an insecure JWT secret.
func (c *Config) Validate() error {
	var missing []string
	for _, key := range RequiredEnvVars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	if c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
	if c.TTSProvider == "openai" && c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is required when TTS_PROVIDER=openai")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int64) (int64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer (got %q)", key, v)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
