package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "MONGODB_URI", "MONGODB_DB", "AWS_S3_BUCKET", "ADMIN_EMAIL",
		"JWT_SECRET", "SESSION_TTL_HOURS", "COOKIE_SECURE", "MAX_UPLOAD_MB", "TTS_PROVIDER", "AI_MAX_CHARS"} {
		t.Setenv(k, "")
	}

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "", c.MongoURI)
	assert.Equal(t, "readify", c.DBName)
	assert.Equal(t, defaultJWTSecret, c.JWTSecret)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, int64(50), c.MaxUploadMB)
	assert.Equal(t, "google", c.TTSProvider)
	assert.Equal(t, 24000, c.AIMaxChars)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "  Admin@Example.com ")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("TTS_PROVIDER", "Polly")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, ,http://localhost:3000")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", c.AdminEmail)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
	assert.False(t, c.CookieSecure)
	assert.Equal(t, "polly", c.TTSProvider)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, c.CORSOrigins)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "lots")
	_, err := Load()
	assert.ErrorContains(t, err, "MAX_UPLOAD_MB")

	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("TTS_PROVIDER", "espeak")
	_, err = Load()
	assert.ErrorContains(t, err, "TTS_PROVIDER")
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("TTS_PROVIDER", "")
	c, err := Load()
	require.NoError(t, err)
	assert.ErrorContains(t, c.Validate(), "JWT_SECRET, ADMIN_EMAIL")

	t.Setenv("JWT_SECRET", defaultJWTSecret)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	c, err = Load()
	require.NoError(t, err)
	assert.ErrorContains(t, c.Validate(), "strong secret")

	t.Setenv("JWT_SECRET", "s3cr3t")
	c, err = Load()
	require.NoError(t, err)
	assert.NoError(t, c.Validate())

	c.TTSProvider = "openai"
	c.OpenAIKey = ""
	assert.ErrorContains(t, c.Validate(), "OPENAI_API_KEY")
}
