package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_ADMIN_ID", "42")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/scholar?sslmode=disable")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Research.GroqModel)
	assert.Equal(t, 20, cfg.Research.MaxHistory)
	assert.Equal(t, 300*time.Second, cfg.Sessions.PaymentTimeout)
	assert.Equal(t, SessionBackendMemory, cfg.Sessions.Backend)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.True(t, cfg.Payments.On())
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("ENABLE_PAYMENTS", "false")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
research:
  max_history: 6
sessions:
  redis_url: redis://localhost:6379/0
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Research.MaxHistory)
	assert.Equal(t, SessionBackendRedis, cfg.Sessions.Backend)
	assert.False(t, cfg.Payments.On())
}

func TestValidateFailsFast(t *testing.T) {
	setRequired(t)
	t.Setenv("GROQ_API_KEY", "")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	t.Setenv("GEMINI_API_KEY", "g")
	_, err = Load("")
	require.NoError(t, err)
}
