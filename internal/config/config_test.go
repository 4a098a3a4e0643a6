package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the override variables so host environment values
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS",
		"OPENAI_API_KEY", "GEMINI_API_KEY",
		"TELEGRAM_BRIDGE_URL", "WHATSAPP_BRIDGE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.True(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "http://localhost:3000", cfg.Bridges.TelegramURL)
	assert.Equal(t, "http://localhost:3001", cfg.Bridges.WhatsAppURL)
	assert.Equal(t, ":8090", cfg.Notify.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"postgres": {"dsn": "postgres://db/bizbot"},
		"redis": {"url": "redis://prod:6379", "enabled": false},
		"kafka": {"brokers": ["k1:9092", "k2:9092"], "enabled": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/bizbot", cfg.Postgres.DSN)
	assert.Equal(t, "redis://prod:6379", cfg.Redis.URL)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, "http://localhost:3000", cfg.Bridges.TelegramURL)
}

func TestLoad_InvalidJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"redis": {"url": "redis://file:6379"}}`), 0644))

	t.Setenv("DATABASE_URL", "postgres://env/bizbot")
	t.Setenv("REDIS_URL", "redis://env:6379")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/bizbot", cfg.Postgres.DSN)
	assert.Equal(t, "redis://env:6379", cfg.Redis.URL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "sk-test", cfg.AI.OpenAIKey)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Postgres.DSN = "postgres://db/bizbot"
	cfg.AI.GeminiKey = "gm-test"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
