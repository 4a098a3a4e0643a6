package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// GetConfigPath returns the default config file path (~/.bizbot/config.json).
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bizbot", "config.json")
}

// Load reads configuration from a JSON file, then applies environment
// overrides for secrets and connection strings.
// If path is empty, uses the default config path.
// If the file doesn't exist, returns DefaultConfig().
func Load(path string) (Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	cfg := DefaultConfig() // start with defaults so zero-value fields get filled
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes configuration to a JSON file.
// If path is empty, uses the default config path.
func Save(cfg Config, path string) error {
	if path == "" {
		path = GetConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv lets deployment environments override file values. Secrets
// normally arrive this way rather than sitting in the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.AI.GeminiKey = v
	}
	if v := os.Getenv("TELEGRAM_BRIDGE_URL"); v != "" {
		cfg.Bridges.TelegramURL = v
	}
	if v := os.Getenv("WHATSAPP_BRIDGE_URL"); v != "" {
		cfg.Bridges.WhatsAppURL = v
	}
}
