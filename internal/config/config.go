// Package config handles configuration loading and schema definition.
package config

// Config is the top-level bizbot configuration.
type Config struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	AI       AIConfig       `json:"ai"`
	Bridges  BridgesConfig  `json:"bridges"`
	Notify   NotifyConfig   `json:"notify"`
}

// PostgresConfig holds database settings.
type PostgresConfig struct {
	DSN string `json:"dsn"`
}

// RedisConfig holds stream-transport broker settings.
type RedisConfig struct {
	URL      string `json:"url"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// KafkaConfig holds queue-transport broker settings.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Enabled bool     `json:"enabled"`
}

// AIConfig holds completion backend credentials.
type AIConfig struct {
	OpenAIKey   string `json:"openaiKey"`
	OpenAIModel string `json:"openaiModel,omitempty"`
	GeminiKey   string `json:"geminiKey"`
}

// BridgesConfig holds the platform bridge base URLs.
type BridgesConfig struct {
	TelegramURL string `json:"telegramUrl"`
	WhatsAppURL string `json:"whatsappUrl"`
}

// NotifyConfig holds the notification hub listener settings.
type NotifyConfig struct {
	Addr string `json:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			URL:     "redis://localhost:6379",
			Enabled: true,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
		},
		Bridges: BridgesConfig{
			TelegramURL: "http://localhost:3000",
			WhatsAppURL: "http://localhost:3001",
		},
		Notify: NotifyConfig{
			Addr: ":8090",
		},
	}
}
