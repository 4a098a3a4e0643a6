package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yerzhan-k/bizbot-go/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bizbot configuration status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	configPath := config.GetConfigPath()
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("🤖 bizbot Status")
	fmt.Println()
	fmt.Printf("Config: %s\n", configPath)

	fmt.Println("\nTransports:")
	if cfg.Redis.Enabled {
		fmt.Printf("  Redis Streams: ✓ (%s)\n", cfg.Redis.URL)
	}
	if cfg.Kafka.Enabled {
		fmt.Printf("  Kafka: ✓ (%v)\n", cfg.Kafka.Brokers)
	}

	fmt.Println("\nAI backends:")
	if cfg.AI.OpenAIKey != "" {
		fmt.Println("  GPT: ✓")
	}
	if cfg.AI.GeminiKey != "" {
		fmt.Println("  Gemini: ✓")
	}

	fmt.Println("\nBridges:")
	fmt.Printf("  Telegram: %s\n", cfg.Bridges.TelegramURL)
	fmt.Printf("  WhatsApp: %s\n", cfg.Bridges.WhatsAppURL)

	if cfg.Postgres.DSN == "" {
		fmt.Println("\n⚠ No database configured (serve falls back to in-memory store)")
	}

	return nil
}
