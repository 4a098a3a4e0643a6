package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bizbot",
	Short: "bizbot - multi-platform business chat bot backend",
	Long:  "bizbot aggregates inbound chat messages from Telegram and WhatsApp,\ncoalesces rapid-fire bursts into single AI calls, and dispatches replies\nback to the platform they came from.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
}
