// Package cli implements the faultline operator command-line tool.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	relayURL string
	natsURL  string
)

var rootCmd = &cobra.Command{
	Use:   "faultline",
	Short: "Faultline operations CLI",
	Long: `faultline is the command-line interface for the Faultline error
ingestion platform.

Seed test events through the relay, inspect the dead-letter queue, and
look up stored events from your terminal.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&relayURL, "relay-url", "http://localhost:8090", "relay intake base URL")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats-url", "nats://localhost:4222", "NATS server URL")
}
