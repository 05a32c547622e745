// Package cmd holds the deebot CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deebot",
		Short: "WhatsApp bot with QR session bootstrap and credential handoff",
		Long: `deebot pairs a WhatsApp session by QR code and can hand the resulting
session credentials to another host through a one-time upload token,
so a session scanned on a throwaway device keeps running on a
persistent one.`,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "deebot.yaml", "config file path")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(tokenCmd())
	cmd.AddCommand(pushCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
