package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/deebot/internal/config"
	"github.com/nextlevelbuilder/deebot/internal/token"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect or clear the one-time upload token",
	}
	cmd.AddCommand(tokenShowCmd())
	cmd.AddCommand(tokenClearCmd())
	return cmd
}

func tokenShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current upload token and its remaining validity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			tokens := token.NewManager(cfg.TokenPath())
			t, ok := tokens.Current()
			if !ok {
				fmt.Println("No valid upload token on disk.")
				return nil
			}
			fmt.Printf("Token:   %s\n", t.Value)
			fmt.Printf("Expires: in %s\n", t.Remaining(time.Now()).Round(time.Second))
			return nil
		},
	}
}

func tokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Invalidate the current upload token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			token.NewManager(cfg.TokenPath()).Consume()
			fmt.Println("Upload token cleared.")
			return nil
		},
	}
}
