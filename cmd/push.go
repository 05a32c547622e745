package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/deebot/internal/authstore"
	"github.com/nextlevelbuilder/deebot/internal/bundle"
	"github.com/nextlevelbuilder/deebot/internal/config"
)

// pushCmd is the sending half of the credential handoff: it runs on the
// host that scanned the QR, bundles the local credential store and
// uploads it to the destination instance's /upload-auth.
func pushCmd() *cobra.Command {
	var uploadToken, secret string

	cmd := &cobra.Command{
		Use:   "push <base-url>",
		Short: "Upload the local auth bundle to a remote deebot instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if uploadToken == "" {
				return fmt.Errorf("--token is required (the bot sends it to the owner on connect)")
			}

			b, err := bundle.Encode(authstore.New(cfg.AuthDir))
			if err != nil {
				return fmt.Errorf("bundle credentials: %w", err)
			}
			payload, err := json.Marshal(b)
			if err != nil {
				return err
			}

			url := strings.TrimRight(args[0], "/") + "/upload-auth"
			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+uploadToken)
			if secret != "" {
				req.Header.Set("X-Upload-Secret", secret)
			}

			client := &http.Client{Timeout: 60 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("upload rejected (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
			fmt.Printf("Uploaded %d files: %s\n", len(b.Files), strings.TrimSpace(string(body)))
			return nil
		},
	}

	cmd.Flags().StringVar(&uploadToken, "token", "", "one-time upload token received over WhatsApp")
	cmd.Flags().StringVar(&secret, "secret", "", "shared upload secret, if the destination requires one")
	return cmd
}
