package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/deebot/internal/authstore"
	"github.com/nextlevelbuilder/deebot/internal/bus"
	"github.com/nextlevelbuilder/deebot/internal/channels/whatsapp"
	"github.com/nextlevelbuilder/deebot/internal/config"
	deehttp "github.com/nextlevelbuilder/deebot/internal/http"
	"github.com/nextlevelbuilder/deebot/internal/linked"
	"github.com/nextlevelbuilder/deebot/internal/providers"
	"github.com/nextlevelbuilder/deebot/internal/session"
	"github.com/nextlevelbuilder/deebot/internal/token"
	"github.com/nextlevelbuilder/deebot/internal/tts"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the web boundary service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store := authstore.New(cfg.AuthDir)
			tokens := token.NewManager(cfg.TokenPath())
			hub := bus.NewHub()
			machine := session.New(tokens, hub, cfg.QRPath(), cfg.OwnerJID)
			registry := linked.NewRegistry(cfg.LinkedPath())

			ai := providers.NewGoogleProvider(cfg.AI.APIKey, cfg.AI.APIBase, cfg.AI.Model, cfg.AI.Project)
			var voice tts.Provider
			if cfg.TTS.APIKey != "" {
				voice = tts.NewGoogleProvider(cfg.TTS.APIKey, cfg.TTS.APIBase, cfg.TTS.Voice)
			}

			channel := whatsapp.New(machine, store, registry, ai, voice, cfg.OwnerJID)
			web := deehttp.NewServer(cfg.Listen, machine, hub, tokens, store, cfg.QRPath(), cfg.UploadSecret)

			slog.Info("deebot starting", "listen", cfg.Listen, "auth_dir", cfg.AuthDir)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return channel.Run(ctx) })
			g.Go(func() error { return web.Run(ctx) })
			return g.Wait()
		},
	}
}
