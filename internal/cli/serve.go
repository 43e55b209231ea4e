package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dingrelay/dingrelay/internal/command"
	"github.com/dingrelay/dingrelay/internal/config"
	"github.com/dingrelay/dingrelay/internal/dingtalk"
	"github.com/dingrelay/dingrelay/internal/relay"
	"github.com/dingrelay/dingrelay/internal/server"
	"github.com/dingrelay/dingrelay/internal/store"
)

// openCredentialStore opens the configured credential store. The returned
// close function is a no-op for the in-memory store.
func openCredentialStore(cfg config.Config) (relay.CredentialStore, func(), error) {
	if cfg.Credentials.Store == "memory" {
		log.Info().Msg("using in-memory credential store")
		return store.NewMemoryCredentialStore(), func() {}, nil
	}

	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, fmt.Errorf("creating data directories: %w", err)
	}
	dbPath := filepath.Join(paths.Data, "dingrelay.db")
	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("using SQLite credential store")
	return store.NewSQLiteCredentialStore(db), func() { db.Close() }, nil
}

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			creds, closeStore, err := openCredentialStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			rl := relay.New(creds, dingtalk.NewClient(log), relay.Options{
				Keyword:  cfg.Relay.Keyword,
				Markdown: cfg.Relay.Markdown,
			}, log)
			responder := command.NewResponder(creds, log)

			if cfg.Server.Secret == "" {
				log.Warn().Msg("no signing secret configured — inbound deliveries will not be verified")
			}

			srv := server.New(cfg, rl, responder, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override listen port")
	cmd.Flags().StringVar(&host, "host", "", "override bind host")

	return cmd
}
