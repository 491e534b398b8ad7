package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nullbridge/c2hat/internal/chatserver"
	"github.com/nullbridge/c2hat/internal/config"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		certFile   string
		keyFile    string
		maxConns   int
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}

			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listenAddr
			}
			if cmd.Flags().Changed("cert") {
				cfg.CertFile = certFile
			}
			if cmd.Flags().Changed("key") {
				cfg.KeyFile = keyFile
			}
			if cmd.Flags().Changed("max-connections") {
				cfg.MaxConnections = maxConns
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(cfg.LogFormat)

			srv, err := chatserver.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("start server: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address, e.g. :8765")
	cmd.Flags().StringVar(&certFile, "cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&keyFile, "key", "", "TLS private key file")
	cmd.Flags().IntVar(&maxConns, "max-connections", 0, "maximum concurrent connections")
	cmd.Flags().StringVar(&logFormat, "log-format", "", `log output format: "text" or "json"`)

	return cmd
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
