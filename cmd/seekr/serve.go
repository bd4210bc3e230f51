package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seekr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the scan engine over HTTP: blocking and streaming
username search, proxy pool control, network status and profile
analysis. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx)
		if err != nil {
			return err
		}

		srv := server.New(
			a.cfg.ServerConfig,
			a.scans,
			a.pool,
			a.fetcher,
			a.analyzer,
			a.ollama,
			a.cfg.ProxyConfig.AutoFetch,
			a.logger,
		)
		return srv.Start(ctx)
	},
}
