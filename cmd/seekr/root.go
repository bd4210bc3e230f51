package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"seekr/internal/analyzer"
	"seekr/internal/catalog"
	"seekr/internal/config"
	"seekr/internal/logger"
	"seekr/internal/probe"
	"seekr/internal/proxypool"
	"seekr/internal/scan"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "seekr",
	Short: "Username reconnaissance across platform catalogs",
	Long: `Seekr probes a catalog of platforms for a username and classifies each
response: found, not found, blocked, rate limited and so on. Probes run
concurrently, optionally through a rotating proxy pool with per-proxy
cooldowns.

Run "seekr scan <username>" for a one-shot terminal scan, or
"seekr serve" to expose the engine over an HTTP API with streaming
results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (YAML or JSON; defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level override (debug, info, warn, error)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("seekr version 1.0.0")
	},
}

// app bundles the wired components shared by the scan and serve commands.
type app struct {
	cfg      *config.GlobalConfig
	logger   zerolog.Logger
	catalog  *catalog.Catalog
	pool     *proxypool.Pool
	fetcher  *proxypool.Fetcher
	scans    *scan.Service
	analyzer *analyzer.Analyzer
	ollama   *analyzer.OllamaClient
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogConfig.LogLevel = logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	appLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cat := catalog.Default()
	if cfg.CatalogConfig.Path != "" {
		cat, err = catalog.Load(cfg.CatalogConfig.Path)
		if err != nil {
			return nil, err
		}
	}

	pool, err := proxypool.New(cfg.ProxyConfig, appLogger)
	if err != nil {
		return nil, err
	}

	fetchClient := &http.Client{Timeout: 15 * time.Second}
	fetcher := proxypool.NewFetcher(fetchClient, appLogger)

	if cfg.ProxyConfig.Enabled && pool.Size() == 0 && cfg.ProxyConfig.AutoFetch {
		addrs, fetchErr := fetcher.Fetch(ctx)
		if fetchErr != nil {
			appLogger.Warn().Err(fetchErr).Msg("Proxy auto-fetch failed, pool stays empty")
		} else {
			pool.AddProxies(addrs)
			pool.SetEnabled(true)
		}
	}

	client, err := probe.NewClient(cfg.ProbeConfig, appLogger)
	if err != nil {
		return nil, err
	}
	dispatcher := probe.NewDispatcher(cfg.ProbeConfig, client, pool, appLogger)
	scans := scan.NewService(cat, dispatcher, appLogger)

	ollamaClient := &http.Client{Timeout: 120 * time.Second}
	var ollama *analyzer.OllamaClient
	if cfg.AnalyzerConfig.OllamaHost != "" {
		ollama = analyzer.NewOllamaClient(cfg.AnalyzerConfig.OllamaHost, ollamaClient, appLogger)
	}
	an := analyzer.New(ollama, cfg.AnalyzerConfig.Model, cfg.AnalyzerConfig.APIMode, appLogger)

	return &app{
		cfg:      cfg,
		logger:   appLogger,
		catalog:  cat,
		pool:     pool,
		fetcher:  fetcher,
		scans:    scans,
		analyzer: an,
		ollama:   ollama,
	}, nil
}
