// Package server exposes the scan engine over HTTP: blocking and streaming
// search, proxy pool control, network status and profile analysis.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"seekr/internal/analyzer"
	"seekr/internal/config"
	"seekr/internal/proxypool"
	"seekr/internal/scan"
)

// Server is the HTTP API server.
type Server struct {
	cfg      config.ServerConfig
	logger   zerolog.Logger
	scans    *scan.Service
	pool     *proxypool.Pool
	fetcher  *proxypool.Fetcher
	analyzer *analyzer.Analyzer
	ollama   *analyzer.OllamaClient

	// Proxy auto-fetch is attempted when the pool is enabled while empty.
	autoFetch bool

	// Egress IP check endpoint; swapped out in tests.
	ipCheckURL string
	httpClient *http.Client

	srv *http.Server
}

// New creates the API server.
func New(
	cfg config.ServerConfig,
	scans *scan.Service,
	pool *proxypool.Pool,
	fetcher *proxypool.Fetcher,
	an *analyzer.Analyzer,
	ollama *analyzer.OllamaClient,
	autoFetch bool,
	logger zerolog.Logger,
) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger.With().Str("component", "Server").Logger(),
		scans:      scans,
		pool:       pool,
		fetcher:    fetcher,
		analyzer:   an,
		ollama:     ollama,
		autoFetch:  autoFetch,
		ipCheckURL: "https://api.ipify.org?format=json",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/search/username", s.handleSearch)
	mux.HandleFunc("/api/search/username/stream", s.handleSearchStream)
	mux.HandleFunc("/api/network/status", s.handleNetworkStatus)
	mux.HandleFunc("/api/proxy/toggle", s.handleProxyToggle)
	mux.HandleFunc("/api/profile/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/ollama/models", s.handleOllamaModels)

	return s.corsMiddleware(mux)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down HTTP server")
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(s.cfg.CORSOrigins))
	for _, origin := range s.cfg.CORSOrigins {
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
