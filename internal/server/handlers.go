package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"seekr/internal/analyzer"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func searchParams(r *http.Request) (handle string, limit int, err error) {
	handle = r.URL.Query().Get("username")
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return "", 0, fmt.Errorf("limit must be a non-negative integer")
		}
	}
	return handle, limit, nil
}

// handleSearch is the blocking variant: the full outcome list in one
// response once all probes finish.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	handle, limit, err := searchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.scans.Search(r.Context(), handle, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSearchStream delivers results over SSE as probes complete: one
// site_result event per platform, then exactly one search_complete event.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	handle, limit, err := searchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Validation failures reject the request before any event is sent.
	session, err := s.scans.Start(r.Context(), handle, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range session.Events() {
		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to encode stream event")
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
		flusher.Flush()
	}
}

// handleNetworkStatus reports the pool snapshot plus the direct and
// proxied egress IPs, so an operator can verify proxies actually mask the
// origin address.
func (s *Server) handleNetworkStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := s.pool.Snapshot()

	directIP := s.egressIP(r.Context(), nil)

	var proxyIP string
	if s.pool.Enabled() {
		if entry := s.pool.Next(); entry != nil {
			proxyIP = s.egressIP(r.Context(), entry.URL)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proxy_enabled": snapshot.Enabled,
		"proxy":         snapshot,
		"direct_ip":     directIP,
		"proxy_ip":      proxyIP,
	})
}

func (s *Server) egressIP(ctx context.Context, proxyURL *url.URL) string {
	client := s.httpClient
	if proxyURL != nil {
		transport := http.Transport{Proxy: http.ProxyURL(proxyURL)}
		client = &http.Client{Transport: &transport, Timeout: s.httpClient.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ipCheckURL, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var payload struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	return payload.IP
}

// handleProxyToggle enables or disables the pool at runtime. Enabling an
// empty pool triggers one auto-fetch attempt when configured; if the pool
// stays empty it remains off rather than silently probing direct.
func (s *Server) handleProxyToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "enabled must be true or false")
		return
	}

	autoFetchAttempted := false
	if enabled && s.pool.Size() == 0 && s.autoFetch && s.fetcher != nil {
		autoFetchAttempted = true
		if addrs, fetchErr := s.fetcher.Fetch(r.Context()); fetchErr != nil {
			s.logger.Warn().Err(fetchErr).Msg("Proxy auto-fetch failed")
		} else {
			s.pool.AddProxies(addrs)
		}
	}

	nowEnabled := s.pool.SetEnabled(enabled)

	response := map[string]any{
		"proxy_enabled":        nowEnabled,
		"proxy_count":          s.pool.Size(),
		"auto_fetch_attempted": autoFetchAttempted,
	}
	if enabled && !nowEnabled {
		response["message"] = "No proxies available; proxy left off. Configure proxies or enable auto_fetch."
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Profiles) == 0 {
		writeError(w, http.StatusBadRequest, "profiles required")
		return
	}

	writeJSON(w, http.StatusOK, s.analyzer.Analyze(r.Context(), req))
}

func (s *Server) handleOllamaModels(w http.ResponseWriter, r *http.Request) {
	client := s.ollama
	if host := r.URL.Query().Get("host"); host != "" {
		client = analyzer.NewOllamaClient(host, s.httpClient, s.logger)
	}
	if client == nil {
		writeError(w, http.StatusBadGateway, "no model host configured")
		return
	}

	models, err := client.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to reach model host: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"host":   client.Host(),
		"models": models,
	})
}
