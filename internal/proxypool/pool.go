// Package proxypool manages a process-wide pool of outbound proxies with
// rotation and failure cooldown. The pool is shared by every concurrent
// probe task across all scan sessions.
package proxypool

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one proxy endpoint plus its mutable health state. Health fields
// are guarded by the owning pool's mutex; entries are never removed during
// a session, only marked unhealthy until their cooldown elapses.
type Entry struct {
	ID  string
	URL *url.URL

	lastFailureAt time.Time
	successCount  int
	failureCount  int
}

// EntryStatus is a read-only view of one entry, used by Snapshot.
type EntryStatus struct {
	ID            string    `json:"id"`
	Healthy       bool      `json:"healthy"`
	LastFailureAt time.Time `json:"last_failure_at,omitzero"`
	SuccessCount  int       `json:"success_count"`
	FailureCount  int       `json:"failure_count"`
}

// Status is a point-in-time view of the whole pool.
type Status struct {
	Enabled             bool          `json:"enabled"`
	Count               int           `json:"count"`
	RotationMode        string        `json:"rotation"`
	CooldownSeconds     int           `json:"cooldown_seconds"`
	AllowDirectFallback bool          `json:"allow_direct_fallback"`
	Proxies             []EntryStatus `json:"proxies"`
}

// Pool hands out proxy candidates per probe attempt and keeps unhealthy
// proxies out of rotation for a cooldown window.
type Pool struct {
	logger   zerolog.Logger
	cfg      Config
	cooldown time.Duration

	mu      sync.Mutex
	enabled bool
	entries []*Entry
	index   int

	// Injected for tests; defaults to time.Now.
	now func() time.Time
}

// New builds a pool from configuration. Invalid proxy URLs are rejected
// rather than skipped so a typo never silently shrinks the pool.
func New(cfg Config, logger zerolog.Logger) (*Pool, error) {
	if cfg.RotationMode == "" {
		cfg.RotationMode = RotationRoundRobin
	}
	if cfg.CooldownSeconds <= 0 {
		cfg.CooldownSeconds = NewDefaultConfig().CooldownSeconds
	}

	p := &Pool{
		logger:   logger.With().Str("component", "ProxyPool").Logger(),
		cfg:      cfg,
		cooldown: time.Duration(cfg.CooldownSeconds) * time.Second,
		now:      time.Now,
	}

	if err := p.setProxies(cfg.Proxies); err != nil {
		return nil, err
	}
	p.enabled = cfg.Enabled && len(p.entries) > 0

	p.logger.Info().
		Bool("enabled", p.enabled).
		Int("proxies", len(p.entries)).
		Str("rotation", cfg.RotationMode).
		Int("cooldown_seconds", cfg.CooldownSeconds).
		Bool("allow_direct_fallback", cfg.AllowDirectFallback).
		Msg("Proxy pool configured")

	return p, nil
}

func (p *Pool) setProxies(addrs []string) error {
	entries := make([]*Entry, 0, len(addrs))
	for i, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		parsed, err := url.Parse(addr)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("invalid proxy address %q", addr)
		}
		entries = append(entries, &Entry{
			ID:  fmt.Sprintf("proxy-%d", i+1),
			URL: parsed,
		})
	}
	p.entries = entries
	return nil
}

// Enabled reports whether probes should consult the pool at all.
func (p *Pool) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// AllowDirectFallback reports whether a probe may go direct when no healthy
// proxy is available.
func (p *Pool) AllowDirectFallback() bool {
	return p.cfg.AllowDirectFallback
}

// SetEnabled toggles the pool at runtime. Enabling requires a non-empty
// proxy list; the call reports the resulting state.
func (p *Pool) SetEnabled(enabled bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled && len(p.entries) > 0
	return p.enabled
}

// AddProxies appends parsed proxy addresses to the pool. Used by auto-fetch
// when the configured list is empty.
func (p *Pool) AddProxies(addrs []string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	base := len(p.entries)
	for _, addr := range addrs {
		parsed, err := url.Parse(strings.TrimSpace(addr))
		if err != nil || parsed.Host == "" {
			p.logger.Warn().Str("proxy", addr).Msg("Skipping unparseable fetched proxy")
			continue
		}
		p.entries = append(p.entries, &Entry{
			ID:  fmt.Sprintf("proxy-%d", base+added+1),
			URL: parsed,
		})
		added++
	}
	return added
}

// Size returns the number of configured proxies.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next proxy candidate according to the rotation mode, or
// nil when the pool is disabled, empty, or every entry is in cooldown. The
// caller decides between direct fallback and a hard failure.
func (p *Pool) Next() *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || len(p.entries) == 0 {
		return nil
	}

	healthy := p.healthyLocked()
	if len(healthy) == 0 {
		return nil
	}

	if p.cfg.RotationMode == RotationRandomHealthy {
		return healthy[rand.Intn(len(healthy))]
	}

	// Round robin over insertion order, skipping entries in cooldown.
	entry := healthy[p.index%len(healthy)]
	p.index = (p.index + 1) % len(healthy)
	return entry
}

// healthyLocked returns entries eligible for rotation, clearing the failure
// timestamp on entries whose cooldown has elapsed. Caller holds p.mu.
func (p *Pool) healthyLocked() []*Entry {
	now := p.now()
	healthy := make([]*Entry, 0, len(p.entries))
	for _, entry := range p.entries {
		switch {
		case entry.lastFailureAt.IsZero():
			healthy = append(healthy, entry)
		case now.Sub(entry.lastFailureAt) >= p.cooldown:
			entry.lastFailureAt = time.Time{}
			healthy = append(healthy, entry)
		}
	}
	return healthy
}

// ReportFailure puts the entry into cooldown.
func (p *Pool) ReportFailure(entry *Entry) {
	if entry == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	entry.lastFailureAt = p.now()
	entry.failureCount++
	p.logger.Debug().
		Str("proxy_id", entry.ID).
		Int("failures", entry.failureCount).
		Msg("Proxy marked unhealthy")
}

// ReportSuccess records a successful use. It never clears an existing
// failure timestamp early; cooldown is strictly time-based.
func (p *Pool) ReportSuccess(entry *Entry) {
	if entry == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entry.successCount++
}

// Snapshot returns the pool status for diagnostics endpoints.
func (p *Pool) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	proxies := make([]EntryStatus, 0, len(p.entries))
	for _, entry := range p.entries {
		healthy := entry.lastFailureAt.IsZero() || now.Sub(entry.lastFailureAt) >= p.cooldown
		proxies = append(proxies, EntryStatus{
			ID:            entry.ID,
			Healthy:       healthy,
			LastFailureAt: entry.lastFailureAt,
			SuccessCount:  entry.successCount,
			FailureCount:  entry.failureCount,
		})
	}

	return Status{
		Enabled:             p.enabled,
		Count:               len(p.entries),
		RotationMode:        p.cfg.RotationMode,
		CooldownSeconds:     p.cfg.CooldownSeconds,
		AllowDirectFallback: p.cfg.AllowDirectFallback,
		Proxies:             proxies,
	}
}
