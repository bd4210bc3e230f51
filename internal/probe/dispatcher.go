// Package probe implements the concurrent probing engine: a bounded
// dispatcher that issues one HTTP probe per catalog target, routes requests
// through the proxy pool when enabled, and classifies every response into a
// single status.
package probe

import (
	"context"
	"math"
	"math/rand"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"seekr/internal/catalog"
	"seekr/internal/proxypool"
)

// Dispatcher executes probes under a shared concurrency cap. The cap and
// the proxy pool are process-wide: they apply across every scan session.
type Dispatcher struct {
	cfg    Config
	client *Client
	pool   *proxypool.Pool
	logger zerolog.Logger

	// Counting semaphore; holding a token means the probe is in flight.
	slots chan struct{}

	// Injected for tests; defaults to a real jittered sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher builds a dispatcher. The pool may be a disabled pool but
// must not be nil.
func NewDispatcher(cfg Config, client *Client, pool *proxypool.Pool, logger zerolog.Logger) *Dispatcher {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = NewDefaultConfig().Concurrency
	}

	return &Dispatcher{
		cfg:    cfg,
		client: client,
		pool:   pool,
		logger: logger.With().Str("component", "Dispatcher").Logger(),
		slots:  make(chan struct{}, concurrency),
		sleep:  sleepWithContext,
	}
}

// Probe runs one probe to completion and returns exactly one Outcome.
// It blocks while acquiring a concurrency slot; the slot is released on
// every exit path.
func (d *Dispatcher) Probe(ctx context.Context, target catalog.ProbeTarget) Outcome {
	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		return d.errorOutcome(target, StatusError, "scan cancelled before dispatch", false, "")
	}
	defer func() { <-d.slots }()

	return d.probeWithRetries(ctx, target)
}

// probeWithRetries issues the request, retrying through fresh proxies on
// network failure when proxying is enabled. Direct probes are single-shot:
// retries exist to survive flaky proxies, not to mask site behavior.
func (d *Dispatcher) probeWithRetries(ctx context.Context, target catalog.ProbeTarget) Outcome {
	proxying := d.pool.Enabled()
	attempts := 1
	if proxying {
		attempts = d.cfg.MaxRetries + 1
	}

	var lastStatus Status
	var lastReason string
	var lastViaProxy bool
	var lastProxyID string

	for attempt := 0; attempt < attempts; attempt++ {
		var entry *proxypool.Entry
		var proxyURL *url.URL

		if proxying {
			entry = d.pool.Next()
			if entry == nil {
				if !d.pool.AllowDirectFallback() {
					return d.errorOutcome(target, StatusBlocked, "no healthy proxy available", false, "")
				}
				// Fall through with a direct attempt.
			} else {
				proxyURL = entry.URL
			}
		}

		resp, err := d.client.Get(ctx, target.URL, proxyURL)
		if err != nil {
			if entry != nil {
				d.pool.ReportFailure(entry)
			}
			lastStatus, lastReason = ClassifyError(err)
			lastViaProxy = entry != nil
			if entry != nil {
				lastProxyID = entry.ID
			}

			if attempt < attempts-1 {
				if backoffErr := d.sleep(ctx, d.backoffDelay(attempt)); backoffErr != nil {
					break
				}
				continue
			}
			break
		}

		if entry != nil {
			d.pool.ReportSuccess(entry)
		}
		return d.buildOutcome(target, resp, entry)
	}

	return d.errorOutcome(target, lastStatus, lastReason, lastViaProxy, lastProxyID)
}

func (d *Dispatcher) buildOutcome(target catalog.ProbeTarget, resp *Response, entry *proxypool.Entry) Outcome {
	status, reason := Classify(resp, target)

	outcome := Outcome{
		Site:       target.Site.Name,
		Category:   target.Site.Category,
		URL:        target.URL,
		Found:      status == StatusFound,
		State:      status,
		StatusCode: resp.StatusCode,
		ViaProxy:   entry != nil,
		LatencyMS:  float64(resp.Duration.Microseconds()) / 1000.0,
		Reason:     reason,
	}
	if entry != nil {
		outcome.ProxyID = entry.ID
	}

	if outcome.Found && target.Site.ExtractProfile {
		meta := ExtractProfileMeta(resp.Body)
		outcome.DisplayName = meta.DisplayName
		outcome.Bio = meta.Bio
		outcome.Avatar = meta.Avatar
	}

	d.logger.Debug().
		Str("site", outcome.Site).
		Str("state", string(outcome.State)).
		Int("status_code", outcome.StatusCode).
		Bool("via_proxy", outcome.ViaProxy).
		Msg("Probe classified")

	return outcome
}

func (d *Dispatcher) errorOutcome(target catalog.ProbeTarget, status Status, reason string, viaProxy bool, proxyID string) Outcome {
	if status == "" {
		status = StatusError
	}
	return Outcome{
		Site:     target.Site.Name,
		Category: target.Site.Category,
		URL:      target.URL,
		Found:    false,
		State:    status,
		ViaProxy: viaProxy,
		ProxyID:  proxyID,
		Reason:   reason,
	}
}

// backoffDelay returns base * 2^attempt plus up to 250ms of jitter.
func (d *Dispatcher) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(d.cfg.BackoffBase()) * math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Intn(250)) * time.Millisecond
	return delay + jitter
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
