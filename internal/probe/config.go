package probe

import "time"

// Config holds dispatcher and HTTP client configuration.
type Config struct {
	// Global concurrency cap: at most this many probes in flight at once.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"omitempty,min=1"`

	// Per-request timeout. Kept tight so one stalled site only ever costs
	// its own concurrency slot for this long.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`

	// Retries apply only when proxying is enabled; they exist to survive
	// flaky proxies, not as a general reliability feature. Direct probes
	// are single-shot.
	MaxRetries         int     `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,min=0"`
	BackoffBaseSeconds float64 `json:"backoff_base_seconds,omitempty" yaml:"backoff_base_seconds,omitempty" validate:"omitempty,gt=0"`

	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MaxBodyBytes       int64  `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" validate:"omitempty,min=1024"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	EnableHTTP2        bool   `json:"enable_http2,omitempty" yaml:"enable_http2,omitempty"`
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() Config {
	return Config{
		Concurrency:        8,
		TimeoutSeconds:     5,
		MaxRetries:         2,
		BackoffBaseSeconds: 0.5,
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		MaxBodyBytes:       2 << 20,
		EnableHTTP2:        true,
	}
}

// Timeout returns the per-request timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackoffBase returns the backoff base as a duration.
func (c Config) BackoffBase() time.Duration {
	if c.BackoffBaseSeconds <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.BackoffBaseSeconds * float64(time.Second))
}
