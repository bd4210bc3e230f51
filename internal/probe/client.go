package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// Response is a fully-read HTTP response for classification. Redirects are
// never followed; the Location header is itself a detection signal.
type Response struct {
	StatusCode int
	Location   string
	Body       []byte
	Duration   time.Duration
}

// Client issues probe requests, optionally through a proxy. Transports are
// cached per proxy URL so connection pools are reused across attempts.
type Client struct {
	cfg    Config
	logger zerolog.Logger

	base *http.Transport

	mu         sync.Mutex
	transports map[string]*http.Transport
}

// NewClient builds a probe client from configuration.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: cfg.Timeout(),
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout(),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	return &Client{
		cfg:        cfg,
		logger:     logger.With().Str("component", "ProbeClient").Logger(),
		base:       transport,
		transports: make(map[string]*http.Transport),
	}, nil
}

// transportFor returns the shared direct transport, or a cached clone
// configured for the given proxy.
func (c *Client) transportFor(proxyURL *url.URL) *http.Transport {
	if proxyURL == nil {
		return c.base
	}

	key := proxyURL.String()
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.transports[key]; ok {
		return t
	}
	t := c.base.Clone()
	t.Proxy = http.ProxyURL(proxyURL)
	c.transports[key] = t
	return t
}

// Get issues a single GET against the target URL with the configured
// timeout, reading at most MaxBodyBytes of the body.
func (c *Client) Get(ctx context.Context, targetURL string, proxyURL *url.URL) (*Response, error) {
	httpClient := &http.Client{
		Transport: c.transportFor(proxyURL),
		Timeout:   c.cfg.Timeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, WrapError(err, "failed to create probe request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(targetURL, err)
	}
	defer resp.Body.Close()

	maxBody := c.cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = NewDefaultConfig().MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	duration := time.Since(start)
	if err != nil {
		return nil, NewNetworkError(targetURL, err)
	}

	c.logger.Debug().
		Str("url", targetURL).
		Int("status_code", resp.StatusCode).
		Dur("duration", duration).
		Bool("via_proxy", proxyURL != nil).
		Msg("Probe request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
		Body:       body,
		Duration:   duration,
	}, nil
}
