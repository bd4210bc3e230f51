package proxypool

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	// Public proxy list used when auto-fetch is enabled and no proxies are
	// configured. The page obfuscates IPs inside document.write() calls.
	fetchSourceURL  = "https://www.proxynova.com/proxy-server-list/"
	maxFetchedCount = 10
)

var (
	writeCallRe = regexp.MustCompile(`document\.write\(([^)]*)\)`)
	quoteJunkRe = regexp.MustCompile(`[\s+'"]`)
	ipv4Re      = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	portRe      = regexp.MustCompile(`^\d{2,5}$`)
)

// Fetcher retrieves free proxies from a public list page. It is only used
// when the pool is asked to enable itself with an empty proxy list.
type Fetcher struct {
	logger zerolog.Logger
	client *http.Client
}

// NewFetcher creates a fetcher with the given HTTP client.
func NewFetcher(client *http.Client, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		logger: logger.With().Str("component", "ProxyFetcher").Logger(),
		client: client,
	}
}

// Fetch downloads the proxy list page and parses it into http://ip:port
// addresses, capped at maxFetchedCount. A fetch failure is not fatal to the
// caller; it just leaves the pool empty.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchSourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build proxy list request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy list returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy list page: %w", err)
	}

	proxies := ParseProxyRows(doc)
	f.logger.Info().Int("count", len(proxies)).Msg("Fetched free proxies")
	return proxies, nil
}

// ParseProxyRows extracts proxy addresses from the list page. Each table row
// hides the IP inside a document.write() script in the first cell and the
// port as plain text in the second.
func ParseProxyRows(doc *goquery.Document) []string {
	var proxies []string

	doc.Find("table tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}

		ip := decodeWrittenIP(cells.Eq(0).Text() + cells.Eq(0).Find("script").Text())
		port := strings.TrimSpace(cells.Eq(1).Text())
		if ip == "" || !portRe.MatchString(port) {
			return true
		}

		proxies = append(proxies, fmt.Sprintf("http://%s:%s", ip, port))
		return len(proxies) < maxFetchedCount
	})

	return proxies
}

// decodeWrittenIP unwraps a document.write('12.34.' + '56.78') style
// expression into a dotted quad.
func decodeWrittenIP(script string) string {
	match := writeCallRe.FindStringSubmatch(script)
	if match == nil {
		return ""
	}
	cleaned := quoteJunkRe.ReplaceAllString(match[1], "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if !ipv4Re.MatchString(cleaned) {
		return ""
	}
	return cleaned
}
