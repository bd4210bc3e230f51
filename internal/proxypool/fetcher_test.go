package proxypool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const proxyListPage = `
<html><body><table><tbody>
<tr>
  <td><script>document.write('12.34.' + '56.78')</script></td>
  <td>8080</td>
</tr>
<tr>
  <td><script>document.write("203.0." + "113.9")</script></td>
  <td>3128</td>
</tr>
<tr>
  <td><script>document.write('not' + 'an-ip')</script></td>
  <td>9999</td>
</tr>
<tr>
  <td>no script here</td>
  <td>1080</td>
</tr>
</tbody></table></body></html>`

func TestParseProxyRows(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(proxyListPage))
	require.NoError(t, err)

	proxies := ParseProxyRows(doc)

	assert.Equal(t, []string{
		"http://12.34.56.78:8080",
		"http://203.0.113.9:3128",
	}, proxies)
}

func TestDecodeWrittenIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`document.write('12.34.' + '56.78')`, "12.34.56.78"},
		{`document.write("1.2." + "3.4.")`, "1.2.3.4"},
		{`document.write('garbage')`, ""},
		{`no write call`, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, decodeWrittenIP(tt.input), "input %q", tt.input)
	}
}

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(proxyListPage))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), zerolog.Nop())

	// Point the fetcher at the test server by rewriting the request URL via
	// a transport hook.
	f.client = &http.Client{Transport: rewriteTransport{target: server.URL}}

	proxies, err := f.Fetch(context.Background())

	require.NoError(t, err)
	assert.Len(t, proxies, 2)
}

type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, rt.target, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultTransport.RoundTrip(redirected)
}
