package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"seekr/internal/catalog"
)

// Block-page fragments that mark a response as bot-filtered regardless of
// status code.
var blockSignatures = []string{
	"access denied",
	"captcha",
	"are you a robot",
	"attention required",
	"request blocked",
	"unusual traffic",
}

// ClassifyError maps a network-level failure to a status. Timeouts are kept
// distinct from other transport errors.
func ClassifyError(err error) (Status, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout, "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout, "request timed out"
	}
	return StatusError, err.Error()
}

// Classify maps an HTTP response to exactly one status using the target's
// detection rule. The priority order is fixed: a plain 404 is not_found
// regardless of the rule, then rate limiting, block signals, server errors
// and unexpected redirects are recognized before the positive/negative rule
// is consulted, so an infra-level failure can never be classified as found.
func Classify(resp *Response, target catalog.ProbeTarget) (Status, string) {
	site := target.Site
	body := strings.ToLower(string(resp.Body))

	switch {
	case resp.StatusCode == 404:
		return StatusNotFound, "profile not found"
	case resp.StatusCode == 429:
		return StatusRateLimited, "rate limited"
	case resp.StatusCode == 403 || resp.StatusCode == 999 || matchesBlockSignature(body):
		return StatusBlocked, "access blocked"
	case resp.StatusCode >= 500:
		return StatusServerError, "server error"
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resolveLocation(target.URL, resp.Location)
		if site.Rule.Type == catalog.RuleRedirectTarget &&
			strings.HasPrefix(location, site.Rule.AllowedLocation) {
			return StatusFound, "redirected to profile"
		}
		return StatusRedirect, "redirected"
	}

	// Site-level negative signal wins over any positive rule match.
	for _, neg := range site.NegativeKeywords {
		if neg != "" && strings.Contains(body, strings.ToLower(neg)) {
			return StatusNotFound, "site negative signal"
		}
	}

	return applyRule(resp, target, body)
}

func applyRule(resp *Response, target catalog.ProbeTarget, body string) (Status, string) {
	site := target.Site
	successStatus := resp.StatusCode >= 200 && resp.StatusCode < 300

	switch site.Rule.Type {
	case catalog.RuleStatusRange:
		switch {
		case site.Rule.MatchesNotFoundStatus(resp.StatusCode):
			return StatusNotFound, "profile not found"
		case site.Rule.MatchesFoundStatus(resp.StatusCode) && successStatus:
			return confirmFound(site, body)
		default:
			return StatusUnknown, "status outside detection ranges"
		}

	case catalog.RuleBodyContains:
		if !successStatus {
			return StatusUnknown, "unexpected status for body check"
		}
		if strings.Contains(body, strings.ToLower(site.Rule.Marker)) {
			return confirmFound(site, body)
		}
		return StatusNotFound, "marker absent"

	case catalog.RuleBodyAbsent:
		if !successStatus {
			return StatusUnknown, "unexpected status for body check"
		}
		if strings.Contains(body, strings.ToLower(site.Rule.Marker)) {
			return StatusNotFound, "absence marker present"
		}
		return confirmFound(site, body)

	case catalog.RuleRedirectTarget:
		// The accepted redirect was handled before; a direct response here
		// means the site did not behave as the rule expects.
		return StatusUnknown, "expected redirect"
	}

	return StatusUnknown, "unable to confirm"
}

// confirmFound applies the site's positive keywords as a final sanity check
// before declaring a hit. An empty body or missing positive signal
// downgrades to unknown instead of silently reporting found.
func confirmFound(site catalog.Site, body string) (Status, string) {
	if len(site.PositiveKeywords) == 0 {
		return StatusFound, "positive rule matched"
	}
	if body == "" {
		return StatusUnknown, "positive rule matched on empty body"
	}
	for _, pos := range site.PositiveKeywords {
		if pos != "" && strings.Contains(body, strings.ToLower(pos)) {
			return StatusFound, "positive rule and keyword matched"
		}
	}
	return StatusUnknown, "positive rule matched without keyword signal"
}

func matchesBlockSignature(body string) bool {
	if body == "" {
		return false
	}
	for _, sig := range blockSignatures {
		if strings.Contains(body, sig) {
			return true
		}
	}
	return false
}

// resolveLocation makes a relative redirect Location absolute against the
// probed URL so prefix rules match either form.
func resolveLocation(baseURL, location string) string {
	if location == "" || strings.Contains(location, "://") {
		return location
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}
