package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"seekr/internal/catalog"
)

func statusRangeTarget() catalog.ProbeTarget {
	return catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Example",
			Rule: catalog.Rule{
				Type:           catalog.RuleStatusRange,
				FoundStatus:    []int{200},
				NotFoundStatus: []int{404},
			},
		},
		URL: "https://example.com/alice",
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	target := statusRangeTarget()

	tests := []struct {
		name     string
		resp     *Response
		expected Status
	}{
		{"rate limited", &Response{StatusCode: 429}, StatusRateLimited},
		{"forbidden", &Response{StatusCode: 403}, StatusBlocked},
		{"linkedin style 999", &Response{StatusCode: 999}, StatusBlocked},
		{"block page on 200", &Response{StatusCode: 200, Body: []byte("please solve this CAPTCHA")}, StatusBlocked},
		{"server error", &Response{StatusCode: 503}, StatusServerError},
		{"unexpected redirect", &Response{StatusCode: 302, Location: "https://example.com/login"}, StatusRedirect},
		{"found", &Response{StatusCode: 200}, StatusFound},
		{"not found", &Response{StatusCode: 404}, StatusNotFound},
		{"odd status", &Response{StatusCode: 202}, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Classify(tt.resp, target)
			assert.Equal(t, tt.expected, status)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestClassify_NegativeKeywordWins(t *testing.T) {
	target := statusRangeTarget()
	target.Site.NegativeKeywords = []string{"user not found"}

	status, _ := Classify(&Response{StatusCode: 200, Body: []byte("Sorry, user NOT found here")}, target)

	assert.Equal(t, StatusNotFound, status)
}

func TestClassify_PositiveKeywordConfirmation(t *testing.T) {
	target := statusRangeTarget()
	target.Site.PositiveKeywords = []string{"example profile"}

	status, _ := Classify(&Response{StatusCode: 200, Body: []byte("<title>Example Profile - alice</title>")}, target)
	assert.Equal(t, StatusFound, status)

	status, _ = Classify(&Response{StatusCode: 200, Body: []byte("<title>generic landing page</title>")}, target)
	assert.Equal(t, StatusUnknown, status, "missing positive signal must downgrade, never report found")
}

func TestClassify_BodyContainsRule(t *testing.T) {
	target := catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Gram",
			Rule: catalog.Rule{Type: catalog.RuleBodyContains, Marker: "og:title"},
		},
		URL: "https://gram.example/alice",
	}

	status, _ := Classify(&Response{StatusCode: 200, Body: []byte(`<meta property="og:title" content="alice">`)}, target)
	assert.Equal(t, StatusFound, status)

	status, _ = Classify(&Response{StatusCode: 200, Body: []byte("<html>nothing here</html>")}, target)
	assert.Equal(t, StatusNotFound, status)
}

func TestClassify_BodyAbsentRule(t *testing.T) {
	target := catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Tok",
			Rule: catalog.Rule{Type: catalog.RuleBodyAbsent, Marker: "couldn't find this account"},
		},
		URL: "https://tok.example/@alice",
	}

	status, _ := Classify(&Response{StatusCode: 200, Body: []byte("Couldn't find this account")}, target)
	assert.Equal(t, StatusNotFound, status)

	status, _ = Classify(&Response{StatusCode: 200, Body: []byte("<html>profile page</html>")}, target)
	assert.Equal(t, StatusFound, status)
}

func TestClassify_NotFoundStatusBeatsBodyRules(t *testing.T) {
	// A 404 is not_found no matter which rule the site uses; the rule only
	// decides ambiguous successful responses.
	contains := catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Gram",
			Rule: catalog.Rule{Type: catalog.RuleBodyContains, Marker: "og:title"},
		},
		URL: "https://gram.example/alice",
	}
	absent := catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Tok",
			Rule: catalog.Rule{Type: catalog.RuleBodyAbsent, Marker: "couldn't find this account"},
		},
		URL: "https://tok.example/@alice",
	}

	status, reason := Classify(&Response{StatusCode: 404, Body: []byte("<html>page not found</html>")}, contains)
	assert.Equal(t, StatusNotFound, status)
	assert.Equal(t, "profile not found", reason)

	status, _ = Classify(&Response{StatusCode: 404, Body: []byte("<html>page not found</html>")}, absent)
	assert.Equal(t, StatusNotFound, status)
}

func TestClassify_RedirectTargetRule(t *testing.T) {
	target := catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Pro",
			Rule: catalog.Rule{
				Type:            catalog.RuleRedirectTarget,
				AllowedLocation: "https://pro.example/in/",
			},
		},
		URL: "https://pro.example/in/alice",
	}

	status, _ := Classify(&Response{StatusCode: 301, Location: "https://pro.example/in/alice-canonical"}, target)
	assert.Equal(t, StatusFound, status)

	status, _ = Classify(&Response{StatusCode: 302, Location: "https://pro.example/authwall"}, target)
	assert.Equal(t, StatusRedirect, status)

	status, _ = Classify(&Response{StatusCode: 200}, target)
	assert.Equal(t, StatusUnknown, status)
}

func TestClassify_RelativeRedirectLocation(t *testing.T) {
	target := catalog.ProbeTarget{
		Site: catalog.Site{
			Name: "Pro",
			Rule: catalog.Rule{
				Type:            catalog.RuleRedirectTarget,
				AllowedLocation: "https://pro.example/in/",
			},
		},
		URL: "https://pro.example/in/alice",
	}

	status, _ := Classify(&Response{StatusCode: 302, Location: "/in/alice-canonical"}, target)

	assert.Equal(t, StatusFound, status)
}

func TestClassifyError(t *testing.T) {
	status, reason := ClassifyError(context.DeadlineExceeded)
	assert.Equal(t, StatusTimeout, status)
	assert.Equal(t, "request timed out", reason)

	status, _ = ClassifyError(&timeoutError{})
	assert.Equal(t, StatusTimeout, status)

	status, reason = ClassifyError(errors.New("connection refused"))
	assert.Equal(t, StatusError, status)
	assert.Contains(t, reason, "connection refused")
}

type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

var _ interface {
	Timeout() bool
	Temporary() bool
} = (*timeoutError)(nil)

func TestSleepWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepWithContext(ctx, time.Minute)

	assert.Error(t, err)
}
