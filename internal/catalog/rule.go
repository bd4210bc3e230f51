package catalog

import (
	"fmt"
	"strings"
)

// RuleType identifies the detection strategy a catalog entry uses to decide
// whether a profile exists.
type RuleType string

const (
	// RuleStatusRange decides on HTTP status codes alone.
	RuleStatusRange RuleType = "status_range"
	// RuleBodyContains treats the presence of a marker string as a hit.
	RuleBodyContains RuleType = "body_contains"
	// RuleBodyAbsent treats the absence of a marker string as a hit.
	RuleBodyAbsent RuleType = "body_absent"
	// RuleRedirectTarget decides on where the site redirects the request.
	RuleRedirectTarget RuleType = "redirect_target"
)

// Rule is the tagged detection variant carried by each catalog entry. Only
// the fields relevant to the selected Type are consulted.
type Rule struct {
	Type RuleType `json:"type" yaml:"type"`

	// status_range
	FoundStatus    []int `json:"found_status,omitempty" yaml:"found_status,omitempty"`
	NotFoundStatus []int `json:"not_found_status,omitempty" yaml:"not_found_status,omitempty"`

	// body_contains / body_absent
	Marker string `json:"marker,omitempty" yaml:"marker,omitempty"`

	// redirect_target: redirect Location prefix that still counts as a
	// profile page, e.g. a canonicalized profile URL.
	AllowedLocation string `json:"allowed_location,omitempty" yaml:"allowed_location,omitempty"`
}

// Validate checks that the rule carries the fields its type requires.
func (r Rule) Validate() error {
	switch r.Type {
	case RuleStatusRange:
		if len(r.FoundStatus) == 0 {
			return fmt.Errorf("status_range rule requires found_status")
		}
	case RuleBodyContains, RuleBodyAbsent:
		if strings.TrimSpace(r.Marker) == "" {
			return fmt.Errorf("%s rule requires marker", r.Type)
		}
	case RuleRedirectTarget:
		if strings.TrimSpace(r.AllowedLocation) == "" {
			return fmt.Errorf("redirect_target rule requires allowed_location")
		}
	case "":
		return fmt.Errorf("rule type is required")
	default:
		return fmt.Errorf("unknown rule type: %q", r.Type)
	}
	return nil
}

// MatchesFoundStatus reports whether code is listed as a positive status.
func (r Rule) MatchesFoundStatus(code int) bool {
	for _, c := range r.FoundStatus {
		if c == code {
			return true
		}
	}
	return false
}

// MatchesNotFoundStatus reports whether code is listed as a negative status.
func (r Rule) MatchesNotFoundStatus(code int) bool {
	for _, c := range r.NotFoundStatus {
		if c == code {
			return true
		}
	}
	return false
}
