package scan

import "seekr/internal/probe"

// EventType identifies a stream event.
type EventType string

const (
	// EventSiteResult carries one completed probe outcome.
	EventSiteResult EventType = "site_result"
	// EventSearchComplete is the terminal event of a scan stream.
	EventSearchComplete EventType = "search_complete"
)

// Summary aggregates a finished scan.
type Summary struct {
	Total      int `json:"total"`
	FoundCount int `json:"found_count"`
}

// Event is one message on a scan's result stream. Events are delivered in
// completion order, not catalog order; exactly one EventSearchComplete
// closes the stream.
type Event struct {
	Type    EventType      `json:"type"`
	Result  *probe.Outcome `json:"result,omitempty"`
	Summary *Summary       `json:"summary,omitempty"`

	// FoundProfiles is the subset of delivered site results with
	// state "found". Only set on the terminal event.
	FoundProfiles []probe.Outcome `json:"found_profiles,omitempty"`
}

// SearchResult is the blocking variant's return value: the same data the
// stream delivers, collected into one payload.
type SearchResult struct {
	Query         string          `json:"query"`
	TotalChecked  int             `json:"total_checked"`
	TotalFound    int             `json:"total_found"`
	FoundProfiles []probe.Outcome `json:"found_profiles"`
	AllResults    []probe.Outcome `json:"all_results"`
}
