package probe

// Status is the classification of one probe outcome. Exactly one value is
// assigned per outcome.
type Status string

const (
	StatusFound       Status = "found"
	StatusNotFound    Status = "not_found"
	StatusUnknown     Status = "unknown"
	StatusBlocked     Status = "blocked"
	StatusTimeout     Status = "timeout"
	StatusRateLimited Status = "rate_limited"
	StatusServerError Status = "server_error"
	StatusRedirect    Status = "redirect"
	StatusError       Status = "error"
)

// Outcome is the terminal result of one probe against one platform.
// Retries are internal to the attempt; consumers see exactly one Outcome
// per target. Immutable after creation.
type Outcome struct {
	Site       string  `json:"site"`
	Category   string  `json:"category,omitempty"`
	URL        string  `json:"url"`
	Found      bool    `json:"found"`
	State      Status  `json:"state"`
	StatusCode int     `json:"status_code"`
	ViaProxy   bool    `json:"via_proxy"`
	ProxyID    string  `json:"proxy_id,omitempty"`
	LatencyMS  float64 `json:"latency_ms,omitempty"`
	Reason     string  `json:"reason,omitempty"`

	// Display metadata, parsed opportunistically from found profiles.
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}
