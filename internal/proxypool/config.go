package proxypool

// Rotation modes supported by the pool.
const (
	RotationRoundRobin    = "round_robin"
	RotationRandomHealthy = "random_healthy"
)

// Config holds proxy pool configuration.
type Config struct {
	Enabled             bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Proxies             []string `json:"proxies,omitempty" yaml:"proxies,omitempty" validate:"omitempty,dive,url"`
	RotationMode        string   `json:"rotation_mode,omitempty" yaml:"rotation_mode,omitempty" validate:"omitempty,oneof=round_robin random_healthy"`
	CooldownSeconds     int      `json:"cooldown_seconds,omitempty" yaml:"cooldown_seconds,omitempty" validate:"omitempty,min=1"`
	AllowDirectFallback bool     `json:"allow_direct_fallback,omitempty" yaml:"allow_direct_fallback,omitempty"`
	AutoFetch           bool     `json:"auto_fetch,omitempty" yaml:"auto_fetch,omitempty"`
}

// NewDefaultConfig returns a Config with default values. Proxying is opt-in:
// the pool stays disabled until proxies are configured and Enabled is set.
func NewDefaultConfig() Config {
	return Config{
		Enabled:             false,
		RotationMode:        RotationRoundRobin,
		CooldownSeconds:     120,
		AllowDirectFallback: true,
		AutoFetch:           false,
	}
}
