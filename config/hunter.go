package config

import "time"

// Hunter.io publishes two request limits that apply to every plan.
const (
	defaultHunterPerMinute = 500
	defaultHunterPerSecond = 15
)

// HunterConfig contains Hunter.io API client configuration.
type HunterConfig struct {
	// APIKey authenticates requests to the Hunter.io API. Required for
	// email discovery jobs and the account endpoints.
	APIKey string `env:"API_KEY"`

	// BaseURL is the Hunter.io API base URL.
	BaseURL string `env:"BASE_URL" envDefault:"https://api.hunter.io/v2"`

	// Timeout is the per-request timeout for Hunter.io calls.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`

	// PerMinuteLimit caps requests in any trailing 60-second window.
	PerMinuteLimit int `env:"PER_MINUTE_LIMIT" envDefault:"500"`

	// PerSecondLimit caps requests in any trailing 1-second window.
	PerSecondLimit int `env:"PER_SECOND_LIMIT" envDefault:"15"`
}

// Sanitize applies guardrails to Hunter client configuration values.
func (h *HunterConfig) Sanitize() {
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.PerMinuteLimit <= 0 {
		h.PerMinuteLimit = defaultHunterPerMinute
	}
	if h.PerSecondLimit <= 0 {
		h.PerSecondLimit = defaultHunterPerSecond
	}
}
