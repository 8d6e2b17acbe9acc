package config

import "time"

const defaultScraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ScraperConfig contains configuration for the web scrapers.
type ScraperConfig struct {
	// UserAgent is sent on every scrape request. External directories
	// reject requests without a browser-like user agent.
	UserAgent string `env:"USER_AGENT"`

	// Timeout is the per-request timeout for scrape calls.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// CourtesyDelayMin/Max bound the randomized pause after each
	// successful fetch.
	CourtesyDelayMin time.Duration `env:"COURTESY_DELAY_MIN" envDefault:"1s"`
	CourtesyDelayMax time.Duration `env:"COURTESY_DELAY_MAX" envDefault:"3s"`

	// YellowPagesURL and YelpURL and RedditURL are the search endpoints.
	// Overridable for tests.
	YellowPagesURL string `env:"YELLOW_PAGES_URL" envDefault:"https://www.yellowpages.com/search"`
	YelpURL        string `env:"YELP_URL"         envDefault:"https://www.yelp.com/search"`
	RedditURL      string `env:"REDDIT_URL"       envDefault:"https://www.reddit.com/search.json"`
}

// Sanitize applies guardrails to scraper configuration values.
func (s *ScraperConfig) Sanitize() {
	if s.UserAgent == "" {
		s.UserAgent = defaultScraperUserAgent
	}
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	if s.CourtesyDelayMin <= 0 {
		s.CourtesyDelayMin = time.Second
	}
	if s.CourtesyDelayMax < s.CourtesyDelayMin {
		s.CourtesyDelayMax = s.CourtesyDelayMin
	}
}
