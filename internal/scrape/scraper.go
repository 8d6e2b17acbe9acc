// Package scrape collects DVD store candidates from public directory sites
// and Reddit. Collectors are polite by construction: a shared browser-like
// User-Agent, a hard per-request timeout, and a randomized courtesy pause
// after every page fetch.
package scrape

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/discfinder/discfinder/config"
)

// Scraper holds the shared HTTP client and pacing for all collectors.
type Scraper struct {
	http     *resty.Client
	logger   *slog.Logger
	delayMin time.Duration
	delayMax time.Duration

	yellowPagesURL string
	yelpURL        string
	redditURL      string

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scraper from configuration.
func New(cfg config.ScraperConfig) *Scraper {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Scraper{
		http:           httpClient,
		logger:         slog.Default().With("component", "scraper"),
		delayMin:       cfg.CourtesyDelayMin,
		delayMax:       cfg.CourtesyDelayMax,
		yellowPagesURL: cfg.YellowPagesURL,
		yelpURL:        cfg.YelpURL,
		redditURL:      cfg.RedditURL,
		sleep:          sleepCtx,
	}
}

// courtesyDelay pauses a random interval between delayMin and delayMax
// after a page fetch. A cancelled context cuts the pause short; the fetch
// itself already succeeded, so the error is not propagated.
func (s *Scraper) courtesyDelay(ctx context.Context) {
	if s.delayMax <= 0 {
		return
	}
	d := s.delayMin
	if span := s.delayMax - s.delayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	_ = s.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
