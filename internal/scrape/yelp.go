package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/discfinder/discfinder/internal/domain/model"
)

// SearchYelp searches Yelp listings and returns store candidates. Yelp's
// markup exposes little beyond the business name, so candidates carry only
// name and provenance. A blocked or errored page yields zero candidates.
func (s *Scraper) SearchYelp(
	ctx context.Context,
	query, location string,
	maxResults int,
) ([]model.Candidate, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"find_desc": query,
			"find_loc":  location,
		}).
		Get(s.yelpURL)
	if err != nil {
		return nil, fmt.Errorf("yelp request: %w", err)
	}
	if res.StatusCode() != 200 {
		s.logger.Warn("yelp returned non-OK status", "status", res.StatusCode())
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("yelp parse: %w", err)
	}

	sourceURL := res.Request.URL
	var candidates []model.Candidate
	doc.Find(`div[data-testid="serp-ia-card"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := strings.TrimSpace(sel.Find(`a[data-analytics-label="biz-name"]`).First().Text())
		if name == "" {
			name = "Unknown"
		}
		candidates = append(candidates, model.Candidate{
			Name:      name,
			Source:    model.SourceYelp,
			SourceURL: strPtr(sourceURL),
		})
		return len(candidates) < maxResults
	})

	s.courtesyDelay(ctx)
	return candidates, nil
}
