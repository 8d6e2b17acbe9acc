package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/discfinder/discfinder/internal/domain/model"
)

// SearchYellowPages searches Yellow Pages business listings and returns
// store candidates. Individual listings that fail to parse are skipped, and
// a blocked or errored page yields zero candidates; only transport-level
// failures surface as errors.
func (s *Scraper) SearchYellowPages(
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
			"search_terms":       query,
			"geo_location_terms": location,
		}).
		Get(s.yellowPagesURL)
	if err != nil {
		return nil, fmt.Errorf("yellow pages request: %w", err)
	}
	if res.StatusCode() != 200 {
		s.logger.Warn("yellow pages returned non-OK status", "status", res.StatusCode())
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("yellow pages parse: %w", err)
	}

	sourceURL := res.Request.URL
	var candidates []model.Candidate
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := strings.TrimSpace(sel.Find("a.business-name").First().Text())
		if name == "" {
			name = "Unknown"
		}

		c := model.Candidate{
			Name:      name,
			Address:   strPtr(strings.TrimSpace(sel.Find("div.street-address").First().Text())),
			City:      strPtr(strings.TrimSpace(sel.Find("div.locality").First().Text())),
			Phone:     strPtr(strings.TrimSpace(sel.Find("div.phones").First().Text())),
			Source:    model.SourceYellowPages,
			SourceURL: strPtr(sourceURL),
		}
		if href, ok := sel.Find("a.track-visit-website").First().Attr("href"); ok {
			c.Website = strPtr(strings.TrimSpace(href))
		}
		candidates = append(candidates, c)
		return len(candidates) < maxResults
	})

	s.courtesyDelay(ctx)
	return candidates, nil
}
