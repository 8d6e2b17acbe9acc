package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/discfinder/discfinder/internal/domain/model"
)

// Store name heuristics applied to post title and body. These cast a wide
// net on purpose; matches are low-confidence leads that carry provenance
// notes so an operator can verify them later.
var redditStorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([A-Z][a-z]+ (?:DVD|Video|Movies?|Records?)(?:\s+(?:Store|Shop|Outlet))?)`),
	regexp.MustCompile(`(?i)([A-Z][a-z]+'s (?:DVD|Video|Movies?|Records?))`),
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Permalink string `json:"permalink"`
}

// SearchReddit searches Reddit posts for store name mentions. Every pattern
// match in a post's title or body becomes a candidate attributed to the
// post's permalink.
func (s *Scraper) SearchReddit(
	ctx context.Context,
	query string,
	maxPosts int,
) ([]model.Candidate, error) {
	if maxPosts <= 0 {
		maxPosts = 100
	}

	var listing redditListing
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"limit": strconv.Itoa(maxPosts),
			"sort":  "relevance",
		}).
		SetResult(&listing).
		Get(s.redditURL)
	if err != nil {
		return nil, fmt.Errorf("reddit request: %w", err)
	}
	if res.StatusCode() != 200 {
		s.logger.Warn("reddit returned non-OK status", "status", res.StatusCode())
		return nil, nil
	}

	var candidates []model.Candidate
	for _, child := range listing.Data.Children {
		candidates = append(candidates, extractRedditCandidates(child.Data)...)
	}

	s.courtesyDelay(ctx)
	return candidates, nil
}

func extractRedditCandidates(post redditPost) []model.Candidate {
	text := post.Title + " " + post.Selftext
	sourceURL := "https://reddit.com" + post.Permalink
	notes := "Found in Reddit post: " + truncate(post.Title, 100) + "..."

	var candidates []model.Candidate
	for _, pattern := range redditStorePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			candidates = append(candidates, model.Candidate{
				Name:      strings.TrimSpace(match[1]),
				Source:    model.SourceReddit,
				SourceURL: strPtr(sourceURL),
				Notes:     strPtr(notes),
			})
		}
	}
	return candidates
}

// truncate cuts s to at most n runes, never splitting a multi-byte
// character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
