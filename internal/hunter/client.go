// Package hunter is a client for the Hunter.io v2 email discovery API.
// All calls pass through a shared rate limiter that enforces Hunter's
// published per-minute and per-second quotas before any request is sent.
package hunter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the Hunter.io v2 API.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *RateLimiter
}

// Options configures a Client.
type Options struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	PerMinuteLimit int
	PerSecondLimit int
}

// NewClient creates a Hunter.io client.
func NewClient(opts Options) *Client {
	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)

	return &Client{
		http:    httpClient,
		apiKey:  opts.APIKey,
		limiter: NewRateLimiter(opts.PerMinuteLimit, opts.PerSecondLimit),
	}
}

// AccountInfo is the subset of GET /account the service uses.
type AccountInfo struct {
	Data struct {
		Email     string `json:"email"`
		PlanName  string `json:"plan_name"`
		PlanLevel int    `json:"plan_level"`
		Requests  struct {
			Searches struct {
				Used      int `json:"used"`
				Available int `json:"available"`
			} `json:"searches"`
			Verifications struct {
				Used      int `json:"used"`
				Available int `json:"available"`
			} `json:"verifications"`
		} `json:"requests"`
	} `json:"data"`
}

// DomainSearchResult is the subset of GET /domain-search the service uses.
type DomainSearchResult struct {
	Data struct {
		Domain       string        `json:"domain"`
		Organization string        `json:"organization"`
		Emails       []DomainEmail `json:"emails"`
	} `json:"data"`
	Meta struct {
		Results int `json:"results"`
	} `json:"meta"`
}

// DomainEmail is one address returned by a domain search.
type DomainEmail struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Position   string `json:"position"`
}

// EmailFinderResult is the subset of GET /email-finder the service uses.
type EmailFinderResult struct {
	Data struct {
		Email     string `json:"email"`
		Score     int    `json:"score"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"data"`
}

// EmailCountResult is the subset of GET /email-count the service uses.
// This endpoint is free and does not consume credits.
type EmailCountResult struct {
	Data struct {
		Total          int `json:"total"`
		PersonalEmails int `json:"personal_emails"`
		GenericEmails  int `json:"generic_emails"`
	} `json:"data"`
}

// Account returns account information including remaining credit balance.
func (c *Client) Account(ctx context.Context) (*AccountInfo, error) {
	var out AccountInfo
	if err := c.get(ctx, "/account", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DomainSearch lists email addresses found for a domain.
func (c *Client) DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	var out DomainSearchResult
	err := c.get(ctx, "/domain-search", map[string]string{
		"domain": domain,
		"limit":  strconv.Itoa(limit),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EmailFinder finds the most likely address for a named person at a domain.
func (c *Client) EmailFinder(ctx context.Context, domain, firstName, lastName string) (*EmailFinderResult, error) {
	var out EmailFinderResult
	err := c.get(ctx, "/email-finder", map[string]string{
		"domain":     domain,
		"first_name": firstName,
		"last_name":  lastName,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EmailCount returns how many addresses Hunter knows for a domain.
func (c *Client) EmailCount(ctx context.Context, domain string) (*EmailCountResult, error) {
	var out EmailCountResult
	err := c.get(ctx, "/email-count", map[string]string{"domain": domain}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.apiKey).
		SetResult(out)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	res, err := req.Get(path)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return err
	}

	switch {
	case res.StatusCode() == http.StatusUnauthorized:
		return ErrUnauthorized
	case res.StatusCode() == http.StatusForbidden:
		return ErrRateLimited
	case res.StatusCode() != http.StatusOK:
		return &UpstreamError{Status: res.StatusCode(), Body: string(res.Body())}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
