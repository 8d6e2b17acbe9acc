package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/discfinder/discfinder/internal/hunter"
)

// HunterAccountCacheKey is the Redis key holding the cached account
// snapshot. Exported so operational tooling can invalidate it.
const HunterAccountCacheKey = "discfinder:hunter:account"

// HunterAPI is the client surface HunterService depends on.
type HunterAPI interface {
	Account(ctx context.Context) (*hunter.AccountInfo, error)
	EmailCount(ctx context.Context, domain string) (*hunter.EmailCountResult, error)
}

// AccountCache stores serialized account snapshots.
type AccountCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// HunterServiceOptions groups dependencies for HunterService.
type HunterServiceOptions struct {
	Client     HunterAPI
	Cache      AccountCache
	AccountTTL time.Duration
	Logger     *slog.Logger
}

// HunterService exposes Hunter.io account and email-count lookups. Account
// snapshots are cached in Redis so dashboard polling does not burn the
// request quota.
type HunterService struct {
	client     HunterAPI
	cache      AccountCache
	accountTTL time.Duration
	logger     *slog.Logger
}

// NewHunterService constructs a new HunterService.
func NewHunterService(opts HunterServiceOptions) *HunterService {
	ttl := opts.AccountTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HunterService{
		client:     opts.Client,
		cache:      opts.Cache,
		accountTTL: ttl,
		logger:     logger.With("component", "hunter"),
	}
}

// Account returns the current account snapshot, cached for AccountTTL.
// Cache failures degrade to a direct API call.
func (s *HunterService) Account(ctx context.Context) (*hunter.AccountInfo, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, HunterAccountCacheKey); err != nil {
			s.logger.Warn("account cache read failed", "err", err)
		} else if cached != nil {
			var info hunter.AccountInfo
			if err := json.Unmarshal(cached, &info); err == nil {
				return &info, nil
			}
			s.logger.Warn("discarding corrupt cached account snapshot")
		}
	}

	info, err := s.client.Account(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(info); err == nil {
			if err := s.cache.Set(ctx, HunterAccountCacheKey, payload, s.accountTTL); err != nil {
				s.logger.Warn("account cache write failed", "err", err)
			}
		}
	}
	return info, nil
}

// CreditsRemaining returns the remaining search credit balance as a JSON
// value: a number normally, the string "unknown" when the account lookup
// fails. Stats assembly never fails because Hunter is down.
func (s *HunterService) CreditsRemaining(ctx context.Context) json.RawMessage {
	info, err := s.Account(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch account for credit balance", "err", err)
		return json.RawMessage(`"unknown"`)
	}

	remaining := info.Data.Requests.Searches.Available - info.Data.Requests.Searches.Used
	payload, err := json.Marshal(remaining)
	if err != nil {
		return json.RawMessage(`"unknown"`)
	}
	return payload
}

// EmailCount returns how many addresses Hunter knows for a domain. This is
// a free API call and is never cached.
func (s *HunterService) EmailCount(ctx context.Context, domain string) (*hunter.EmailCountResult, error) {
	return s.client.EmailCount(ctx, domain)
}
