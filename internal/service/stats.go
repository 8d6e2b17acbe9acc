package service

import (
	"context"
	"fmt"

	"github.com/discfinder/discfinder/internal/domain/model"
)

const recentJobsInStats = 5

// ActiveJobCounter reports how many jobs are in a non-terminal status.
type ActiveJobCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// StatsServiceOptions groups dependencies for StatsService.
type StatsServiceOptions struct {
	Stores StoreRepository
	Jobs   JobRepository
	Active ActiveJobCounter
	Hunter *HunterService
}

// StatsService assembles the dashboard statistics snapshot. The active-jobs
// figure is counted from job statuses in the database, so it is correct
// across restarts and across multiple replicas.
type StatsService struct {
	stores StoreRepository
	jobs   JobRepository
	active ActiveJobCounter
	hunter *HunterService
}

// NewStatsService constructs a new StatsService.
func NewStatsService(opts StatsServiceOptions) *StatsService {
	return &StatsService{
		stores: opts.Stores,
		jobs:   opts.Jobs,
		active: opts.Active,
		hunter: opts.Hunter,
	}
}

// Snapshot returns the current statistics.
func (s *StatsService) Snapshot(ctx context.Context) (*model.Stats, error) {
	counts, err := s.stores.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}

	activeJobs, err := s.active.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active jobs: %w", err)
	}

	recent, err := s.jobs.ListRecent(ctx, recentJobsInStats)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	if recent == nil {
		recent = []*model.Job{}
	}

	return &model.Stats{
		TotalStores:      counts.Total,
		VerifiedStores:   counts.Verified,
		StoresWithEmails: counts.WithEmails,
		ActiveJobs:       activeJobs,
		CreditsRemaining: s.hunter.CreditsRemaining(ctx),
		RecentJobs:       recent,
	}, nil
}
