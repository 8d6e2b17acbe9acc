package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/discfinder/discfinder/internal/domain/model"
)

// JobRepository is the repository surface JobService depends on.
type JobRepository interface {
	Create(ctx context.Context, jobType model.JobType, parameters json.RawMessage) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Job, error)
}

// Dispatcher hands a created job to the background pool.
type Dispatcher interface {
	Dispatch(jobID string)
}

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Jobs       JobRepository
	Stores     StoreRepository
	Dispatcher Dispatcher
}

// JobService creates and inspects search jobs. Creation and dispatch are a
// single operation: every job this service persists is handed to the worker
// pool immediately.
type JobService struct {
	jobs       JobRepository
	stores     StoreRepository
	dispatcher Dispatcher
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) *JobService {
	return &JobService{
		jobs:       opts.Jobs,
		stores:     opts.Stores,
		dispatcher: opts.Dispatcher,
	}
}

// StartDirectorySearch creates and dispatches a directory_search job.
func (s *JobService) StartDirectorySearch(
	ctx context.Context,
	params model.DirectorySearchParams,
) (*model.Job, error) {
	if params.Query == "" {
		params.Query = "DVD store"
	}
	if params.Location == "" {
		params.Location = "United States"
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 100
	}
	return s.create(ctx, model.JobTypeDirectorySearch, params)
}

// StartRedditSearch creates and dispatches a reddit_search job.
func (s *JobService) StartRedditSearch(
	ctx context.Context,
	params model.RedditSearchParams,
) (*model.Job, error) {
	if params.Query == "" {
		params.Query = "DVD store recommendations"
	}
	if params.MaxPosts <= 0 {
		params.MaxPosts = 100
	}
	return s.create(ctx, model.JobTypeRedditSearch, params)
}

// StartEmailDiscovery creates and dispatches an email_discovery job. An
// empty id list expands to every store that has a website but no email yet;
// the expansion happens here, at creation time, so the job's recorded
// parameters are the exact set of stores it will process.
func (s *JobService) StartEmailDiscovery(
	ctx context.Context,
	storeIDs []string,
) (*model.Job, int, error) {
	if len(storeIDs) == 0 {
		ids, err := s.stores.EmailCandidateIDs(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve email candidates: %w", err)
		}
		storeIDs = ids
	}

	job, err := s.create(ctx, model.JobTypeEmailDiscovery, model.EmailDiscoveryParams{
		StoreIDs: storeIDs,
	})
	if err != nil {
		return nil, 0, err
	}
	return job, len(storeIDs), nil
}

func (s *JobService) create(ctx context.Context, jobType model.JobType, params any) (*model.Job, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode job parameters: %w", err)
	}

	job, err := s.jobs.Create(ctx, jobType, payload)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(job.ID)
	return job, nil
}

// GetByID retrieves a job by ID.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// List returns the most recent jobs, newest first.
func (s *JobService) List(ctx context.Context, opts model.JobsListOptions) ([]*model.Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return s.jobs.ListRecent(ctx, limit)
}
