// Package worker executes search jobs in the background with bounded
// concurrency. Jobs move through a strict lifecycle enforced at the storage
// layer; the runner only ever drives a job forward.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/domain/model"
	"github.com/discfinder/discfinder/internal/hunter"
)

// StoreWriter is the slice of the store repository the runner needs.
type StoreWriter interface {
	Create(ctx context.Context, req *model.CreateStoreRequest) (*model.Store, error)
	GetByID(ctx context.Context, id string) (*model.Store, error)
	SetEmail(ctx context.Context, id, email string, confidence float64) error
}

// JobStore is the slice of the job repository the runner needs.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*model.Job, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, results json.RawMessage, storesFound, creditsUsed int) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
}

// Collector gathers store candidates from external sources.
type Collector interface {
	SearchYellowPages(ctx context.Context, query, location string, maxResults int) ([]model.Candidate, error)
	SearchYelp(ctx context.Context, query, location string, maxResults int) ([]model.Candidate, error)
	SearchReddit(ctx context.Context, query string, maxPosts int) ([]model.Candidate, error)
}

// EmailSearcher finds email addresses for a domain.
type EmailSearcher interface {
	DomainSearch(ctx context.Context, domain string, limit int) (*hunter.DomainSearchResult, error)
}

// Options configures a Runner.
type Options struct {
	Concurrency      int
	EmailLookupPause time.Duration
	Logger           *slog.Logger
}

// Runner executes dispatched jobs on a bounded pool of goroutines.
type Runner struct {
	stores    StoreWriter
	jobs      JobStore
	collector Collector
	emails    EmailSearcher
	logger    *slog.Logger

	sem        *semaphore.Weighted
	emailPause time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a Runner. Concurrency defaults to 4 when non-positive.
func NewRunner(
	stores StoreWriter,
	jobs JobStore,
	collector Collector,
	emails EmailSearcher,
	opts Options,
) *Runner {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		stores:     stores,
		jobs:       jobs,
		collector:  collector,
		emails:     emails,
		logger:     logger.With("component", "worker"),
		sem:        semaphore.NewWeighted(int64(concurrency)),
		emailPause: opts.EmailLookupPause,
		sleep:      sleepCtx,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Dispatch schedules a job for execution. The call returns immediately; the
// job runs as soon as a pool slot frees up. Dispatching after shutdown is a
// no-op: the job stays pending and can be picked up on restart.
func (r *Runner) Dispatch(jobID string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("dispatch after shutdown ignored", "job_id", jobID)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := r.sem.Acquire(r.baseCtx, 1); err != nil {
			r.logger.Warn("job slot acquisition aborted", "job_id", jobID, "err", err)
			return
		}
		defer r.sem.Release(1)
		r.process(r.baseCtx, jobID)
	}()
}

// Shutdown stops accepting new jobs and waits for in-flight jobs to finish.
// When ctx expires first, the remaining jobs are cancelled and their failure
// is recorded by the usual failure path.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}

func (r *Runner) process(ctx context.Context, jobID string) {
	logger := r.logger.With("job_id", jobID)

	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil {
		logger.Error("failed to load job", "err", err)
		return
	}

	if err := r.jobs.MarkRunning(ctx, jobID); err != nil {
		// Another worker claimed it, or it was already finished.
		if errors.Is(err, data.ErrJobConflict) {
			logger.Info("job already claimed, skipping")
			return
		}
		logger.Error("failed to mark job running", "err", err)
		return
	}
	logger.Info("job started", "job_type", job.Type)

	results, runErr := r.run(ctx, job)
	if runErr != nil {
		logger.Error("job failed", "err", runErr)
		r.failJob(jobID, runErr, logger)
		return
	}

	payload, err := json.Marshal(results)
	if err != nil {
		r.failJob(jobID, fmt.Errorf("encode results: %w", err), logger)
		return
	}

	// Completion is recorded even when the run context was cancelled
	// mid-shutdown; use a fresh context with a short deadline.
	finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.jobs.MarkCompleted(finishCtx, jobID, payload, results.TotalFound, results.CreditsUsed); err != nil {
		logger.Error("failed to mark job completed", "err", err)
		return
	}
	logger.Info("job completed",
		"stores_found", results.TotalFound,
		"credits_used", results.CreditsUsed,
	)
}

func (r *Runner) failJob(jobID string, runErr error, logger *slog.Logger) {
	finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.jobs.MarkFailed(finishCtx, jobID, runErr.Error()); err != nil {
		logger.Error("failed to mark job failed", "err", err)
	}
}

func (r *Runner) run(ctx context.Context, job *model.Job) (*model.JobResults, error) {
	switch job.Type {
	case model.JobTypeDirectorySearch:
		return r.runDirectorySearch(ctx, job)
	case model.JobTypeRedditSearch:
		return r.runRedditSearch(ctx, job)
	case model.JobTypeEmailDiscovery:
		return r.runEmailDiscovery(ctx, job)
	default:
		return nil, fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (r *Runner) runDirectorySearch(ctx context.Context, job *model.Job) (*model.JobResults, error) {
	params := model.DirectorySearchParams{
		Query:      "DVD store",
		Location:   "United States",
		MaxResults: 100,
	}
	if err := decodeParams(job.Parameters, &params); err != nil {
		return nil, err
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 100
	}

	results := &model.JobResults{Stores: []model.Candidate{}}

	// Each directory gets half of the requested budget.
	perSource := params.MaxResults / 2
	yp, err := r.collector.SearchYellowPages(ctx, params.Query, params.Location, perSource)
	if err != nil {
		return nil, fmt.Errorf("yellow pages search: %w", err)
	}
	results.Stores = append(results.Stores, yp...)

	yelp, err := r.collector.SearchYelp(ctx, params.Query, params.Location, perSource)
	if err != nil {
		return nil, fmt.Errorf("yelp search: %w", err)
	}
	results.Stores = append(results.Stores, yelp...)

	r.persistCandidates(ctx, results)
	return results, nil
}

func (r *Runner) runRedditSearch(ctx context.Context, job *model.Job) (*model.JobResults, error) {
	params := model.RedditSearchParams{
		Query:    "DVD store recommendations",
		MaxPosts: 100,
	}
	if err := decodeParams(job.Parameters, &params); err != nil {
		return nil, err
	}

	found, err := r.collector.SearchReddit(ctx, params.Query, params.MaxPosts)
	if err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}

	results := &model.JobResults{Stores: found}
	if results.Stores == nil {
		results.Stores = []model.Candidate{}
	}
	r.persistCandidates(ctx, results)
	return results, nil
}

// persistCandidates inserts discovered candidates, counting only genuinely
// new rows. The (name, city) uniqueness constraint is the dedup mechanism:
// a duplicate insert fails with ErrStoreExists and is skipped without a
// prior existence check, so concurrent jobs cannot race in a duplicate.
func (r *Runner) persistCandidates(ctx context.Context, results *model.JobResults) {
	for _, candidate := range results.Stores {
		_, err := r.stores.Create(ctx, candidate.CreateRequest())
		switch {
		case err == nil:
			results.TotalFound++
		case errors.Is(err, data.ErrStoreExists):
			// Already known.
		default:
			r.logger.Warn("failed to store candidate", "name", candidate.Name, "err", err)
		}
	}
}

func (r *Runner) runEmailDiscovery(ctx context.Context, job *model.Job) (*model.JobResults, error) {
	var params model.EmailDiscoveryParams
	if err := decodeParams(job.Parameters, &params); err != nil {
		return nil, err
	}

	results := &model.JobResults{Stores: []model.Candidate{}}
	for _, storeID := range params.StoreIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.lookupStoreEmail(ctx, storeID, results); err != nil {
			return nil, err
		}

		// Pace lookups beyond what the client limiter enforces.
		if r.emailPause > 0 {
			if err := r.sleep(ctx, r.emailPause); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// lookupStoreEmail resolves one store's email. Per-store lookup failures are
// logged and skipped so a single dead domain cannot fail the whole job; only
// context cancellation propagates.
func (r *Runner) lookupStoreEmail(ctx context.Context, storeID string, results *model.JobResults) error {
	logger := r.logger.With("store_id", storeID)

	store, err := r.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, data.ErrStoreNotFound) {
			logger.Warn("store vanished before email lookup")
			return nil
		}
		return err
	}
	if store.Website == nil || *store.Website == "" {
		return nil
	}

	domain := domainFromWebsite(*store.Website)
	if domain == "" {
		return nil
	}

	search, err := r.emails.DomainSearch(ctx, domain, 5)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("email lookup failed", "domain", domain, "err", err)
		return nil
	}
	if len(search.Data.Emails) == 0 {
		return nil
	}

	// Hunter orders by confidence, best first.
	best := search.Data.Emails[0]
	confidence := float64(best.Confidence) / 100
	if err := r.stores.SetEmail(ctx, storeID, best.Value, confidence); err != nil {
		logger.Warn("failed to save discovered email", "err", err)
		return nil
	}
	results.CreditsUsed++
	return nil
}

// domainFromWebsite reduces a website URL to the bare domain Hunter expects.
func domainFromWebsite(website string) string {
	domain := strings.TrimSpace(website)
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.Index(domain, "/"); i >= 0 {
		domain = domain[:i]
	}
	return domain
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode job parameters: %w", err)
	}
	return nil
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
