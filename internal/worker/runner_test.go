package worker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/domain/model"
	"github.com/discfinder/discfinder/internal/hunter"
	"github.com/discfinder/discfinder/internal/testutil"
)

// fakeStores is an in-memory StoreWriter with the same (name, city) dedup
// behavior as the real repository.
type fakeStores struct {
	mu     sync.Mutex
	stores map[string]*model.Store
	emails map[string]string
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		stores: make(map[string]*model.Store),
		emails: make(map[string]string),
	}
}

func (f *fakeStores) key(name string, city *string) string {
	c := ""
	if city != nil {
		c = strings.ToLower(*city)
	}
	return strings.ToLower(name) + "|" + c
}

func (f *fakeStores) Create(_ context.Context, req *model.CreateStoreRequest) (*model.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := f.key(req.Name, req.City)
	for _, s := range f.stores {
		if f.key(s.Name, s.City) == k {
			return nil, data.ErrStoreExists
		}
	}
	store := &model.Store{
		ID:      "store-" + req.Name,
		Name:    req.Name,
		City:    req.City,
		Website: req.Website,
		Source:  req.Source,
	}
	f.stores[store.ID] = store
	return store, nil
}

func (f *fakeStores) GetByID(_ context.Context, id string) (*model.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[id]; ok {
		return s, nil
	}
	return nil, data.ErrStoreNotFound
}

func (f *fakeStores) SetEmail(_ context.Context, id, email string, confidence float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[id]
	if !ok {
		return data.ErrStoreNotFound
	}
	s.Email = &email
	s.EmailConfidence = &confidence
	f.emails[id] = email
	return nil
}

// fakeJobs is an in-memory JobStore with guarded transitions.
type fakeJobs struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]*model.Job)}
}

func (f *fakeJobs) add(id string, jobType model.JobType, params string) *model.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := &model.Job{
		ID:         id,
		Type:       jobType,
		Status:     model.JobStatusPending,
		Parameters: json.RawMessage(params),
	}
	f.jobs[id] = job
	return job
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[id]; ok {
		copied := *j
		return &copied, nil
	}
	return nil, data.ErrJobNotFound
}

func (f *fakeJobs) transition(id string, from, to model.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return data.ErrJobNotFound
	}
	if j.Status != from {
		return data.ErrJobConflict
	}
	j.Status = to
	return nil
}

func (f *fakeJobs) MarkRunning(_ context.Context, id string) error {
	return f.transition(id, model.JobStatusPending, model.JobStatusRunning)
}

func (f *fakeJobs) MarkCompleted(
	_ context.Context,
	id string,
	results json.RawMessage,
	storesFound, creditsUsed int,
) error {
	if err := f.transition(id, model.JobStatusRunning, model.JobStatusCompleted); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.jobs[id]
	j.Results = results
	j.StoresFound = storesFound
	j.CreditsUsed = creditsUsed
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, id, errMsg string) error {
	if err := f.transition(id, model.JobStatusRunning, model.JobStatusFailed); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].ErrorMessage = &errMsg
	return nil
}

// fakeCollector returns canned candidates.
type fakeCollector struct {
	yellowPages []model.Candidate
	yelp        []model.Candidate
	reddit      []model.Candidate
	err         error

	mu       sync.Mutex
	inFlight int
	maxSeen  int
}

func (f *fakeCollector) track() func() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}
}

func (f *fakeCollector) SearchYellowPages(
	_ context.Context, _, _ string, _ int,
) ([]model.Candidate, error) {
	defer f.track()()
	time.Sleep(10 * time.Millisecond)
	return f.yellowPages, f.err
}

func (f *fakeCollector) SearchYelp(_ context.Context, _, _ string, _ int) ([]model.Candidate, error) {
	return f.yelp, f.err
}

func (f *fakeCollector) SearchReddit(_ context.Context, _ string, _ int) ([]model.Candidate, error) {
	return f.reddit, f.err
}

// fakeEmails maps domains to canned Hunter responses.
type fakeEmails struct {
	byDomain map[string]*hunter.DomainSearchResult
	err      error
	calls    []string
}

func (f *fakeEmails) DomainSearch(
	_ context.Context, domain string, _ int,
) (*hunter.DomainSearchResult, error) {
	f.calls = append(f.calls, domain)
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.byDomain[domain]; ok {
		return res, nil
	}
	return &hunter.DomainSearchResult{}, nil
}

func domainResult(email string, confidence int) *hunter.DomainSearchResult {
	var res hunter.DomainSearchResult
	res.Data.Emails = []hunter.DomainEmail{{Value: email, Confidence: confidence}}
	return &res
}

func runAndWait(t *testing.T, r *Runner, jobIDs ...string) {
	t.Helper()
	for _, id := range jobIDs {
		r.Dispatch(id)
	}
	require.NoError(t, r.Shutdown(context.Background()))
}

func TestRunner_DirectorySearch(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	collector := &fakeCollector{
		yellowPages: []model.Candidate{
			{Name: "Disc Traders", City: testutil.StringPtr("Grand Rapids"), Source: model.SourceYellowPages},
			{Name: "Movie Madness", City: testutil.StringPtr("Portland"), Source: model.SourceYellowPages},
		},
		yelp: []model.Candidate{
			// Duplicate of a Yellow Pages result; must not be double counted.
			{Name: "disc traders", City: testutil.StringPtr("grand rapids"), Source: model.SourceYelp},
			{Name: "Scarecrow Video", City: testutil.StringPtr("Seattle"), Source: model.SourceYelp},
		},
	}
	jobs.add("job-1", model.JobTypeDirectorySearch, `{"query":"dvd store","location":"US","max_results":50}`)

	r := NewRunner(stores, jobs, collector, &fakeEmails{}, Options{Concurrency: 2})
	runAndWait(t, r, "job-1")

	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 3, job.StoresFound)
	assert.Len(t, stores.stores, 3)

	var results model.JobResults
	require.NoError(t, json.Unmarshal(job.Results, &results))
	assert.Equal(t, 3, results.TotalFound)
	assert.Len(t, results.Stores, 4)
}

func TestRunner_RedditSearch(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	collector := &fakeCollector{
		reddit: []model.Candidate{
			{Name: "Vintage DVD Store", Source: model.SourceReddit},
		},
	}
	jobs.add("job-1", model.JobTypeRedditSearch, `{"query":"dvd stores","max_posts":10}`)

	r := NewRunner(stores, jobs, collector, &fakeEmails{}, Options{})
	runAndWait(t, r, "job-1")

	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.StoresFound)
}

func TestRunner_CollectorTransportErrorFailsJob(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	collector := &fakeCollector{err: assert.AnError}
	jobs.add("job-1", model.JobTypeDirectorySearch, `{}`)

	r := NewRunner(stores, jobs, collector, &fakeEmails{}, Options{})
	runAndWait(t, r, "job-1")

	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "yellow pages search")
}

// Blocked scrape targets surface as empty collector results, not errors, so
// the job completes with nothing found.
func TestRunner_EmptyCollectorResultsCompleteJob(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	collector := &fakeCollector{}
	jobs.add("job-1", model.JobTypeDirectorySearch, `{}`)

	r := NewRunner(stores, jobs, collector, &fakeEmails{}, Options{})
	runAndWait(t, r, "job-1")

	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.StoresFound)
	assert.Nil(t, job.ErrorMessage)
}

func TestRunner_EmailDiscovery(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()

	withSite, err := stores.Create(context.Background(), &model.CreateStoreRequest{
		Name:    "Disc Traders",
		Website: testutil.StringPtr("https://www.disctraders.example/about"),
	})
	require.NoError(t, err)
	noSite, err := stores.Create(context.Background(), &model.CreateStoreRequest{Name: "No Site"})
	require.NoError(t, err)
	deadDomain, err := stores.Create(context.Background(), &model.CreateStoreRequest{
		Name:    "Dead Domain",
		Website: testutil.StringPtr("http://nowhere.example"),
	})
	require.NoError(t, err)

	emails := &fakeEmails{
		byDomain: map[string]*hunter.DomainSearchResult{
			"disctraders.example": domainResult("info@disctraders.example", 92),
		},
	}

	params, err := json.Marshal(model.EmailDiscoveryParams{
		StoreIDs: []string{withSite.ID, noSite.ID, deadDomain.ID, "missing-id"},
	})
	require.NoError(t, err)
	jobs.add("job-1", model.JobTypeEmailDiscovery, string(params))

	r := NewRunner(stores, jobs, &fakeCollector{}, emails, Options{})
	runAndWait(t, r, "job-1")

	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	// Only the store whose domain returned an email costs a credit.
	assert.Equal(t, 1, job.CreditsUsed)
	assert.Equal(t, 0, job.StoresFound)

	// URL is reduced to the bare domain before lookup.
	assert.Equal(t, []string{"disctraders.example", "nowhere.example"}, emails.calls)

	updated, err := stores.GetByID(context.Background(), withSite.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Email)
	assert.Equal(t, "info@disctraders.example", *updated.Email)
	require.NotNil(t, updated.EmailConfidence)
	assert.InDelta(t, 0.92, *updated.EmailConfidence, 0.0001)
}

func TestRunner_EmailLookupErrorSkipsStore(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()

	store, err := stores.Create(context.Background(), &model.CreateStoreRequest{
		Name:    "Disc Traders",
		Website: testutil.StringPtr("https://disctraders.example"),
	})
	require.NoError(t, err)

	emails := &fakeEmails{err: hunter.ErrRateLimited}
	params, err := json.Marshal(model.EmailDiscoveryParams{StoreIDs: []string{store.ID}})
	require.NoError(t, err)
	jobs.add("job-1", model.JobTypeEmailDiscovery, string(params))

	r := NewRunner(stores, jobs, &fakeCollector{}, emails, Options{})
	runAndWait(t, r, "job-1")

	// The job still completes; the store simply keeps no email.
	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.CreditsUsed)
	assert.Empty(t, stores.emails)
}

func TestRunner_AlreadyClaimedJobIsSkipped(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	job := jobs.add("job-1", model.JobTypeRedditSearch, `{}`)
	job.Status = model.JobStatusRunning

	r := NewRunner(stores, jobs, &fakeCollector{}, &fakeEmails{}, Options{})
	runAndWait(t, r, "job-1")

	got, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, got.Status)
}

func TestRunner_ConcurrencyBound(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	collector := &fakeCollector{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		jobs.add(id, model.JobTypeDirectorySearch, `{}`)
	}

	r := NewRunner(stores, jobs, collector, &fakeEmails{}, Options{Concurrency: 2})
	runAndWait(t, r, "a", "b", "c", "d", "e")

	assert.LessOrEqual(t, collector.maxSeen, 2)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		job, err := jobs.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
	}
}

func TestRunner_DispatchAfterShutdownIsIgnored(t *testing.T) {
	stores := newFakeStores()
	jobs := newFakeJobs()
	jobs.add("job-1", model.JobTypeRedditSearch, `{}`)

	r := NewRunner(stores, jobs, &fakeCollector{}, &fakeEmails{}, Options{})
	require.NoError(t, r.Shutdown(context.Background()))

	r.Dispatch("job-1")
	time.Sleep(20 * time.Millisecond)

	job, err := jobs.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, job.Status)
}

func TestDomainFromWebsite(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.disctraders.example/about", "disctraders.example"},
		{"http://disctraders.example", "disctraders.example"},
		{"www.disctraders.example/shop/dvds", "disctraders.example"},
		{"disctraders.example", "disctraders.example"},
		{"  https://disctraders.example  ", "disctraders.example"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domainFromWebsite(tt.in), tt.in)
	}
}
