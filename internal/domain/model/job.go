package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the type of search job to be executed.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeDirectorySearch scrapes the Yellow Pages and Yelp directories.
	JobTypeDirectorySearch JobType = "directory_search"
	// JobTypeRedditSearch extracts store names from Reddit posts.
	JobTypeRedditSearch JobType = "reddit_search"
	// JobTypeEmailDiscovery looks up emails for stored records via Hunter.io.
	JobTypeEmailDiscovery JobType = "email_discovery"

	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobType.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeDirectorySearch || t == JobTypeRedditSearch || t == JobTypeEmailDiscovery
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Terminal reports whether the status is final. Terminal jobs are never mutated again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether a status change is allowed. The lifecycle
// is strictly monotonic: pending -> running -> {completed | failed}.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Job represents a background search job with all its metadata and status information.
type Job struct {
	ID           string          `json:"id"                      db:"id"`
	Type         JobType         `json:"job_type"                db:"job_type"`
	Status       JobStatus       `json:"status"                  db:"status"`
	Parameters   json.RawMessage `json:"parameters"              db:"parameters"`
	Results      json.RawMessage `json:"results,omitempty"       db:"results"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	StoresFound  int             `json:"stores_found"            db:"stores_found"`
	CreditsUsed  int             `json:"credits_used"            db:"credits_used"`
	CreatedAt    time.Time       `json:"created_at"              db:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"  db:"completed_at"`
}

// CreateJobRequest represents a request to create a new job.
type CreateJobRequest struct {
	Type       JobType         `json:"job_type"`
	Parameters json.RawMessage `json:"parameters"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if len(r.Parameters) == 0 {
		return errors.New("parameters are required")
	}
	return nil
}

// JobsListOptions controls paging for listing jobs, newest first.
type JobsListOptions struct {
	Limit int
}

// DirectorySearchParams are the parameters of a directory_search job.
type DirectorySearchParams struct {
	Query      string `json:"query"`
	Location   string `json:"location"`
	MaxResults int    `json:"max_results"`
}

// RedditSearchParams are the parameters of a reddit_search job.
type RedditSearchParams struct {
	Query    string `json:"query"`
	MaxPosts int    `json:"max_posts"`
}

// EmailDiscoveryParams are the parameters of an email_discovery job.
// StoreIDs is resolved at job-creation time; an empty request expands to
// every store lacking an email but having a website.
type EmailDiscoveryParams struct {
	StoreIDs []string `json:"store_ids"`
}

// JobResults summarises what a completed search job produced.
type JobResults struct {
	Stores      []Candidate `json:"stores"`
	TotalFound  int         `json:"total_found"`
	CreditsUsed int         `json:"credits_used"`
}

// Candidate is a store record discovered by a collector before it is
// deduplicated against the repository. Heuristic sources (Reddit) carry
// only name and provenance.
type Candidate struct {
	Name      string      `json:"name"`
	Address   *string     `json:"address,omitempty"`
	City      *string     `json:"city,omitempty"`
	Phone     *string     `json:"phone,omitempty"`
	Website   *string     `json:"website,omitempty"`
	Source    StoreSource `json:"source"`
	SourceURL *string     `json:"source_url,omitempty"`
	Notes     *string     `json:"notes,omitempty"`
}

// CreateRequest converts a candidate into a store create request.
func (c Candidate) CreateRequest() *CreateStoreRequest {
	return &CreateStoreRequest{
		Name:      strings.TrimSpace(c.Name),
		Address:   c.Address,
		City:      c.City,
		Phone:     c.Phone,
		Website:   c.Website,
		Source:    c.Source,
		SourceURL: c.SourceURL,
		Notes:     c.Notes,
	}
}
