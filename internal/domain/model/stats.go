package model

import "encoding/json"

// Stats aggregates counts across stores and jobs for the dashboard endpoint.
// CreditsRemaining is the cached Hunter.io balance; "unknown" when the
// provider lookup fails.
type Stats struct {
	TotalStores      int             `json:"total_stores"`
	VerifiedStores   int             `json:"verified_stores"`
	StoresWithEmails int             `json:"stores_with_emails"`
	ActiveJobs       int             `json:"active_jobs"`
	CreditsRemaining json.RawMessage `json:"credits_remaining"`
	RecentJobs       []*Job          `json:"recent_jobs"`
}

// StoreCounts groups the store aggregates computed in one repository call.
type StoreCounts struct {
	Total      int `db:"total"`
	Verified   int `db:"verified"`
	WithEmails int `db:"with_emails"`
}
