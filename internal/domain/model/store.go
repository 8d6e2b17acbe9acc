// Package model defines the core data types and structures used throughout the discfinder system.
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxStoreNameLen = 255

// StoreSource identifies where a store record came from.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type StoreSource string

const (
	// SourceManual marks operator-entered records.
	SourceManual StoreSource = "manual"
	// SourceDirectory marks records discovered via a generic directory search.
	SourceDirectory StoreSource = "directory"
	// SourceYellowPages marks records scraped from Yellow Pages.
	SourceYellowPages StoreSource = "yellow_pages"
	// SourceYelp marks records scraped from Yelp.
	SourceYelp StoreSource = "yelp"
	// SourceReddit marks records extracted from Reddit posts.
	SourceReddit StoreSource = "reddit"
)

// Valid returns true if the StoreSource is valid.
func (s StoreSource) Valid() bool {
	switch s {
	case SourceManual, SourceDirectory, SourceYellowPages, SourceYelp, SourceReddit:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for StoreSource.
// An empty value defaults to manual, matching the create-store API contract.
func (s *StoreSource) UnmarshalText(text []byte) error {
	v := StoreSource(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		*s = SourceManual
		return nil
	}
	if !v.Valid() {
		return errors.New("invalid store source: " + string(text))
	}
	*s = v
	return nil
}

// Store represents a DVD store record.
type Store struct {
	ID              string      `json:"id"                         db:"id"`
	Name            string      `json:"name"                       db:"name"`
	Address         *string     `json:"address,omitempty"          db:"address"`
	City            *string     `json:"city,omitempty"             db:"city"`
	State           *string     `json:"state,omitempty"            db:"state"`
	Phone           *string     `json:"phone,omitempty"            db:"phone"`
	Website         *string     `json:"website,omitempty"          db:"website"`
	Email           *string     `json:"email,omitempty"            db:"email"`
	EmailConfidence *float64    `json:"email_confidence,omitempty" db:"email_confidence"`
	Source          StoreSource `json:"source"                     db:"source"`
	SourceURL       *string     `json:"source_url,omitempty"       db:"source_url"`
	Notes           *string     `json:"notes,omitempty"            db:"notes"`
	Verified        bool        `json:"verified"                   db:"verified"`
	CreatedAt       time.Time   `json:"created_at"                 db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"                 db:"updated_at"`
}

// CreateStoreRequest represents parameters to create a Store.
type CreateStoreRequest struct {
	Name      string      `json:"name"`
	Address   *string     `json:"address,omitempty"`
	City      *string     `json:"city,omitempty"`
	State     *string     `json:"state,omitempty"`
	Phone     *string     `json:"phone,omitempty"`
	Website   *string     `json:"website,omitempty"`
	Email     *string     `json:"email,omitempty"`
	Source    StoreSource `json:"source,omitempty"`
	SourceURL *string     `json:"source_url,omitempty"`
	Notes     *string     `json:"notes,omitempty"`
}

// Validate validates CreateStoreRequest.
func (r *CreateStoreRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxStoreNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if r.Source == "" {
		r.Source = SourceManual
	}
	if !r.Source.Valid() {
		return errors.New("invalid source")
	}
	return nil
}

// UpdateStoreRequest represents parameters to partially update a Store.
// Only non-nil fields are applied.
type UpdateStoreRequest struct {
	Name            *string      `json:"name,omitempty"`
	Address         *string      `json:"address,omitempty"`
	City            *string      `json:"city,omitempty"`
	State           *string      `json:"state,omitempty"`
	Phone           *string      `json:"phone,omitempty"`
	Website         *string      `json:"website,omitempty"`
	Email           *string      `json:"email,omitempty"`
	EmailConfidence *float64     `json:"email_confidence,omitempty"`
	Source          *StoreSource `json:"source,omitempty"`
	SourceURL       *string      `json:"source_url,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateStoreRequest.
func (r *UpdateStoreRequest) HasUpdates() bool {
	return r.Name != nil || r.Address != nil || r.City != nil || r.State != nil ||
		r.Phone != nil || r.Website != nil || r.Email != nil ||
		r.EmailConfidence != nil || r.Source != nil || r.SourceURL != nil ||
		r.Notes != nil
}

// Validate validates UpdateStoreRequest, ensuring at least one field is set and values are sane.
func (r *UpdateStoreRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if n == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(n) > maxStoreNameLen {
			return errors.New("name cannot exceed 255 characters")
		}
	}
	if r.Source != nil && !r.Source.Valid() {
		return errors.New("invalid source")
	}
	if r.EmailConfidence != nil && (*r.EmailConfidence < 0 || *r.EmailConfidence > 1) {
		return errors.New("email_confidence must be between 0 and 1")
	}
	return nil
}

// StoresListOptions controls paging and filtering for listing stores.
// Notes:
// - Search matches name, city and address via ILIKE substring.
// - State and Verified match exactly.
type StoresListOptions struct {
	Skip     int
	Limit    int
	Search   *string
	State    *string
	Verified *bool
}
