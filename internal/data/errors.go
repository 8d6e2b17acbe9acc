package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrStoreNotFound is returned when a store record is not found.
	ErrStoreNotFound = errors.New("store not found")
	// ErrStoreExists is returned when an insert collides with the
	// (name, city) uniqueness constraint. Job post-processing treats this
	// as the dedup signal and drops the candidate.
	ErrStoreExists = errors.New("store with this name and city already exists")

	// ErrJobNotFound is returned when a job record is not found.
	ErrJobNotFound = errors.New("job not found")
)
