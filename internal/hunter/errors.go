package hunter

import (
	"errors"
	"fmt"
)

// Sentinel errors for the well-known Hunter.io failure modes.
var (
	// ErrUnauthorized means the API key was rejected (HTTP 401).
	ErrUnauthorized = errors.New("hunter: invalid API key")
	// ErrRateLimited means Hunter refused the call for quota or credit
	// reasons (HTTP 403).
	ErrRateLimited = errors.New("hunter: rate limit exceeded or insufficient credits")
	// ErrTimeout means the request exceeded the configured client timeout.
	ErrTimeout = errors.New("hunter: request timed out")
)

// UpstreamError captures a non-2xx Hunter response that is not one of the
// sentinel cases above.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("hunter: API request failed with status %d: %s", e.Status, e.Body)
}
