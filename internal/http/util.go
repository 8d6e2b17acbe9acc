package httpx

import (
	"net/http"
	"strconv"
)

// parseIntQuery returns the named query parameter as an int, or def when
// absent or malformed.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// parseOptionalString returns a pointer to the named query parameter, or nil
// when absent.
func parseOptionalString(r *http.Request, name string) *string {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// parseOptionalBool returns a pointer to the named boolean query parameter,
// or nil when absent or malformed.
func parseOptionalBool(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}
