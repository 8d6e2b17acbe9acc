package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/discfinder/discfinder/internal/hunter"
)

// HunterProvider is the service surface the Hunter handlers depend on.
type HunterProvider interface {
	Account(ctx context.Context) (*hunter.AccountInfo, error)
	EmailCount(ctx context.Context, domain string) (*hunter.EmailCountResult, error)
}

// HunterHandlers exposes Hunter.io account and email-count lookups.
type HunterHandlers struct {
	Svc HunterProvider
}

// Account handles GET /api/hunter/account.
func (h *HunterHandlers) Account(w http.ResponseWriter, r *http.Request) {
	info, err := h.Svc.Account(r.Context())
	if err != nil {
		writeHunterErr(w, err)
		return
	}

	remaining := info.Data.Requests.Searches.Available - info.Data.Requests.Searches.Used
	WriteJSON(w, http.StatusOK, map[string]any{
		"account_info":      info.Data,
		"credits_remaining": remaining,
		"plan_name":         info.Data.PlanName,
	})
}

// EmailCount handles GET /api/hunter/email-count?domain=example.com. The
// underlying Hunter call is free, so this endpoint is safe to poll.
func (h *HunterHandlers) EmailCount(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_query",
			Err:     errors.New("domain query parameter is required"),
		})
		return
	}

	res, err := h.Svc.EmailCount(r.Context(), domain)
	if err != nil {
		writeHunterErr(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res.Data)
}

// writeHunterErr translates Hunter client failures onto the API surface the
// same way the upstream statuses arrived: bad key 401, quota 429, slow 408.
func writeHunterErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hunter.ErrUnauthorized):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "hunter_unauthorized", Err: err})
	case errors.Is(err, hunter.ErrRateLimited):
		WriteError(w, ErrorParams{Code: http.StatusTooManyRequests, ErrCode: "hunter_rate_limited", Err: err})
	case errors.Is(err, hunter.ErrTimeout):
		WriteError(w, ErrorParams{Code: http.StatusRequestTimeout, ErrCode: "hunter_timeout", Err: err})
	default:
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "hunter_failed", Err: err})
	}
}
