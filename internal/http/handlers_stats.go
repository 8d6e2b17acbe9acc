package httpx

import (
	"context"
	"net/http"

	"github.com/discfinder/discfinder/internal/domain/model"
)

// StatsProvider assembles the dashboard statistics snapshot.
type StatsProvider interface {
	Snapshot(ctx context.Context) (*model.Stats, error)
}

// StatsHandlers provides the HTTP handler for GET /api/stats.
type StatsHandlers struct {
	Svc StatsProvider
}

// Get handles GET /api/stats.
func (h *StatsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Snapshot(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "stats_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
