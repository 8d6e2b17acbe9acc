package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/domain/model"
)

// JobsService is the service surface the job and search handlers depend on.
type JobsService interface {
	StartDirectorySearch(ctx context.Context, params model.DirectorySearchParams) (*model.Job, error)
	StartRedditSearch(ctx context.Context, params model.RedditSearchParams) (*model.Job, error)
	StartEmailDiscovery(ctx context.Context, storeIDs []string) (*model.Job, int, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts model.JobsListOptions) ([]*model.Job, error)
}

// JobHandlers provides HTTP handlers for job inspection and search triggers.
type JobHandlers struct {
	Svc JobsService
}

// List handles GET /api/jobs.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Svc.List(r.Context(), model.JobsListOptions{
		Limit: parseIntQuery(r, "limit", 50),
	})
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// GetByID handles GET /api/jobs/{id}.
func (h *JobHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "job_not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "get_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// StartDirectorySearch handles POST /api/search/directory.
func (h *JobHandlers) StartDirectorySearch(w http.ResponseWriter, r *http.Request) {
	params := model.DirectorySearchParams{}
	if r.ContentLength != 0 {
		if !DecodeJSON(w, r, &params) {
			return
		}
	}

	job, err := h.Svc.StartDirectorySearch(r.Context(), params)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "start_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"job_id": job.ID,
		"status": "started",
	})
}

// StartRedditSearch handles POST /api/search/reddit.
func (h *JobHandlers) StartRedditSearch(w http.ResponseWriter, r *http.Request) {
	params := model.RedditSearchParams{}
	if r.ContentLength != 0 {
		if !DecodeJSON(w, r, &params) {
			return
		}
	}

	job, err := h.Svc.StartRedditSearch(r.Context(), params)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "start_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"job_id": job.ID,
		"status": "started",
	})
}

// StartEmailDiscovery handles POST /api/search/emails. An empty or omitted
// store_ids list targets every store with a website and no email.
func (h *JobHandlers) StartEmailDiscovery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreIDs []string `json:"store_ids"`
	}
	if r.ContentLength != 0 {
		if !DecodeJSON(w, r, &body) {
			return
		}
	}

	job, count, err := h.Svc.StartEmailDiscovery(r.Context(), body.StoreIDs)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "start_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"job_id":            job.ID,
		"status":            "started",
		"stores_to_process": count,
	})
}
