// Package httpx provides the HTTP handlers and router for the discfinder API.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/domain/model"
)

// StoresService is the service surface the store handlers depend on.
type StoresService interface {
	Create(ctx context.Context, req *model.CreateStoreRequest) (*model.Store, error)
	GetByID(ctx context.Context, id string) (*model.Store, error)
	List(ctx context.Context, opts model.StoresListOptions) ([]*model.Store, error)
	Update(ctx context.Context, id string, req model.UpdateStoreRequest) (*model.Store, error)
	Verify(ctx context.Context, id string) (*model.Store, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// StoreHandlers provides HTTP handlers for store CRUD.
type StoreHandlers struct {
	Svc StoresService
}

// Create handles POST /api/stores.
func (h *StoreHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateStoreRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	store, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, data.ErrStoreExists) {
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "store_exists", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "create_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, store)
}

// List handles GET /api/stores with paging and filter query parameters.
func (h *StoreHandlers) List(w http.ResponseWriter, r *http.Request) {
	opts := model.StoresListOptions{
		Skip:     parseIntQuery(r, "skip", 0),
		Limit:    parseIntQuery(r, "limit", 100),
		Search:   parseOptionalString(r, "search"),
		State:    parseOptionalString(r, "state"),
		Verified: parseOptionalBool(r, "verified"),
	}

	stores, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}
	if stores == nil {
		stores = []*model.Store{}
	}
	WriteJSON(w, http.StatusOK, stores)
}

// GetByID handles GET /api/stores/{id}.
func (h *StoreHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	store, err := h.Svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreErr(w, err, "get_failed")
		return
	}
	WriteJSON(w, http.StatusOK, store)
}

// Update handles PUT /api/stores/{id}.
func (h *StoreHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStoreRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	store, err := h.Svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrStoreNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "store_not_found", Err: err})
		case errors.Is(err, data.ErrStoreExists):
			WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "store_exists", Err: err})
		default:
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "update_failed", Err: err})
		}
		return
	}
	WriteJSON(w, http.StatusOK, store)
}

// Verify handles POST /api/stores/{id}/verify.
func (h *StoreHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	store, err := h.Svc.Verify(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreErr(w, err, "verify_failed")
		return
	}
	WriteJSON(w, http.StatusOK, store)
}

// Delete handles DELETE /api/stores/{id}.
func (h *StoreHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "delete_failed", Err: err})
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "store_not_found",
			Err:     data.ErrStoreNotFound,
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Store deleted successfully"})
}

func writeStoreErr(w http.ResponseWriter, err error, fallbackCode string) {
	if errors.Is(err, data.ErrStoreNotFound) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "store_not_found", Err: err})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: fallbackCode, Err: err})
}
