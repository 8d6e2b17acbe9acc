package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds the services the HTTP router needs.
type RouterServices struct {
	Stores StoresService
	Jobs   JobsService
	Stats  StatsProvider
	Hunter HunterProvider
	Logger *slog.Logger
}

// NewRouter creates the API router with CORS and request logging applied.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	registerStoreRoutes(mux, &StoreHandlers{Svc: services.Stores})
	registerJobRoutes(mux, &JobHandlers{Svc: services.Jobs})
	registerStatsRoutes(mux, &StatsHandlers{Svc: services.Stats})
	registerHunterRoutes(mux, &HunterHandlers{Svc: services.Hunter})

	mux.HandleFunc("GET /api/{$}", rootHandler)
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	handler := RequestLogging(services.Logger)(mux)
	return CORS()(handler)
}

func registerStoreRoutes(mux *http.ServeMux, h *StoreHandlers) {
	mux.HandleFunc("POST /api/stores", h.Create)
	mux.HandleFunc("GET /api/stores", h.List)
	mux.HandleFunc("GET /api/stores/{id}", h.GetByID)
	mux.HandleFunc("PUT /api/stores/{id}", h.Update)
	mux.HandleFunc("DELETE /api/stores/{id}", h.Delete)
	mux.HandleFunc("POST /api/stores/{id}/verify", h.Verify)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("GET /api/jobs", h.List)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetByID)
	mux.HandleFunc("POST /api/search/directory", h.StartDirectorySearch)
	mux.HandleFunc("POST /api/search/reddit", h.StartRedditSearch)
	mux.HandleFunc("POST /api/search/emails", h.StartEmailDiscovery)
}

func registerStatsRoutes(mux *http.ServeMux, h *StatsHandlers) {
	mux.HandleFunc("GET /api/stats", h.Get)
}

func registerHunterRoutes(mux *http.ServeMux, h *HunterHandlers) {
	mux.HandleFunc("GET /api/hunter/account", h.Account)
	mux.HandleFunc("GET /api/hunter/email-count", h.EmailCount)
}

func rootHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"message": "DVD Store Directory API"})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
