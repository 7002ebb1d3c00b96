// Package api exposes the analytics operations over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/searchlog"
	"github.com/abhishek2316/git-complexity-analyzer/internal/service"
)

// Handler is the container for API dependencies.
type Handler struct {
	svc      *service.Service
	recorder *searchlog.Recorder
	logger   *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(svc *service.Service, recorder *searchlog.Recorder, logger *slog.Logger) http.Handler {
	h := &Handler{
		svc:      svc,
		recorder: recorder,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/api/analytics", func(r chi.Router) {
		r.Get("/user/{username}", h.getAccountAnalytics)
		r.Post("/user/{username}/refresh", h.refreshAccountAnalytics)
		r.Get("/repository/{owner}/{name}", h.getRepositoryAnalytics)
		r.Post("/repository/{owner}/{name}/refresh", h.refreshRepositoryAnalytics)
		r.Post("/users/compare", h.compareAccounts)
		r.Post("/repositories/compare", h.compareRepositories)
		r.Get("/repositories/trending", h.getTrendingRepositories)
		r.Get("/repositories/language/{language}", h.getRepositoriesByLanguage)
		r.Get("/dashboard", h.getDashboard)
		r.Post("/search", h.search)
		r.Get("/search/stats", h.getSearchStats)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getAccountAnalytics handles GET /api/analytics/user/{username}.
func (h *Handler) getAccountAnalytics(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	result, err := h.svc.GetAccountAnalytics(r.Context(), username)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to build account analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// refreshAccountAnalytics handles POST /api/analytics/user/{username}/refresh.
func (h *Handler) refreshAccountAnalytics(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	result, err := h.svc.RefreshAccountAnalytics(r.Context(), username)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to refresh account analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// getRepositoryAnalytics handles GET /api/analytics/repository/{owner}/{name}.
func (h *Handler) getRepositoryAnalytics(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	result, err := h.svc.GetRepositoryAnalytics(r.Context(), owner, name)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to build repository analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// refreshRepositoryAnalytics handles POST /api/analytics/repository/{owner}/{name}/refresh.
func (h *Handler) refreshRepositoryAnalytics(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	result, err := h.svc.RefreshRepositoryAnalytics(r.Context(), owner, name)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to refresh repository analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

type compareAccountsRequest struct {
	Usernames []string `json:"usernames"`
}

// compareAccounts handles POST /api/analytics/users/compare.
func (h *Handler) compareAccounts(w http.ResponseWriter, r *http.Request) {
	var req compareAccountsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.svc.CompareAccounts(r.Context(), req.Usernames)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to compare accounts")
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

type compareRepositoriesRequest struct {
	Repositories []service.RepoKey `json:"repositories"`
}

// compareRepositories handles POST /api/analytics/repositories/compare.
func (h *Handler) compareRepositories(w http.ResponseWriter, r *http.Request) {
	var req compareRepositoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.svc.CompareRepositories(r.Context(), req.Repositories)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to compare repositories")
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}

// getTrendingRepositories handles GET /api/analytics/repositories/trending.
// Query parameters: days (default 7), minStars (default 0), limit (default 10).
func (h *Handler) getTrendingRepositories(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'days' parameter")
		return
	}
	minStars, err := queryInt(r, "minStars", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'minStars' parameter")
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil || limit > 100 {
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 100.")
		return
	}

	repos, err := h.svc.ListTrendingRepositories(r.Context(), days, minStars, limit)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to list trending repositories")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getRepositoriesByLanguage handles GET /api/analytics/repositories/language/{language}.
func (h *Handler) getRepositoriesByLanguage(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")

	repos, err := h.svc.ListRepositoriesByLanguage(r.Context(), language)
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to list repositories by language")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getDashboard handles GET /api/analytics/dashboard.
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.GetDashboardSummary(r.Context())
	if err != nil {
		h.respondWithServiceError(w, err, "Failed to build dashboard summary")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

type searchRequest struct {
	URL string `json:"url"`
}

// search handles POST /api/analytics/search. The submitted GitHub URL is
// classified, recorded in the audit trail, and dispatched to the matching
// analytics operation.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: 'url' is required")
		return
	}

	entry := h.recorder.LogSearch(r.Context(), req.URL, r.RemoteAddr, r.UserAgent())
	c := searchlog.Classify(req.URL)

	switch c.Type {
	case model.SearchTypeUserProfile:
		result, err := h.svc.GetAccountAnalytics(r.Context(), c.Username)
		if err != nil {
			h.recorder.Complete(r.Context(), entry, false)
			h.respondWithServiceError(w, err, "Failed to build account analytics")
			return
		}
		h.recorder.Complete(r.Context(), entry, true)
		respondWithJSON(w, http.StatusOK, result)
	case model.SearchTypeRepository:
		result, err := h.svc.GetRepositoryAnalytics(r.Context(), c.Username, c.Repo)
		if err != nil {
			h.recorder.Complete(r.Context(), entry, false)
			h.respondWithServiceError(w, err, "Failed to build repository analytics")
			return
		}
		h.recorder.Complete(r.Context(), entry, true)
		respondWithJSON(w, http.StatusOK, result)
	default:
		h.recorder.Complete(r.Context(), entry, false)
		respondWithError(w, http.StatusBadRequest, "URL is not a GitHub profile or repository")
	}
}

// getSearchStats handles GET /api/analytics/search/stats?days=N.
func (h *Handler) getSearchStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'days' parameter")
		return
	}

	stats, err := h.recorder.BuildSearchAnalytics(r.Context(), days)
	if err != nil {
		h.logger.Error("Failed to build search analytics", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// respondWithServiceError maps service errors onto HTTP statuses.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case apperrors.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, "Not found on GitHub")
	case apperrors.Transient(err):
		h.logger.Error(logMsg, "error", err)
		respondWithError(w, http.StatusBadGateway, "Upstream GitHub error")
	default:
		h.logger.Error(logMsg, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
