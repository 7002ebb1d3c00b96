package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek2316/git-complexity-analyzer/internal/analytics"
	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/ingest"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/searchlog"
	"github.com/abhishek2316/git-complexity-analyzer/internal/service"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

// stubRemote serves canned accounts; anything else is a remote not-found.
type stubRemote struct {
	accounts map[string]*model.Account
}

func (s *stubRemote) GetUser(_ context.Context, username string) (*model.Account, error) {
	if account, ok := s.accounts[username]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, fmt.Errorf("user %s: %w", username, apperrors.ErrRemoteNotFound)
}

func (s *stubRemote) ListUserRepositories(_ context.Context, _ string) ([]model.Repository, error) {
	return nil, nil
}

func (s *stubRemote) GetRepository(_ context.Context, owner, name string) (*model.Repository, error) {
	return nil, fmt.Errorf("repository %s/%s: %w", owner, name, apperrors.ErrRemoteNotFound)
}

func (s *stubRemote) ListCommitsPage(_ context.Context, _, _ string, _, _ int) ([]model.Commit, error) {
	return nil, nil
}

func (s *stubRemote) ListContributors(_ context.Context, _, _ string) ([]model.Contributor, error) {
	return nil, nil
}

func setupTestRouter(t *testing.T) (http.Handler, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	mem := store.NewMemory()

	remote := &stubRemote{accounts: map[string]*model.Account{
		"octocat": {Username: "octocat", Followers: 100},
	}}
	coordinator := ingest.NewCoordinator(mem, remote, logger)
	aggregator := analytics.NewAggregator(mem, logger)
	svc, err := service.New(coordinator, aggregator, mem, 16, time.Minute, logger)
	require.NoError(t, err)
	recorder := searchlog.NewRecorder(mem, logger)

	return NewRouter(svc, recorder, logger), mem
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_GetAccountAnalytics(t *testing.T) {
	router, _ := setupTestRouter(t)

	t.Run("known user", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/analytics/user/octocat", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var result model.AccountAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "octocat", result.Username)
		assert.Equal(t, 100, result.Followers)
	})

	t.Run("unknown user maps to 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/analytics/user/ghost", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouter_CompareAccounts(t *testing.T) {
	router, _ := setupTestRouter(t)

	t.Run("empty list maps to 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/analytics/users/compare", `{"usernames":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/analytics/users/compare", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unresolvable usernames are omitted", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/analytics/users/compare", `{"usernames":["octocat","ghost"]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var results map[string]model.AccountAnalytics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
		assert.Contains(t, results, "octocat")
		assert.NotContains(t, results, "ghost")
	})
}

func TestRouter_Trending(t *testing.T) {
	router, mem := setupTestRouter(t)
	require.NoError(t, mem.UpsertRepository(context.Background(), &model.Repository{
		Owner:      "alice",
		Name:       "hot",
		StarsCount: 100,
		CreatedAt:  time.Now().AddDate(0, 0, -1),
	}))

	t.Run("returns stored trending repositories", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/analytics/repositories/trending?days=7&minStars=10", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var repos []model.Repository
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &repos))
		require.Len(t, repos, 1)
		assert.Equal(t, "hot", repos[0].Name)
	})

	t.Run("rejects a malformed days parameter", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/analytics/repositories/trending?days=soon", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_Search(t *testing.T) {
	router, mem := setupTestRouter(t)
	ctx := context.Background()

	t.Run("profile URL resolves account analytics and logs success", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/analytics/search", `{"url":"https://github.com/octocat"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		logs, err := mem.ListSearchLogsSince(ctx, time.Time{})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, model.SearchTypeUserProfile, logs[0].SearchType)
		assert.Equal(t, model.SearchStatusSuccess, logs[0].Status)
	})

	t.Run("unrecognized URL maps to 400 and logs failure", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/analytics/search", `{"url":"https://example.com/nope"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		logs, err := mem.ListSearchLogsSince(ctx, time.Time{})
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, model.SearchStatusFailed, logs[1].Status)
	})

	t.Run("missing url maps to 400", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/analytics/search", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_SearchStats(t *testing.T) {
	router, mem := setupTestRouter(t)
	require.NoError(t, mem.InsertSearchLog(context.Background(), &model.SearchLog{
		URL:        "https://github.com/alice",
		SearchType: model.SearchTypeUserProfile,
		Username:   "alice",
		Status:     model.SearchStatusSuccess,
		SearchedAt: time.Now().Add(-time.Hour),
	}))

	rec := doRequest(t, router, http.MethodGet, "/api/analytics/search/stats?days=7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var stats model.SearchAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalSearches)
	assert.Equal(t, 100.0, stats.SuccessRate)
}
