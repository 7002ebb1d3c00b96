package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek2316/git-complexity-analyzer/internal/analytics"
	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/ingest"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

// stubRemote serves canned accounts and repositories; anything else is a
// remote not-found.
type stubRemote struct {
	accounts map[string]*model.Account
	repos    map[string]*model.Repository

	userCalls int
}

func (s *stubRemote) GetUser(_ context.Context, username string) (*model.Account, error) {
	s.userCalls++
	if account, ok := s.accounts[username]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, fmt.Errorf("user %s: %w", username, apperrors.ErrRemoteNotFound)
}

func (s *stubRemote) ListUserRepositories(_ context.Context, username string) ([]model.Repository, error) {
	var out []model.Repository
	for _, repo := range s.repos {
		if repo.Owner == username {
			out = append(out, *repo)
		}
	}
	return out, nil
}

func (s *stubRemote) GetRepository(_ context.Context, owner, name string) (*model.Repository, error) {
	if repo, ok := s.repos[owner+"/"+name]; ok {
		copied := *repo
		return &copied, nil
	}
	return nil, fmt.Errorf("repository %s/%s: %w", owner, name, apperrors.ErrRemoteNotFound)
}

func (s *stubRemote) ListCommitsPage(_ context.Context, _, _ string, _, _ int) ([]model.Commit, error) {
	return nil, nil
}

func (s *stubRemote) ListContributors(_ context.Context, _, _ string) ([]model.Contributor, error) {
	return nil, nil
}

func testService(t *testing.T, remote *stubRemote) (*Service, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	mem := store.NewMemory()
	coordinator := ingest.NewCoordinator(mem, remote, logger)
	aggregator := analytics.NewAggregator(mem, logger)
	svc, err := New(coordinator, aggregator, mem, 16, time.Minute, logger)
	require.NoError(t, err)
	return svc, mem
}

func TestService_CompareAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an empty list", func(t *testing.T) {
		svc, _ := testService(t, &stubRemote{})
		_, err := svc.CompareAccounts(ctx, nil)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects more than ten usernames", func(t *testing.T) {
		svc, _ := testService(t, &stubRemote{})
		usernames := make([]string, 11)
		for i := range usernames {
			usernames[i] = fmt.Sprintf("user-%d", i)
		}
		_, err := svc.CompareAccounts(ctx, usernames)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("omits usernames that fail to resolve", func(t *testing.T) {
		remote := &stubRemote{accounts: map[string]*model.Account{
			"alice": {Username: "alice"},
			"bob":   {Username: "bob"},
			"carol": {Username: "carol"},
		}}
		svc, _ := testService(t, remote)

		results, err := svc.CompareAccounts(ctx, []string{"alice", "bob", "carol", "ghost"})

		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Contains(t, results, "alice")
		assert.Contains(t, results, "bob")
		assert.Contains(t, results, "carol")
		assert.NotContains(t, results, "ghost")
	})
}

func TestService_CompareRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an empty list", func(t *testing.T) {
		svc, _ := testService(t, &stubRemote{})
		_, err := svc.CompareRepositories(ctx, nil)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("keys results by owner/name", func(t *testing.T) {
		remote := &stubRemote{
			accounts: map[string]*model.Account{"alice": {Username: "alice"}},
			repos: map[string]*model.Repository{
				"alice/widgets": {Owner: "alice", Name: "widgets", FullName: "alice/widgets"},
			},
		}
		svc, _ := testService(t, remote)

		results, err := svc.CompareRepositories(ctx, []RepoKey{
			{Owner: "alice", Name: "widgets"},
			{Owner: "alice", Name: "missing"},
		})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results, "alice/widgets")
	})
}

func TestService_AccountAnalyticsCaching(t *testing.T) {
	ctx := context.Background()
	remote := &stubRemote{accounts: map[string]*model.Account{"alice": {Username: "alice"}}}
	svc, _ := testService(t, remote)

	first, err := svc.GetAccountAnalytics(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.userCalls)

	// Second read is served from the result cache.
	second, err := svc.GetAccountAnalytics(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, remote.userCalls)

	// A refresh drops the cached result and refetches.
	refreshed, err := svc.RefreshAccountAnalytics(ctx, "alice")
	require.NoError(t, err)
	assert.NotSame(t, first, refreshed)
	assert.Equal(t, 2, remote.userCalls)
}

func TestService_GetAccountAnalytics_Validation(t *testing.T) {
	svc, _ := testService(t, &stubRemote{})
	_, err := svc.GetAccountAnalytics(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestService_ListTrendingRepositories(t *testing.T) {
	ctx := context.Background()
	svc, mem := testService(t, &stubRemote{})

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	repos := []model.Repository{
		{Owner: "a", Name: "hot", StarsCount: 500, CreatedAt: now.AddDate(0, 0, -3)},
		{Owner: "b", Name: "warm", StarsCount: 50, CreatedAt: now.AddDate(0, 0, -5)},
		{Owner: "c", Name: "old", StarsCount: 900, CreatedAt: now.AddDate(0, -6, 0)},
		{Owner: "d", Name: "cold", StarsCount: 2, CreatedAt: now.AddDate(0, 0, -1)},
	}
	for i := range repos {
		require.NoError(t, mem.UpsertRepository(ctx, &repos[i]))
	}

	t.Run("filters by window and star floor", func(t *testing.T) {
		got, err := svc.ListTrendingRepositories(ctx, 7, 10, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "hot", got[0].Name)
		assert.Equal(t, "warm", got[1].Name)
	})

	t.Run("rejects a non-positive window", func(t *testing.T) {
		_, err := svc.ListTrendingRepositories(ctx, 0, 0, 10)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects a non-positive limit", func(t *testing.T) {
		_, err := svc.ListTrendingRepositories(ctx, 7, 0, 0)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestService_GetDashboardSummary(t *testing.T) {
	ctx := context.Background()
	svc, mem := testService(t, &stubRemote{})

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, mem.UpsertAccount(ctx, &model.Account{Username: "alice"}))
	repos := []model.Repository{
		{Owner: "alice", Name: "alpha", Language: strPtr("Go"), LastPushAt: now.AddDate(0, 0, -2)},
		{Owner: "alice", Name: "beta", Language: strPtr("Go"), LastPushAt: now.AddDate(0, 0, -30)},
		{Owner: "alice", Name: "gamma", Language: strPtr("Python"), LastPushAt: now.AddDate(0, 0, -1)},
	}
	for i := range repos {
		require.NoError(t, mem.UpsertRepository(ctx, &repos[i]))
	}
	require.NoError(t, mem.InsertCommit(ctx, &model.Commit{SHA: "c1", RepoOwner: "alice", RepoName: "alpha"}))

	summary, err := svc.GetDashboardSummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.TotalAccounts)
	assert.Equal(t, int64(3), summary.TotalRepositories)
	assert.Equal(t, int64(1), summary.TotalCommits)
	assert.Equal(t, 2, summary.RecentActivity)

	require.Len(t, summary.TopLanguages, 2)
	assert.Equal(t, "Go", summary.TopLanguages[0].Language)
	assert.Equal(t, 2, summary.TopLanguages[0].Count)
}

func strPtr(s string) *string { return &s }
