package searchlog

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantType string
		wantUser string
		wantRepo string
	}{
		{"user profile", "https://github.com/octocat", model.SearchTypeUserProfile, "octocat", ""},
		{"user profile with trailing slash", "https://github.com/octocat/", model.SearchTypeUserProfile, "octocat", ""},
		{"repository", "https://github.com/octocat/hello-world", model.SearchTypeRepository, "octocat", "hello-world"},
		{"repository with trailing slash", "https://github.com/octocat/hello-world/", model.SearchTypeRepository, "octocat", "hello-world"},
		{"deeper path is unknown", "https://github.com/octocat/hello-world/issues", model.SearchTypeUnknown, "", ""},
		{"plain http is unknown", "http://github.com/octocat", model.SearchTypeUnknown, "", ""},
		{"other host is unknown", "https://gitlab.com/octocat", model.SearchTypeUnknown, "", ""},
		{"bare host is unknown", "https://github.com/", model.SearchTypeUnknown, "", ""},
		{"surrounding whitespace is trimmed", "  https://github.com/octocat  ", model.SearchTypeUserProfile, "octocat", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.url)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantUser, c.Username)
			assert.Equal(t, tt.wantRepo, c.Repo)
		})
	}
}

func testRecorder(t *testing.T) (*Recorder, *store.Memory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	mem := store.NewMemory()
	return NewRecorder(mem, logger), mem
}

func TestRecorder_LogSearchAndComplete(t *testing.T) {
	ctx := context.Background()
	rec, mem := testRecorder(t)

	entry := rec.LogSearch(ctx, "https://github.com/octocat/hello-world", "203.0.113.9", "test-agent")
	require.NotNil(t, entry)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, model.SearchTypeRepository, entry.SearchType)
	assert.Equal(t, "octocat", entry.Username)
	assert.Equal(t, "hello-world", entry.Repo)
	assert.Equal(t, model.SearchStatusPending, entry.Status)

	rec.Complete(ctx, entry, true)

	logs, err := mem.ListSearchLogsSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.SearchStatusSuccess, logs[0].Status)
	require.NotNil(t, logs[0].ProcessingMs)
}

func TestRecorder_BuildSearchAnalytics(t *testing.T) {
	ctx := context.Background()
	rec, mem := testRecorder(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return base.AddDate(0, 0, 1) }

	ms := func(v int) *int { return &v }
	seed := []model.SearchLog{
		{URL: "https://github.com/alice", SearchType: model.SearchTypeUserProfile, Username: "alice", Status: model.SearchStatusSuccess, ProcessingMs: ms(100), SearchedAt: base},
		{URL: "https://github.com/alice", SearchType: model.SearchTypeUserProfile, Username: "alice", Status: model.SearchStatusSuccess, ProcessingMs: ms(300), SearchedAt: base.Add(time.Hour)},
		{URL: "https://github.com/bob", SearchType: model.SearchTypeUserProfile, Username: "bob", Status: model.SearchStatusFailed, ProcessingMs: ms(50), SearchedAt: base.Add(2 * time.Hour)},
		{URL: "https://github.com/alice/widgets", SearchType: model.SearchTypeRepository, Username: "alice", Repo: "widgets", Status: model.SearchStatusSuccess, SearchedAt: base.Add(25 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, mem.InsertSearchLog(ctx, &seed[i]))
	}

	result, err := rec.BuildSearchAnalytics(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalSearches)
	assert.Equal(t, 3, result.SuccessfulSearches)
	assert.Equal(t, 1, result.FailedSearches)
	assert.Equal(t, 75.0, result.SuccessRate)

	require.Len(t, result.DailySearches, 2)
	assert.Equal(t, "2025-06-01", result.DailySearches[0].Date)
	assert.Equal(t, 3, result.DailySearches[0].Total)
	assert.Equal(t, "2025-06-02", result.DailySearches[1].Date)

	require.NotEmpty(t, result.TopSearchedUsers)
	assert.Equal(t, "alice", result.TopSearchedUsers[0].Key)
	assert.Equal(t, 2, result.TopSearchedUsers[0].SearchCount)

	require.Len(t, result.TopSearchedRepos, 1)
	assert.Equal(t, "alice/widgets", result.TopSearchedRepos[0].Key)

	assert.Equal(t, 150.0, result.AverageProcessingMs)
	assert.Equal(t, 300, result.MaxProcessingMs)
	assert.Equal(t, 50, result.MinProcessingMs)
}

func TestRecorder_BuildSearchAnalytics_Empty(t *testing.T) {
	rec, _ := testRecorder(t)

	result, err := rec.BuildSearchAnalytics(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, result.TotalSearches)
	assert.Zero(t, result.SuccessRate)
	assert.Empty(t, result.DailySearches)
	assert.Empty(t, result.TopSearchedUsers)
}
