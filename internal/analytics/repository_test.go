package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

func seedRepositoryFixture(t *testing.T, mem *store.Memory, now time.Time) *model.Repository {
	t.Helper()
	ctx := context.Background()

	owner := &model.Account{Username: "alice", Name: strPtr("Alice"), AvatarURL: "https://example.com/alice.png", LastRefreshedAt: now}
	require.NoError(t, mem.UpsertAccount(ctx, owner))

	repo := &model.Repository{
		Owner:          "alice",
		Name:           "widgets",
		FullName:       "alice/widgets",
		Language:       strPtr("Go"),
		DefaultBranch:  "main",
		StarsCount:     42,
		LastAnalyzedAt: now,
	}
	require.NoError(t, mem.UpsertRepository(ctx, repo))

	// 2025-06-09 is a Monday, 2025-06-08 a Sunday, 2024-01-15 a Monday.
	commits := []model.Commit{
		{SHA: "c1", RepoOwner: "alice", RepoName: "widgets", AuthorName: "alice", AuthorDate: time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), Additions: 10, ChangedFiles: 1},
		{SHA: "c2", RepoOwner: "alice", RepoName: "widgets", AuthorName: "bob", AuthorDate: time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC), Additions: 20, Deletions: 5, ChangedFiles: 2},
		{SHA: "c3", RepoOwner: "alice", RepoName: "widgets", AuthorName: "alice", AuthorDate: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)},
	}
	for i := range commits {
		require.NoError(t, mem.InsertCommit(ctx, &commits[i]))
	}

	contributors := []model.Contributor{
		{RepoOwner: "alice", RepoName: "widgets", Name: "alice", Contributions: 5, FirstContributionAt: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), LastContributionAt: time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)},
		{RepoOwner: "alice", RepoName: "widgets", Name: "bob", Contributions: 2, FirstContributionAt: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), LastContributionAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
	}
	for i := range contributors {
		require.NoError(t, mem.InsertContributor(ctx, &contributors[i]))
	}

	return repo
}

func TestBuildRepositoryAnalytics(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	agg, mem := testAggregator(t)
	agg.now = func() time.Time { return now }
	repo := seedRepositoryFixture(t, mem, now)

	result, err := agg.BuildRepositoryAnalytics(ctx, repo)
	require.NoError(t, err)

	t.Run("owner summary comes from the stored account", func(t *testing.T) {
		assert.Equal(t, "alice", result.Owner.Username)
		require.NotNil(t, result.Owner.Name)
		assert.Equal(t, "Alice", *result.Owner.Name)
		assert.Equal(t, "https://example.com/alice.png", result.Owner.AvatarURL)
	})

	t.Run("commit analytics", func(t *testing.T) {
		ca := result.CommitAnalytics
		assert.Equal(t, 3, ca.TotalCommits)
		assert.Equal(t, 30, ca.TotalAdditions)
		assert.Equal(t, 5, ca.TotalDeletions)
		assert.Equal(t, 3, ca.TotalChangedFiles)
		assert.Equal(t, 10.0, ca.AverageAdditionsPerCommit)
		assert.Equal(t, 1.67, ca.AverageDeletionsPerCommit)
		assert.Equal(t, 1.0, ca.AverageFilesPerCommit)

		require.NotNil(t, ca.FirstCommit)
		assert.Equal(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), *ca.FirstCommit)
		require.NotNil(t, ca.LastCommit)
		assert.Equal(t, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), *ca.LastCommit)

		assert.Equal(t, map[int]int{10: 2, 8: 1}, ca.CommitsByHour)
	})

	t.Run("commit timeline is newest first", func(t *testing.T) {
		timeline := result.CommitAnalytics.CommitTimeline
		require.Len(t, timeline, 3)
		assert.Equal(t, "2025-06-09", timeline[0].Date)
		assert.Equal(t, 1, timeline[0].Commits)
		assert.Equal(t, 1, timeline[0].UniqueContributors)
		assert.Equal(t, "2025-06-08", timeline[1].Date)
		assert.Equal(t, "2024-01-15", timeline[2].Date)
	})

	t.Run("top commits rank by line impact", func(t *testing.T) {
		top := result.CommitAnalytics.TopCommits
		require.Len(t, top, 3)
		assert.Equal(t, "c2", top[0].SHA)
		assert.Equal(t, "c1", top[1].SHA)
		assert.Equal(t, "c3", top[2].SHA)
	})

	t.Run("contributor analytics", func(t *testing.T) {
		ca := result.ContributorAnalytics
		assert.Equal(t, 2, ca.TotalContributors)
		assert.Equal(t, 1, ca.ActiveContributors)
		assert.Equal(t, map[string]int{"alice": 5, "bob": 2}, ca.ContributionDistribution)

		require.Len(t, ca.TopContributors, 2)
		assert.Equal(t, "alice", ca.TopContributors[0].Name)
		assert.Equal(t, 5, ca.TopContributors[0].Contributions)
		assert.Equal(t, 2, ca.TopContributors[0].CommitsCount)
		assert.Equal(t, 10, ca.TopContributors[0].AdditionsCount)
		assert.Equal(t, "bob", ca.TopContributors[1].Name)
		assert.Equal(t, 1, ca.TopContributors[1].CommitsCount)
		assert.Equal(t, 20, ca.TopContributors[1].AdditionsCount)
		assert.Equal(t, 5, ca.TopContributors[1].DeletionsCount)

		require.Len(t, ca.ContributorTimeline, 2)
		assert.Equal(t, "2024-11-01", ca.ContributorTimeline[0].Date)
		assert.Equal(t, "2024-01-15", ca.ContributorTimeline[1].Date)
	})

	t.Run("code analytics", func(t *testing.T) {
		ca := result.CodeAnalytics
		assert.Equal(t, 25, ca.TotalLines)
		assert.Equal(t, 11.67, ca.ChurnRate)
		assert.Equal(t, 11, ca.AverageCommitSize)
		assert.Equal(t, []string{"Go"}, ca.MainFileTypes)
		assert.Equal(t, map[string]int{"Go": 100}, ca.FileTypeDistribution)
	})

	t.Run("activity analytics", func(t *testing.T) {
		aa := result.ActivityAnalytics
		assert.True(t, aa.IsActive)
		assert.Equal(t, 2, aa.CommitsLastWeek)
		assert.Equal(t, 2, aa.CommitsLastMonth)
		assert.Equal(t, 2, aa.CommitsLastYear)
		assert.Equal(t, 0.04, aa.WeeklyAverageCommits)
		assert.Equal(t, 0.17, aa.MonthlyAverageCommits)
		assert.Equal(t, []string{"Monday", "Sunday"}, aa.BusiestDays)
		assert.Equal(t, []string{"10:00", "08:00"}, aa.BusiestHours)
	})
}

func TestBuildRepositoryAnalytics_NoCommits(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	agg, mem := testAggregator(t)
	agg.now = func() time.Time { return now }

	repo := &model.Repository{Owner: "ghost", Name: "empty", FullName: "ghost/empty", LastAnalyzedAt: now}
	require.NoError(t, mem.UpsertRepository(ctx, repo))

	result, err := agg.BuildRepositoryAnalytics(ctx, repo)
	require.NoError(t, err)

	// Unknown owner degrades to a bare username.
	assert.Equal(t, "ghost", result.Owner.Username)
	assert.Nil(t, result.Owner.Name)

	assert.Zero(t, result.CommitAnalytics.TotalCommits)
	assert.Nil(t, result.CommitAnalytics.FirstCommit)
	assert.Empty(t, result.CommitAnalytics.TopCommits)
	assert.Zero(t, result.ContributorAnalytics.TotalContributors)
	assert.Zero(t, result.CodeAnalytics.TotalLines)
	assert.False(t, result.ActivityAnalytics.IsActive)
	assert.Empty(t, result.ActivityAnalytics.BusiestDays)
}

func TestTopKeys(t *testing.T) {
	counts := map[int]int{1: 3, 2: 3, 5: 7, 6: 1}

	t.Run("orders by count and keeps natural order on ties", func(t *testing.T) {
		assert.Equal(t, []int{5, 1, 2}, topKeys(counts, 0, 23, 3))
	})

	t.Run("respects the limit", func(t *testing.T) {
		assert.Equal(t, []int{5, 1}, topKeys(counts, 0, 23, 2))
	})

	t.Run("empty counts produce no keys", func(t *testing.T) {
		assert.Empty(t, topKeys(map[int]int{}, 0, 23, 3))
	})
}
