package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// BuildRepositoryAnalytics derives the full analytics view for one stored
// repository. Sections that fail degrade to their empty form; only a failure
// to list the repository's commits aborts the build.
func (a *Aggregator) BuildRepositoryAnalytics(ctx context.Context, repo *model.Repository) (*model.RepositoryAnalytics, error) {
	commits, err := a.store.ListCommitsByRepo(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("listing commits for %s: %v: %w", repo.Key(), err, apperrors.ErrAggregation)
	}

	result := &model.RepositoryAnalytics{
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		Language:      repo.Language,
		DefaultBranch: repo.DefaultBranch,
		Private:       repo.Private,
		StarsCount:    repo.StarsCount,
		ForksCount:    repo.ForksCount,
		WatchersCount: repo.WatchersCount,
		SizeKB:        repo.SizeKB,
		CreatedAt:     repo.CreatedAt,
		UpdatedAt:     repo.UpdatedAt,
		LastPushAt:    repo.LastPushAt,
		AnalyzedAt:    repo.LastAnalyzedAt,

		Owner: a.buildOwner(ctx, repo.Owner),

		CommitAnalytics:   buildCommitAnalytics(commits),
		CodeAnalytics:     buildCodeAnalytics(repo, commits),
		ActivityAnalytics: a.buildActivityAnalytics(commits),
	}

	contributors, err := a.store.ListContributorsByRepo(ctx, repo.Owner, repo.Name)
	if err != nil {
		a.logger.Error("Failed to list contributors", "repo", repo.Key(), "error", err)
		contributors = nil
	}
	result.ContributorAnalytics = a.buildContributorAnalytics(contributors, commits)

	return result, nil
}

func (a *Aggregator) buildOwner(ctx context.Context, username string) model.Owner {
	account, err := a.store.GetAccount(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("Failed to load owner", "username", username, "error", err)
		}
		return model.Owner{Username: username}
	}
	return model.Owner{
		Username:  account.Username,
		Name:      account.Name,
		AvatarURL: account.AvatarURL,
	}
}

func buildCommitAnalytics(commits []model.Commit) model.CommitAnalytics {
	if len(commits) == 0 {
		return model.CommitAnalytics{
			CommitTimeline: []model.CommitTimelineEntry{},
			CommitsByHour:  map[int]int{},
			TopCommits:     []model.TopCommit{},
		}
	}

	result := model.CommitAnalytics{
		TotalCommits:  len(commits),
		CommitsByHour: make(map[int]int),
	}

	var first, last time.Time
	for _, commit := range commits {
		result.TotalAdditions += commit.Additions
		result.TotalDeletions += commit.Deletions
		result.TotalChangedFiles += commit.ChangedFiles

		if commit.AuthorDate.IsZero() {
			continue
		}
		if first.IsZero() || commit.AuthorDate.Before(first) {
			first = commit.AuthorDate
		}
		if commit.AuthorDate.After(last) {
			last = commit.AuthorDate
		}
		result.CommitsByHour[commit.AuthorDate.Hour()]++
	}

	n := float64(len(commits))
	result.AverageAdditionsPerCommit = round2(float64(result.TotalAdditions) / n)
	result.AverageDeletionsPerCommit = round2(float64(result.TotalDeletions) / n)
	result.AverageFilesPerCommit = round2(float64(result.TotalChangedFiles) / n)

	if !first.IsZero() {
		result.FirstCommit = &first
	}
	if !last.IsZero() {
		result.LastCommit = &last
	}

	result.CommitTimeline = buildCommitTimeline(commits)
	result.TopCommits = buildTopCommits(commits)
	return result
}

// buildCommitTimeline groups commits by the author's calendar date, keeping
// the 30 most recent dates, newest first.
func buildCommitTimeline(commits []model.Commit) []model.CommitTimelineEntry {
	type day struct {
		entry   model.CommitTimelineEntry
		authors map[string]struct{}
	}
	byDay := make(map[string]*day)
	for _, commit := range commits {
		if commit.AuthorDate.IsZero() {
			continue
		}
		date := commit.AuthorDate.Format(dateLayout)
		d, ok := byDay[date]
		if !ok {
			d = &day{entry: model.CommitTimelineEntry{Date: date}, authors: make(map[string]struct{})}
			byDay[date] = d
		}
		d.entry.Commits++
		d.entry.Additions += commit.Additions
		d.entry.Deletions += commit.Deletions
		if commit.AuthorName != "" {
			d.authors[commit.AuthorName] = struct{}{}
		}
	}

	out := make([]model.CommitTimelineEntry, 0, len(byDay))
	for _, d := range byDay {
		d.entry.UniqueContributors = len(d.authors)
		out = append(out, d.entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	if len(out) > 30 {
		out = out[:30]
	}
	return out
}

// buildTopCommits ranks commits by total line impact, descending; equal-sized
// commits keep their store order.
func buildTopCommits(commits []model.Commit) []model.TopCommit {
	ranked := make([]model.Commit, len(commits))
	copy(ranked, commits)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Size() > ranked[j].Size()
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	out := make([]model.TopCommit, 0, len(ranked))
	for _, commit := range ranked {
		out = append(out, model.TopCommit{
			SHA:          commit.SHA,
			Message:      commit.Message,
			AuthorName:   commit.AuthorName,
			Additions:    commit.Additions,
			Deletions:    commit.Deletions,
			ChangedFiles: commit.ChangedFiles,
			AuthorDate:   commit.AuthorDate,
		})
	}
	return out
}

func (a *Aggregator) buildContributorAnalytics(contributors []model.Contributor, commits []model.Commit) model.ContributorAnalytics {
	if len(contributors) == 0 {
		return model.ContributorAnalytics{
			TopContributors:          []model.TopContributor{},
			ContributorTimeline:      []model.ContributorTimelineEntry{},
			ContributionDistribution: map[string]int{},
		}
	}

	result := model.ContributorAnalytics{
		TotalContributors:        len(contributors),
		ContributionDistribution: make(map[string]int, len(contributors)),
	}

	threeMonthsAgo := a.now().AddDate(0, -3, 0)
	for _, contributor := range contributors {
		if contributor.LastContributionAt.After(threeMonthsAgo) {
			result.ActiveContributors++
		}
		result.ContributionDistribution[contributor.Name] = contributor.Contributions
	}

	// Re-enrich the top ten with the commit stats actually stored for that
	// author name; the remote contribution count may cover commits we never
	// ingested.
	type authorStats struct {
		commits   int
		additions int
		deletions int
	}
	byAuthor := make(map[string]*authorStats)
	for _, commit := range commits {
		s, ok := byAuthor[commit.AuthorName]
		if !ok {
			s = &authorStats{}
			byAuthor[commit.AuthorName] = s
		}
		s.commits++
		s.additions += commit.Additions
		s.deletions += commit.Deletions
	}

	top := contributors
	if len(top) > 10 {
		top = top[:10]
	}
	result.TopContributors = make([]model.TopContributor, 0, len(top))
	for _, contributor := range top {
		entry := model.TopContributor{
			Name:              contributor.Name,
			Contributions:     contributor.Contributions,
			FirstContribution: contributor.FirstContributionAt,
			LastContribution:  contributor.LastContributionAt,
		}
		if s, ok := byAuthor[contributor.Name]; ok {
			entry.CommitsCount = s.commits
			entry.AdditionsCount = s.additions
			entry.DeletionsCount = s.deletions
		}
		result.TopContributors = append(result.TopContributors, entry)
	}

	result.ContributorTimeline = buildContributorTimeline(contributors)
	return result
}

// buildContributorTimeline groups contributors by first-contribution date,
// keeping the 30 most recent dates, newest first.
func buildContributorTimeline(contributors []model.Contributor) []model.ContributorTimelineEntry {
	byDay := make(map[string]int)
	for _, contributor := range contributors {
		if contributor.FirstContributionAt.IsZero() {
			continue
		}
		byDay[contributor.FirstContributionAt.Format(dateLayout)]++
	}

	out := make([]model.ContributorTimelineEntry, 0, len(byDay))
	for date, count := range byDay {
		out = append(out, model.ContributorTimelineEntry{Date: date, NewContributors: count})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	if len(out) > 30 {
		out = out[:30]
	}
	return out
}

// buildCodeAnalytics derives line-level metrics. The file-type distribution
// is approximated from the repository's single language tag, not per-file data.
func buildCodeAnalytics(repo *model.Repository, commits []model.Commit) model.CodeAnalytics {
	if len(commits) == 0 {
		return model.CodeAnalytics{
			MainFileTypes:        []string{},
			FileTypeDistribution: map[string]int{},
		}
	}

	totalAdditions, totalDeletions := 0, 0
	for _, commit := range commits {
		totalAdditions += commit.Additions
		totalDeletions += commit.Deletions
	}

	churn := float64(totalAdditions+totalDeletions) / float64(len(commits))

	result := model.CodeAnalytics{
		TotalLines:           totalAdditions - totalDeletions,
		ChurnRate:            round2(churn),
		AverageCommitSize:    (totalAdditions + totalDeletions) / len(commits),
		MainFileTypes:        []string{},
		FileTypeDistribution: map[string]int{},
	}
	if repo.Language != nil {
		result.MainFileTypes = append(result.MainFileTypes, *repo.Language)
		result.FileTypeDistribution[*repo.Language] = 100
	}
	return result
}

func (a *Aggregator) buildActivityAnalytics(commits []model.Commit) model.ActivityAnalytics {
	now := a.now()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, -1, 0)
	yearAgo := now.AddDate(-1, 0, 0)

	result := model.ActivityAnalytics{
		BusiestDays:  []string{},
		BusiestHours: []string{},
	}

	dayCounts := make(map[int]int)
	hourCounts := make(map[int]int)
	for _, commit := range commits {
		if commit.AuthorDate.IsZero() {
			continue
		}
		if commit.AuthorDate.After(monthAgo) {
			result.IsActive = true
			result.CommitsLastMonth++
		}
		if commit.AuthorDate.After(weekAgo) {
			result.CommitsLastWeek++
		}
		if commit.AuthorDate.After(yearAgo) {
			result.CommitsLastYear++
		}

		// ISO weekday: Monday=1 .. Sunday=7.
		weekday := int(commit.AuthorDate.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		dayCounts[weekday]++
		hourCounts[commit.AuthorDate.Hour()]++
	}

	result.WeeklyAverageCommits = round2(float64(result.CommitsLastYear) / 52)
	result.MonthlyAverageCommits = round2(float64(result.CommitsLastYear) / 12)

	for _, weekday := range topKeys(dayCounts, 1, 7, 3) {
		result.BusiestDays = append(result.BusiestDays, weekdayNames[weekday-1])
	}
	for _, hour := range topKeys(hourCounts, 0, 23, 3) {
		result.BusiestHours = append(result.BusiestHours, fmt.Sprintf("%02d:00", hour))
	}
	return result
}

// topKeys returns up to `limit` keys with the highest counts; ties keep
// natural key order.
func topKeys(counts map[int]int, lo, hi, limit int) []int {
	var keys []int
	for k := lo; k <= hi; k++ {
		if counts[k] > 0 {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return counts[keys[i]] > counts[keys[j]]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
