package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
)

// BuildAccountAnalytics derives the full analytics view for one account.
// Individual sections that fail degrade to their empty form; only a failure
// to list the account's repositories aborts the build.
func (a *Aggregator) BuildAccountAnalytics(ctx context.Context, account *model.Account) (*model.AccountAnalytics, error) {
	repos, err := a.store.ListRepositoriesByOwner(ctx, account.Username)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %v: %w", account.Username, err, apperrors.ErrAggregation)
	}

	result := &model.AccountAnalytics{
		Username:    account.Username,
		Name:        account.Name,
		AvatarURL:   account.AvatarURL,
		Bio:         account.Bio,
		Location:    account.Location,
		Company:     account.Company,
		Email:       account.Email,
		PublicRepos: account.PublicRepos,
		Followers:   account.Followers,
		Following:   account.Following,
		CreatedAt:   account.CreatedAt,
		RefreshedAt: account.LastRefreshedAt,

		RepositoryStats:   buildRepositoryStats(repos),
		LanguageBreakdown: buildLanguageBreakdown(repos),
	}

	commits, err := a.store.ListCommitsByOwner(ctx, account.Username)
	if err != nil {
		a.logger.Error("Failed to list commits for contribution stats", "username", account.Username, "error", err)
		commits = nil
	}
	result.ContributionStats = buildContributionStats(commits)
	result.ActivityStats = a.buildActivityStats(commits)

	result.TopRepositories = a.buildTopRepositories(ctx, repos)

	return result, nil
}

func buildRepositoryStats(repos []model.Repository) model.RepositoryStats {
	if len(repos) == 0 {
		return model.RepositoryStats{MostUsedLanguage: "N/A"}
	}

	stats := model.RepositoryStats{TotalRepositories: len(repos)}
	for _, repo := range repos {
		stats.TotalStars += repo.StarsCount
		stats.TotalForks += repo.ForksCount
		stats.TotalWatchers += repo.WatchersCount
		stats.TotalSizeKB += int64(repo.SizeKB)
	}
	stats.AverageStars = float64(stats.TotalStars) / float64(len(repos))
	stats.MostUsedLanguage = mostUsedLanguage(repos)
	return stats
}

// mostUsedLanguage picks the language with the most repositories; on a tie
// the language seen first in store order wins.
func mostUsedLanguage(repos []model.Repository) string {
	counts := make(map[string]int)
	var order []string
	for _, repo := range repos {
		if repo.Language == nil {
			continue
		}
		if _, ok := counts[*repo.Language]; !ok {
			order = append(order, *repo.Language)
		}
		counts[*repo.Language]++
	}
	if len(order) == 0 {
		return "N/A"
	}

	best := order[0]
	for _, language := range order[1:] {
		if counts[language] > counts[best] {
			best = language
		}
	}
	return best
}

func buildContributionStats(commits []model.Commit) model.ContributionStats {
	if len(commits) == 0 {
		return model.ContributionStats{MostActiveRepository: "N/A"}
	}

	stats := model.ContributionStats{TotalCommits: len(commits)}
	repoCounts := make(map[string]int)
	var repoOrder []string
	for _, commit := range commits {
		stats.TotalAdditions += commit.Additions
		stats.TotalDeletions += commit.Deletions
		stats.TotalChangedFiles += commit.ChangedFiles

		key := commit.RepoOwner + "/" + commit.RepoName
		if _, ok := repoCounts[key]; !ok {
			repoOrder = append(repoOrder, key)
		}
		repoCounts[key]++
	}

	stats.AverageCommitsPerRepo = float64(len(commits)) / float64(len(repoCounts))

	best := ""
	for _, key := range repoOrder {
		if best == "" || repoCounts[key] > repoCounts[best] {
			best = key
		}
	}
	// Report the bare repository name, as the owner is implied.
	for _, commit := range commits {
		if commit.RepoOwner+"/"+commit.RepoName == best {
			stats.MostActiveRepository = commit.RepoName
			break
		}
	}
	return stats
}

// buildActivityStats covers the trailing month of activity, bucketed by the
// committer timestamp.
func (a *Aggregator) buildActivityStats(commits []model.Commit) model.ActivityStats {
	now := a.now()
	monthAgo := now.AddDate(0, -1, 0)
	weekAgo := now.AddDate(0, 0, -7)

	var recent []model.Commit
	for _, commit := range commits {
		if !commit.CommitterDate.IsZero() && commit.CommitterDate.After(monthAgo) {
			recent = append(recent, commit)
		}
	}
	if len(recent) == 0 {
		return model.ActivityStats{
			DailyActivity:  []model.DailyActivity{},
			HourlyActivity: map[int]int{},
		}
	}

	stats := model.ActivityStats{
		CommitsLastMonth: len(recent),
		HourlyActivity:   make(map[int]int),
	}

	var last time.Time
	for _, commit := range recent {
		if commit.CommitterDate.After(last) {
			last = commit.CommitterDate
		}
		if commit.CommitterDate.After(weekAgo) {
			stats.CommitsLastWeek++
		}
		stats.HourlyActivity[commit.CommitterDate.Hour()]++
	}
	stats.LastActivity = &last

	stats.DailyActivity = buildDailyActivity(recent)
	return stats
}

func buildDailyActivity(commits []model.Commit) []model.DailyActivity {
	byDay := make(map[string]*model.DailyActivity)
	for _, commit := range commits {
		date := commit.CommitterDate.Format(dateLayout)
		day, ok := byDay[date]
		if !ok {
			day = &model.DailyActivity{Date: date}
			byDay[date] = day
		}
		day.Commits++
		day.Additions += commit.Additions
		day.Deletions += commit.Deletions
	}

	out := make([]model.DailyActivity, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// buildTopRepositories keeps the store's stars-descending order and annotates
// the first ten entries with their stored commit counts.
func (a *Aggregator) buildTopRepositories(ctx context.Context, repos []model.Repository) []model.TopRepository {
	top := make([]model.TopRepository, 0, 10)
	for _, repo := range repos {
		if len(top) == 10 {
			break
		}
		count, err := a.store.CountCommitsByRepo(ctx, repo.Owner, repo.Name)
		if err != nil {
			a.logger.Error("Failed to count commits", "repo", repo.Key(), "error", err)
			count = 0
		}
		top = append(top, model.TopRepository{
			Name:         repo.Name,
			FullName:     repo.FullName,
			Description:  repo.Description,
			Language:     repo.Language,
			StarsCount:   repo.StarsCount,
			ForksCount:   repo.ForksCount,
			CommitsCount: count,
			LastPushAt:   repo.LastPushAt,
		})
	}
	return top
}

func buildLanguageBreakdown(repos []model.Repository) []model.LanguageStats {
	if len(repos) == 0 {
		return []model.LanguageStats{}
	}

	type group struct {
		count int
		stars int
	}
	groups := make(map[string]*group)
	var order []string
	for _, repo := range repos {
		if repo.Language == nil {
			continue
		}
		g, ok := groups[*repo.Language]
		if !ok {
			g = &group{}
			groups[*repo.Language] = g
			order = append(order, *repo.Language)
		}
		g.count++
		g.stars += repo.StarsCount
	}

	total := len(repos)
	out := make([]model.LanguageStats, 0, len(order))
	for _, language := range order {
		g := groups[language]
		out = append(out, model.LanguageStats{
			Language:        language,
			RepositoryCount: g.count,
			TotalStars:      g.stars,
			Percentage:      round2(float64(g.count) / float64(total) * 100),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RepositoryCount > out[j].RepositoryCount
	})
	return out
}
