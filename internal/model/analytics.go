package model

import "time"

// AccountAnalytics is the derived view over everything stored for one account.
type AccountAnalytics struct {
	Username    string    `json:"username"`
	Name        *string   `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	Company     *string   `json:"company"`
	Email       *string   `json:"email"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	RefreshedAt time.Time `json:"refreshed_at"`

	RepositoryStats   RepositoryStats   `json:"repository_stats"`
	ContributionStats ContributionStats `json:"contribution_stats"`
	ActivityStats     ActivityStats     `json:"activity_stats"`
	TopRepositories   []TopRepository   `json:"top_repositories"`
	LanguageBreakdown []LanguageStats   `json:"language_breakdown"`
}

// RepositoryStats are totals over all of an account's stored repositories.
type RepositoryStats struct {
	TotalRepositories int     `json:"total_repositories"`
	TotalStars        int     `json:"total_stars"`
	TotalForks        int     `json:"total_forks"`
	TotalWatchers     int     `json:"total_watchers"`
	TotalSizeKB       int64   `json:"total_size_kb"`
	AverageStars      float64 `json:"average_stars"`
	MostUsedLanguage  string  `json:"most_used_language"`
}

// ContributionStats are totals over all commits belonging to the account's
// repositories.
type ContributionStats struct {
	TotalCommits          int     `json:"total_commits"`
	TotalAdditions        int     `json:"total_additions"`
	TotalDeletions        int     `json:"total_deletions"`
	TotalChangedFiles     int     `json:"total_changed_files"`
	AverageCommitsPerRepo float64 `json:"average_commits_per_repo"`
	MostActiveRepository  string  `json:"most_active_repository"`
}

// ActivityStats cover the trailing month of commit activity by committer date.
type ActivityStats struct {
	LastActivity     *time.Time      `json:"last_activity"`
	CommitsLastMonth int             `json:"commits_last_month"`
	CommitsLastWeek  int             `json:"commits_last_week"`
	DailyActivity    []DailyActivity `json:"daily_activity"`
	HourlyActivity   map[int]int     `json:"hourly_activity"`
}

// DailyActivity is one calendar day of commit activity.
type DailyActivity struct {
	Date      string `json:"date"`
	Commits   int    `json:"commits"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// TopRepository is one entry of the stars-ranked top-10, annotated with its
// stored commit count.
type TopRepository struct {
	Name         string    `json:"name"`
	FullName     string    `json:"full_name"`
	Description  *string   `json:"description"`
	Language     *string   `json:"language"`
	StarsCount   int       `json:"stars_count"`
	ForksCount   int       `json:"forks_count"`
	CommitsCount int       `json:"commits_count"`
	LastPushAt   time.Time `json:"last_push_at"`
}

// LanguageStats is one row of the per-language breakdown.
type LanguageStats struct {
	Language        string  `json:"language"`
	RepositoryCount int     `json:"repository_count"`
	TotalStars      int     `json:"total_stars"`
	Percentage      float64 `json:"percentage"`
}

// RepositoryAnalytics is the derived view over one stored repository.
type RepositoryAnalytics struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   *string   `json:"description"`
	Language      *string   `json:"language"`
	DefaultBranch string    `json:"default_branch"`
	Private       bool      `json:"private"`
	StarsCount    int       `json:"stars_count"`
	ForksCount    int       `json:"forks_count"`
	WatchersCount int       `json:"watchers_count"`
	SizeKB        int       `json:"size_kb"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastPushAt    time.Time `json:"last_push_at"`
	AnalyzedAt    time.Time `json:"analyzed_at"`

	Owner Owner `json:"owner"`

	CommitAnalytics      CommitAnalytics      `json:"commit_analytics"`
	ContributorAnalytics ContributorAnalytics `json:"contributor_analytics"`
	CodeAnalytics        CodeAnalytics        `json:"code_analytics"`
	ActivityAnalytics    ActivityAnalytics    `json:"activity_analytics"`
}

// Owner is the short account summary embedded in repository analytics.
type Owner struct {
	Username  string  `json:"username"`
	Name      *string `json:"name"`
	AvatarURL string  `json:"avatar_url"`
}

// CommitAnalytics are derived commit statistics for one repository.
type CommitAnalytics struct {
	TotalCommits               int                   `json:"total_commits"`
	TotalAdditions             int                   `json:"total_additions"`
	TotalDeletions             int                   `json:"total_deletions"`
	TotalChangedFiles          int                   `json:"total_changed_files"`
	AverageAdditionsPerCommit  float64               `json:"average_additions_per_commit"`
	AverageDeletionsPerCommit  float64               `json:"average_deletions_per_commit"`
	AverageFilesPerCommit      float64               `json:"average_files_per_commit"`
	FirstCommit                *time.Time            `json:"first_commit"`
	LastCommit                 *time.Time            `json:"last_commit"`
	CommitTimeline             []CommitTimelineEntry `json:"commit_timeline"`
	CommitsByHour              map[int]int           `json:"commits_by_hour"`
	TopCommits                 []TopCommit           `json:"top_commits"`
}

// CommitTimelineEntry is one calendar day of repository commit activity.
type CommitTimelineEntry struct {
	Date               string `json:"date"`
	Commits            int    `json:"commits"`
	Additions          int    `json:"additions"`
	Deletions          int    `json:"deletions"`
	UniqueContributors int    `json:"unique_contributors"`
}

// TopCommit is one entry of the impact-ranked top-10 commits.
type TopCommit struct {
	SHA          string    `json:"sha"`
	Message      string    `json:"message"`
	AuthorName   string    `json:"author_name"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	ChangedFiles int       `json:"changed_files"`
	AuthorDate   time.Time `json:"author_date"`
}

// ContributorAnalytics are derived contributor statistics for one repository.
type ContributorAnalytics struct {
	TotalContributors        int                        `json:"total_contributors"`
	ActiveContributors       int                        `json:"active_contributors"`
	TopContributors          []TopContributor           `json:"top_contributors"`
	ContributorTimeline      []ContributorTimelineEntry `json:"contributor_timeline"`
	ContributionDistribution map[string]int             `json:"contribution_distribution"`
}

// TopContributor is one contribution-ranked contributor, re-enriched with the
// commit statistics actually stored for that author name.
type TopContributor struct {
	Name              string    `json:"name"`
	Contributions     int       `json:"contributions"`
	CommitsCount      int       `json:"commits_count"`
	AdditionsCount    int       `json:"additions_count"`
	DeletionsCount    int       `json:"deletions_count"`
	FirstContribution time.Time `json:"first_contribution"`
	LastContribution  time.Time `json:"last_contribution"`
}

// ContributorTimelineEntry is one calendar day of newly seen contributors.
type ContributorTimelineEntry struct {
	Date            string `json:"date"`
	NewContributors int    `json:"new_contributors"`
}

// CodeAnalytics are line-level derived statistics for one repository.
type CodeAnalytics struct {
	TotalLines           int            `json:"total_lines"`
	ChurnRate            float64        `json:"churn_rate"`
	AverageCommitSize    int            `json:"average_commit_size"`
	MainFileTypes        []string       `json:"main_file_types"`
	FileTypeDistribution map[string]int `json:"file_type_distribution"`
}

// ActivityAnalytics describe how active a repository has been recently.
type ActivityAnalytics struct {
	IsActive              bool     `json:"is_active"`
	CommitsLastWeek       int      `json:"commits_last_week"`
	CommitsLastMonth      int      `json:"commits_last_month"`
	CommitsLastYear       int      `json:"commits_last_year"`
	WeeklyAverageCommits  float64  `json:"weekly_average_commits"`
	MonthlyAverageCommits float64  `json:"monthly_average_commits"`
	BusiestDays           []string `json:"busiest_days"`
	BusiestHours          []string `json:"busiest_hours"`
}

// DashboardSummary is the store-wide overview.
type DashboardSummary struct {
	TotalAccounts     int64           `json:"total_accounts"`
	TotalRepositories int64           `json:"total_repositories"`
	TotalCommits      int64           `json:"total_commits"`
	TotalContributors int64           `json:"total_contributors"`
	TopLanguages      []LanguageCount `json:"top_languages"`
	RecentActivity    int             `json:"recent_activity"`
}

// SearchAnalytics summarize the audit log over a trailing window.
type SearchAnalytics struct {
	TotalSearches       int               `json:"total_searches"`
	SuccessfulSearches  int               `json:"successful_searches"`
	FailedSearches      int               `json:"failed_searches"`
	SuccessRate         float64           `json:"success_rate"`
	DailySearches       []DailySearches   `json:"daily_searches"`
	HourlyDistribution  map[int]int       `json:"hourly_distribution"`
	TopSearchedUsers    []TopSearchedItem `json:"top_searched_users"`
	TopSearchedRepos    []TopSearchedItem `json:"top_searched_repositories"`
	AverageProcessingMs float64           `json:"average_processing_ms"`
	MaxProcessingMs     int               `json:"max_processing_ms"`
	MinProcessingMs     int               `json:"min_processing_ms"`
}

// DailySearches is one calendar day of the search audit log.
type DailySearches struct {
	Date       string `json:"date"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
}

// TopSearchedItem is one most-searched user or repository.
type TopSearchedItem struct {
	Key          string     `json:"key"`
	SearchCount  int        `json:"search_count"`
	LastSearched *time.Time `json:"last_searched"`
}
