package model

import (
	"time"
)

// Account is the locally cached profile of a GitHub user.
// Username is the natural key; LastRefreshedAt is local bookkeeping and is
// only advanced by a successful fetch-and-merge, never by reads.
type Account struct {
	Username        string    `json:"username"`
	Name            *string   `json:"name"`
	AvatarURL       string    `json:"avatar_url"`
	Bio             *string   `json:"bio"`
	Location        *string   `json:"location"`
	Company         *string   `json:"company"`
	Email           *string   `json:"email"`
	PublicRepos     int       `json:"public_repos"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	CreatedAt       time.Time `json:"created_at"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

// Repository is the locally cached record of one remote repository.
// Keyed by (Owner, Name); Owner is a soft reference to Account.Username.
type Repository struct {
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	FullName       string    `json:"full_name"`
	Description    *string   `json:"description"`
	Language       *string   `json:"language"`
	StarsCount     int       `json:"stars_count"`
	ForksCount     int       `json:"forks_count"`
	WatchersCount  int       `json:"watchers_count"`
	SizeKB         int       `json:"size_kb"`
	DefaultBranch  string    `json:"default_branch"`
	Private        bool      `json:"private"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastPushAt     time.Time `json:"last_push_at"`
	LastAnalyzedAt time.Time `json:"last_analyzed_at"`
}

// Key returns the owner/name form used in logs and comparison maps.
func (r *Repository) Key() string {
	return r.Owner + "/" + r.Name
}

// Commit is an immutable cached commit. The SHA is globally unique across
// the whole store; a SHA already present is never re-ingested.
type Commit struct {
	SHA            string    `json:"sha"`
	RepoOwner      string    `json:"repo_owner"`
	RepoName       string    `json:"repo_name"`
	Message        string    `json:"message"`
	AuthorName     string    `json:"author_name"`
	AuthorEmail    string    `json:"author_email"`
	AuthorDate     time.Time `json:"author_date"`
	CommitterName  string    `json:"committer_name"`
	CommitterEmail string    `json:"committer_email"`
	CommitterDate  time.Time `json:"committer_date"`
	Additions      int       `json:"additions"`
	Deletions      int       `json:"deletions"`
	ChangedFiles   int       `json:"changed_files"`
}

// Size is the commit's total line impact.
func (c *Commit) Size() int {
	return c.Additions + c.Deletions
}

// Contributor is a cached per-repository contributor record, keyed by
// (RepoOwner, RepoName, Name).
type Contributor struct {
	RepoOwner           string    `json:"repo_owner"`
	RepoName            string    `json:"repo_name"`
	Name                string    `json:"name"`
	Contributions       int       `json:"contributions"`
	FirstContributionAt time.Time `json:"first_contribution_at"`
	LastContributionAt  time.Time `json:"last_contribution_at"`
}

// SearchLog is one audit row for an analyzed GitHub URL.
type SearchLog struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	SearchType   string    `json:"search_type"`
	Username     string    `json:"username,omitempty"`
	Repo         string    `json:"repo,omitempty"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Status       string    `json:"status"`
	ProcessingMs *int      `json:"processing_ms,omitempty"`
	SearchedAt   time.Time `json:"searched_at"`
}

// Search log classification and status values.
const (
	SearchTypeUserProfile = "USER_PROFILE"
	SearchTypeRepository  = "REPOSITORY"
	SearchTypeUnknown     = "UNKNOWN"

	SearchStatusPending = "PENDING"
	SearchStatusSuccess = "SUCCESS"
	SearchStatusFailed  = "FAILED"
)

// LanguageCount pairs a language with how many stored repositories use it.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}
