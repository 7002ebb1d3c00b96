// Package store owns persistence for the four fact kinds plus the search
// audit log. The coordinator and aggregator only ever talk to the FactStore
// contract; *Postgres and *Memory both satisfy it.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
)

// ErrNotFound is returned by point lookups when no row matches the key.
var ErrNotFound = errors.New("store: not found")

// Counts are the store-wide row counts surfaced on the dashboard.
type Counts struct {
	Accounts     int64
	Repositories int64
	Commits      int64
	Contributors int64
}

// FactStore is the persistence contract required by the ingestion and
// analytics engines. Each call is individually consistent; no guarantees
// hold across a multi-call refresh sequence.
type FactStore interface {
	GetAccount(ctx context.Context, username string) (*model.Account, error)
	UpsertAccount(ctx context.Context, account *model.Account) error

	GetRepository(ctx context.Context, owner, name string) (*model.Repository, error)
	UpsertRepository(ctx context.Context, repo *model.Repository) error
	// ListRepositoriesByOwner returns the owner's repositories, stars descending.
	ListRepositoriesByOwner(ctx context.Context, owner string) ([]model.Repository, error)
	// ListRepositoriesByLanguage returns repositories with the given language
	// tag, stars descending.
	ListRepositoriesByLanguage(ctx context.Context, language string) ([]model.Repository, error)
	// ListTrendingRepositories returns repositories created after `since` with
	// more than `minStars` stars, stars descending, at most `limit` rows.
	ListTrendingRepositories(ctx context.Context, since time.Time, minStars, limit int) ([]model.Repository, error)
	CountRecentlyPushed(ctx context.Context, since time.Time) (int, error)
	// CountRepositoriesByLanguage groups non-null languages by repository
	// count, descending.
	CountRepositoriesByLanguage(ctx context.Context) ([]model.LanguageCount, error)

	// CommitExists checks the SHA against the whole store, not one repository.
	CommitExists(ctx context.Context, sha string) (bool, error)
	InsertCommit(ctx context.Context, commit *model.Commit) error
	// ListCommitsByRepo returns a repository's commits, author date descending.
	ListCommitsByRepo(ctx context.Context, owner, name string) ([]model.Commit, error)
	// ListCommitsByOwner returns all commits across the owner's repositories,
	// committer date descending.
	ListCommitsByOwner(ctx context.Context, owner string) ([]model.Commit, error)
	CountCommitsByRepo(ctx context.Context, owner, name string) (int, error)

	ContributorExists(ctx context.Context, owner, name, contributor string) (bool, error)
	InsertContributor(ctx context.Context, contributor *model.Contributor) error
	// ListContributorsByRepo returns a repository's contributors, contribution
	// count descending.
	ListContributorsByRepo(ctx context.Context, owner, name string) ([]model.Contributor, error)

	Counts(ctx context.Context) (Counts, error)
}

// SearchLogStore persists the URL search audit trail.
type SearchLogStore interface {
	// InsertSearchLog stores the row and fills in its assigned ID.
	InsertSearchLog(ctx context.Context, log *model.SearchLog) error
	UpdateSearchLogStatus(ctx context.Context, id int64, status string, processingMs int) error
	ListSearchLogsSince(ctx context.Context, since time.Time) ([]model.SearchLog, error)
}

// Compile-time checks that both implementations satisfy the contracts.
var (
	_ FactStore      = (*Postgres)(nil)
	_ SearchLogStore = (*Postgres)(nil)
	_ FactStore      = (*Memory)(nil)
	_ SearchLogStore = (*Memory)(nil)
)
