// Package ingest decides when cached facts must be refetched from GitHub and
// merges fetched records into the store without ever duplicating a key.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/freshness"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

const (
	// commitPageSize is the fixed page size for commit listing.
	commitPageSize = 100
	// commitPageCap bounds cost per refresh: at most 5 pages (500 commits)
	// are fetched regardless of how many the remote source reports.
	commitPageCap = 5
)

// RemoteClient is the read surface of the GitHub wrapper the coordinator needs.
type RemoteClient interface {
	GetUser(ctx context.Context, username string) (*model.Account, error)
	ListUserRepositories(ctx context.Context, username string) ([]model.Repository, error)
	GetRepository(ctx context.Context, owner, name string) (*model.Repository, error)
	ListCommitsPage(ctx context.Context, owner, name string, page, perPage int) ([]model.Commit, error)
	ListContributors(ctx context.Context, owner, name string) ([]model.Contributor, error)
}

// Coordinator orchestrates ensure-fresh for accounts and repositories.
// Concurrent refreshes of the same key collapse into one in-flight fetch.
type Coordinator struct {
	store  store.FactStore
	client RemoteClient
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewCoordinator creates a new Coordinator instance.
func NewCoordinator(facts store.FactStore, client RemoteClient, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:  facts,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

type accountResult struct {
	account *model.Account
	report  *Report
}

type repoResult struct {
	repo   *model.Repository
	report *Report
}

// EnsureAccount returns a fresh Account for the username, refetching from
// GitHub when the cached row is stale or missing. A remote failure with a
// cached row present degrades to the cached row; with nothing cached it
// surfaces the classified remote error.
func (c *Coordinator) EnsureAccount(ctx context.Context, username string) (*model.Account, *Report, error) {
	v, err, _ := c.group.Do("account:"+username, func() (any, error) {
		account, report, err := c.ensureAccount(ctx, username)
		if err != nil {
			return nil, err
		}
		return accountResult{account: account, report: report}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := v.(accountResult)
	return res.account, res.report, nil
}

func (c *Coordinator) ensureAccount(ctx context.Context, username string) (*model.Account, *Report, error) {
	report := NewReport()
	now := c.now()

	existing, err := c.store.GetAccount(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("looking up account %s: %w", username, err)
	}
	if existing != nil && !freshness.IsStale(freshness.KindAccount, existing.LastRefreshedAt, now) {
		return existing, report, nil
	}

	fetched, err := c.client.GetUser(ctx, username)
	if err != nil {
		if existing != nil {
			// Serve the stale row rather than failing the request.
			report.Degrade("account", err)
			c.logger.Warn("Serving stale account after fetch failure", "username", username, "error", err)
			return existing, report, nil
		}
		return nil, nil, fmt.Errorf("fetching account %s: %w", username, err)
	}

	fetched.LastRefreshedAt = now
	if err := c.store.UpsertAccount(ctx, fetched); err != nil {
		return nil, nil, fmt.Errorf("upserting account %s: %w", username, err)
	}
	c.logger.Info("Refreshed account", "username", username)

	c.ensureAccountRepositories(ctx, fetched, report)

	return fetched, report, nil
}

// ensureAccountRepositories refreshes every repository GitHub reports for the
// account, then ingests a bounded batch of commits for each repository that
// was actually (re)fetched. Per-repository failures are recorded and skipped;
// the loop always continues.
func (c *Coordinator) ensureAccountRepositories(ctx context.Context, account *model.Account, report *Report) {
	now := c.now()

	repos, err := c.client.ListUserRepositories(ctx, account.Username)
	if err != nil {
		report.Degrade("repositories", err)
		c.logger.Warn("Failed to list repositories", "username", account.Username, "error", err)
		return
	}

	for _, repo := range repos {
		repo := repo
		existing, err := c.store.GetRepository(ctx, repo.Owner, repo.Name)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			report.Degrade("repository:"+repo.Key(), err)
			continue
		}
		if existing != nil && !freshness.IsStale(freshness.KindRepository, existing.LastAnalyzedAt, now) {
			continue
		}

		repo.LastAnalyzedAt = now
		if err := c.store.UpsertRepository(ctx, &repo); err != nil {
			report.Degrade("repository:"+repo.Key(), err)
			c.logger.Warn("Failed to upsert repository", "repo", repo.Key(), "error", err)
			continue
		}

		c.ingestCommits(ctx, repo.Owner, repo.Name, report)
	}
}

// EnsureRepository returns a fresh Repository, refetching detail, commits and
// contributors when the cached row is stale or missing. The owning account is
// created first if it does not exist yet.
func (c *Coordinator) EnsureRepository(ctx context.Context, owner, name string) (*model.Repository, *Report, error) {
	v, err, _ := c.group.Do("repo:"+owner+"/"+name, func() (any, error) {
		repo, report, err := c.ensureRepository(ctx, owner, name)
		if err != nil {
			return nil, err
		}
		return repoResult{repo: repo, report: report}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	res := v.(repoResult)
	return res.repo, res.report, nil
}

func (c *Coordinator) ensureRepository(ctx context.Context, owner, name string) (*model.Repository, *Report, error) {
	report := NewReport()
	now := c.now()
	key := owner + "/" + name

	existing, err := c.store.GetRepository(ctx, owner, name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("looking up repository %s: %w", key, err)
	}
	if existing != nil && !freshness.IsStale(freshness.KindRepository, existing.LastAnalyzedAt, now) {
		return existing, report, nil
	}

	if err := c.ensureOwnerExists(ctx, owner); err != nil {
		if existing != nil {
			report.Degrade("owner", err)
			return existing, report, nil
		}
		return nil, nil, err
	}

	fetched, err := c.client.GetRepository(ctx, owner, name)
	if err != nil {
		if existing != nil {
			report.Degrade("repository", err)
			c.logger.Warn("Serving stale repository after fetch failure", "repo", key, "error", err)
			return existing, report, nil
		}
		return nil, nil, fmt.Errorf("fetching repository %s: %w", key, err)
	}

	fetched.LastAnalyzedAt = now
	if err := c.store.UpsertRepository(ctx, fetched); err != nil {
		return nil, nil, fmt.Errorf("upserting repository %s: %w", key, err)
	}
	c.logger.Info("Refreshed repository", "repo", key)

	c.ingestCommits(ctx, owner, name, report)
	c.ingestContributors(ctx, owner, name, report)

	return fetched, report, nil
}

// ensureOwnerExists creates the owning account if the store has never seen
// it. No freshness check: an existing row is good enough to own repositories.
func (c *Coordinator) ensureOwnerExists(ctx context.Context, username string) error {
	_, err := c.store.GetAccount(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("looking up owner %s: %w", username, err)
	}

	account, err := c.client.GetUser(ctx, username)
	if err != nil {
		return fmt.Errorf("fetching owner %s: %w", username, err)
	}
	account.LastRefreshedAt = c.now()
	if err := c.store.UpsertAccount(ctx, account); err != nil {
		return fmt.Errorf("upserting owner %s: %w", username, err)
	}
	return nil
}

// ingestCommits pages through the remote commit listing and inserts every
// commit whose SHA the store has never seen. Stops on an empty page, a short
// page, or the page cap. Already-stored SHAs are never touched.
func (c *Coordinator) ingestCommits(ctx context.Context, owner, name string, report *Report) {
	key := owner + "/" + name

	for page := 1; page <= commitPageCap; page++ {
		commits, err := c.client.ListCommitsPage(ctx, owner, name, page, commitPageSize)
		if err != nil {
			report.Degrade("commits:"+key, err)
			c.logger.Warn("Failed to fetch commits page", "repo", key, "page", page, "error", err)
			return
		}
		if len(commits) == 0 {
			return
		}

		for i := range commits {
			commit := commits[i]
			exists, err := c.store.CommitExists(ctx, commit.SHA)
			if err != nil {
				report.Degrade("commits:"+key, err)
				return
			}
			if exists {
				continue
			}
			if err := c.store.InsertCommit(ctx, &commit); err != nil {
				report.Degrade("commits:"+key, err)
				return
			}
		}

		if len(commits) < commitPageSize {
			// Short page signals the last page.
			return
		}
	}
}

// ingestContributors inserts contributor rows the store has never seen.
// First/last contribution dates are derived from the contributor's stored
// commits when any match by author name, falling back to ingestion time.
// Existing rows are left untouched by a normal refresh.
func (c *Coordinator) ingestContributors(ctx context.Context, owner, name string, report *Report) {
	key := owner + "/" + name

	contributors, err := c.client.ListContributors(ctx, owner, name)
	if err != nil {
		report.Degrade("contributors:"+key, err)
		c.logger.Warn("Failed to fetch contributors", "repo", key, "error", err)
		return
	}
	if len(contributors) == 0 {
		return
	}

	spans, err := c.contributionSpans(ctx, owner, name)
	if err != nil {
		report.Degrade("contributors:"+key, err)
		return
	}

	now := c.now()
	for i := range contributors {
		contributor := contributors[i]
		exists, err := c.store.ContributorExists(ctx, owner, name, contributor.Name)
		if err != nil {
			report.Degrade("contributors:"+key, err)
			return
		}
		if exists {
			continue
		}

		if span, ok := spans[contributor.Name]; ok {
			contributor.FirstContributionAt = span.first
			contributor.LastContributionAt = span.last
		} else {
			contributor.FirstContributionAt = now
			contributor.LastContributionAt = now
		}

		if err := c.store.InsertContributor(ctx, &contributor); err != nil {
			report.Degrade("contributors:"+key, err)
			return
		}
	}
}

type contributionSpan struct {
	first time.Time
	last  time.Time
}

func (c *Coordinator) contributionSpans(ctx context.Context, owner, name string) (map[string]contributionSpan, error) {
	commits, err := c.store.ListCommitsByRepo(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	spans := make(map[string]contributionSpan)
	for _, commit := range commits {
		if commit.AuthorName == "" || commit.AuthorDate.IsZero() {
			continue
		}
		span, ok := spans[commit.AuthorName]
		if !ok {
			spans[commit.AuthorName] = contributionSpan{first: commit.AuthorDate, last: commit.AuthorDate}
			continue
		}
		if commit.AuthorDate.Before(span.first) {
			span.first = commit.AuthorDate
		}
		if commit.AuthorDate.After(span.last) {
			span.last = commit.AuthorDate
		}
		spans[commit.AuthorName] = span
	}
	return spans, nil
}

// ForceRefreshAccount stores a synthetic stale timestamp for the account and
// then walks the normal ensure path, so both refresh flavors share one set of
// invariants.
func (c *Coordinator) ForceRefreshAccount(ctx context.Context, username string) (*model.Account, *Report, error) {
	account, err := c.store.GetAccount(ctx, username)
	if err == nil {
		account.LastRefreshedAt = freshness.StaleTimestamp(freshness.KindAccount, c.now())
		if err := c.store.UpsertAccount(ctx, account); err != nil {
			return nil, nil, fmt.Errorf("marking account %s stale: %w", username, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("looking up account %s: %w", username, err)
	}

	return c.EnsureAccount(ctx, username)
}

// ForceRefreshRepository is the repository flavor of ForceRefreshAccount.
func (c *Coordinator) ForceRefreshRepository(ctx context.Context, owner, name string) (*model.Repository, *Report, error) {
	repo, err := c.store.GetRepository(ctx, owner, name)
	if err == nil {
		repo.LastAnalyzedAt = freshness.StaleTimestamp(freshness.KindRepository, c.now())
		if err := c.store.UpsertRepository(ctx, repo); err != nil {
			return nil, nil, fmt.Errorf("marking repository %s/%s stale: %w", owner, name, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("looking up repository %s/%s: %w", owner, name, err)
	}

	return c.EnsureRepository(ctx, owner, name)
}

// IsNotFound reports whether an ensure error means the requested entity does
// not exist on the remote source.
func IsNotFound(err error) bool {
	return apperrors.IsNotFound(err)
}
