// Package github wraps the go-github client behind the narrow read surface
// the ingestion engine needs, classifying every failure into one of the
// apperrors kinds.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
)

const (
	// maxRetries bounds attempts for transient (5xx/network) failures.
	// 404 and other client errors are never retried.
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond

	userAgent = "git-complexity-analyzer"
)

// RateLimit is the reported remote quota status. Reporting only; nothing
// enforces it locally.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh      *github.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	gh := github.NewClient(tc)
	gh.UserAgent = userAgent

	return &Client{
		gh:      gh,
		logger:  logger,
		timeout: timeout,
	}
}

// SetBaseURL points the client at a different API root. Tests use this to
// target a mock server; authentication is dropped.
func (c *Client) SetBaseURL(url string) error {
	gh, err := github.NewClient(nil).WithEnterpriseURLs(url, url)
	if err != nil {
		return err
	}
	gh.UserAgent = userAgent
	c.gh = gh
	return nil
}

// GetUser fetches a user profile and translates it to our internal model.
func (c *Client) GetUser(ctx context.Context, username string) (*model.Account, error) {
	var user *github.User
	err := c.withRetry(ctx, "get user "+username, func(ctx context.Context) error {
		var resp *github.Response
		var err error
		user, resp, err = c.gh.Users.Get(ctx, username)
		return classify(resp, err)
	})
	if err != nil {
		return nil, err
	}
	return toInternalAccount(user), nil
}

// ListUserRepositories fetches up to 100 of the user's repositories,
// most recently updated first.
func (c *Client) ListUserRepositories(ctx context.Context, username string) ([]model.Repository, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "all",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var repos []*github.Repository
	err := c.withRetry(ctx, "list repositories for "+username, func(ctx context.Context) error {
		var resp *github.Response
		var err error
		repos, resp, err = c.gh.Repositories.ListByUser(ctx, username, opts)
		return classify(resp, err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, *toInternalRepository(r))
	}
	return out, nil
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	var repo *github.Repository
	err := c.withRetry(ctx, "get repository "+owner+"/"+name, func(ctx context.Context) error {
		var resp *github.Response
		var err error
		repo, resp, err = c.gh.Repositories.Get(ctx, owner, name)
		return classify(resp, err)
	})
	if err != nil {
		return nil, err
	}
	return toInternalRepository(repo), nil
}

// ListCommitsPage fetches one page of a repository's commit listing.
// Pagination policy (page cap, short-page stop) lives with the caller.
func (c *Client) ListCommitsPage(ctx context.Context, owner, name string, page, perPage int) ([]model.Commit, error) {
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}

	var commits []*github.RepositoryCommit
	err := c.withRetry(ctx, fmt.Sprintf("list commits %s/%s page %d", owner, name, page), func(ctx context.Context) error {
		var resp *github.Response
		var err error
		commits, resp, err = c.gh.Repositories.ListCommits(ctx, owner, name, opts)
		return classify(resp, err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Commit, 0, len(commits))
	for _, commit := range commits {
		out = append(out, toInternalCommit(owner, name, commit))
	}
	return out, nil
}

// ListContributors fetches up to 100 contributors for a repository.
func (c *Client) ListContributors(ctx context.Context, owner, name string) ([]model.Contributor, error) {
	opts := &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var contributors []*github.Contributor
	err := c.withRetry(ctx, "list contributors "+owner+"/"+name, func(ctx context.Context) error {
		var resp *github.Response
		var err error
		contributors, resp, err = c.gh.Repositories.ListContributors(ctx, owner, name, opts)
		return classify(resp, err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Contributor, 0, len(contributors))
	for _, contributor := range contributors {
		out = append(out, model.Contributor{
			RepoOwner:     owner,
			RepoName:      name,
			Name:          contributor.GetLogin(),
			Contributions: contributor.GetContributions(),
		})
	}
	return out, nil
}

// CheckRateLimit reports the current core quota status.
func (c *Client) CheckRateLimit(ctx context.Context) (*RateLimit, error) {
	var limits *github.RateLimits
	err := c.withRetry(ctx, "check rate limit", func(ctx context.Context) error {
		var resp *github.Response
		var err error
		limits, resp, err = c.gh.RateLimit.Get(ctx)
		return classify(resp, err)
	})
	if err != nil {
		return nil, err
	}

	core := limits.GetCore()
	return &RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		ResetAt:   core.Reset.Time,
	}, nil
}

// withRetry runs fn under the per-call timeout, retrying transient failures
// with doubling backoff.
func (c *Client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := initialBackoff

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err = fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if !apperrors.Transient(err) {
			return err
		}

		c.logger.Warn("Transient GitHub API failure", "op", op, "attempt", attempt, "error", err)

		if attempt == maxRetries {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, apperrors.ErrRemoteNetwork)
		}
		backoff *= 2
	}
	return err
}

// classify maps a go-github call outcome onto the apperrors taxonomy.
func classify(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("rate limit exhausted: %w", apperrors.ErrRemoteClient)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return classifyStatus(ghErr.Response.StatusCode, err)
	}
	if resp != nil && resp.StatusCode >= 400 {
		return classifyStatus(resp.StatusCode, err)
	}

	return fmt.Errorf("%v: %w", err, apperrors.ErrRemoteNetwork)
}

func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%v: %w", err, apperrors.ErrRemoteNotFound)
	case status >= 500:
		return fmt.Errorf("%v: %w", err, apperrors.ErrRemoteServer)
	default:
		return fmt.Errorf("%v: %w", err, apperrors.ErrRemoteClient)
	}
}

// toInternalAccount translates a github.User object to our internal model.Account.
func toInternalAccount(u *github.User) *model.Account {
	return &model.Account{
		Username:    u.GetLogin(),
		Name:        u.Name,
		AvatarURL:   u.GetAvatarURL(),
		Bio:         u.Bio,
		Location:    u.Location,
		Company:     u.Company,
		Email:       u.Email,
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time,
	}
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) *model.Repository {
	return &model.Repository{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.Description,
		Language:      r.Language,
		StarsCount:    r.GetStargazersCount(),
		ForksCount:    r.GetForksCount(),
		WatchersCount: r.GetWatchersCount(),
		SizeKB:        r.GetSize(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		CreatedAt:     r.GetCreatedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
		LastPushAt:    r.GetPushedAt().Time,
	}
}

// toInternalCommit translates a github.RepositoryCommit object to our internal model.Commit.
// The list endpoint does not carry line stats, so additions/deletions are zero
// unless the API provided them.
func toInternalCommit(owner, name string, c *github.RepositoryCommit) model.Commit {
	commit := model.Commit{
		SHA:       c.GetSHA(),
		RepoOwner: owner,
		RepoName:  name,
		Message:   c.GetCommit().GetMessage(),
	}

	if author := c.GetCommit().GetAuthor(); author != nil {
		commit.AuthorName = author.GetName()
		commit.AuthorEmail = author.GetEmail()
		commit.AuthorDate = author.GetDate().Time
	}
	if committer := c.GetCommit().GetCommitter(); committer != nil {
		commit.CommitterName = committer.GetName()
		commit.CommitterEmail = committer.GetEmail()
		commit.CommitterDate = committer.GetDate().Time
	}
	if stats := c.GetStats(); stats != nil {
		commit.Additions = stats.GetAdditions()
		commit.Deletions = stats.GetDeletions()
		commit.ChangedFiles = stats.GetTotal()
	}

	return commit
}
