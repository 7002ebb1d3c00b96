package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
)

// Postgres is the pgx-backed FactStore. Upserts use ON CONFLICT on the
// natural key, so a second refresh can never produce a duplicate row.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT username, name, avatar_url, bio, location, company, email,
		       public_repos, followers, following, created_at, last_refreshed_at
		FROM accounts WHERE username = $1`, username)

	var a model.Account
	err := row.Scan(&a.Username, &a.Name, &a.AvatarURL, &a.Bio, &a.Location, &a.Company,
		&a.Email, &a.PublicRepos, &a.Followers, &a.Following, &a.CreatedAt, &a.LastRefreshedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", username, err)
	}
	return &a, nil
}

func (p *Postgres) UpsertAccount(ctx context.Context, a *model.Account) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO accounts (username, name, avatar_url, bio, location, company, email,
		                      public_repos, followers, following, created_at, last_refreshed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (username) DO UPDATE SET
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			company = EXCLUDED.company,
			email = EXCLUDED.email,
			public_repos = EXCLUDED.public_repos,
			followers = EXCLUDED.followers,
			following = EXCLUDED.following,
			created_at = EXCLUDED.created_at,
			last_refreshed_at = EXCLUDED.last_refreshed_at`,
		a.Username, a.Name, a.AvatarURL, a.Bio, a.Location, a.Company, a.Email,
		a.PublicRepos, a.Followers, a.Following, a.CreatedAt, a.LastRefreshedAt)
	if err != nil {
		return fmt.Errorf("upserting account %s: %w", a.Username, err)
	}
	return nil
}

const repositoryColumns = `
	owner, name, full_name, description, language, stars_count, forks_count,
	watchers_count, size_kb, default_branch, private, created_at, updated_at,
	last_push_at, last_analyzed_at`

func scanRepository(row pgx.Row) (*model.Repository, error) {
	var r model.Repository
	err := row.Scan(&r.Owner, &r.Name, &r.FullName, &r.Description, &r.Language,
		&r.StarsCount, &r.ForksCount, &r.WatchersCount, &r.SizeKB, &r.DefaultBranch,
		&r.Private, &r.CreatedAt, &r.UpdatedAt, &r.LastPushAt, &r.LastAnalyzedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Postgres) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE owner = $1 AND name = $2`,
		owner, name)

	repo, err := scanRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting repository %s/%s: %w", owner, name, err)
	}
	return repo, nil
}

func (p *Postgres) UpsertRepository(ctx context.Context, r *model.Repository) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO repositories (owner, name, full_name, description, language,
		                          stars_count, forks_count, watchers_count, size_kb,
		                          default_branch, private, created_at, updated_at,
		                          last_push_at, last_analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (owner, name) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			description = EXCLUDED.description,
			language = EXCLUDED.language,
			stars_count = EXCLUDED.stars_count,
			forks_count = EXCLUDED.forks_count,
			watchers_count = EXCLUDED.watchers_count,
			size_kb = EXCLUDED.size_kb,
			default_branch = EXCLUDED.default_branch,
			private = EXCLUDED.private,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			last_push_at = EXCLUDED.last_push_at,
			last_analyzed_at = EXCLUDED.last_analyzed_at`,
		r.Owner, r.Name, r.FullName, r.Description, r.Language, r.StarsCount,
		r.ForksCount, r.WatchersCount, r.SizeKB, r.DefaultBranch, r.Private,
		r.CreatedAt, r.UpdatedAt, r.LastPushAt, r.LastAnalyzedAt)
	if err != nil {
		return fmt.Errorf("upserting repository %s/%s: %w", r.Owner, r.Name, err)
	}
	return nil
}

func (p *Postgres) queryRepositories(ctx context.Context, query string, args ...any) ([]model.Repository, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *repo)
	}
	return out, rows.Err()
}

func (p *Postgres) ListRepositoriesByOwner(ctx context.Context, owner string) ([]model.Repository, error) {
	repos, err := p.queryRepositories(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE owner = $1 ORDER BY stars_count DESC, name`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", owner, err)
	}
	return repos, nil
}

func (p *Postgres) ListRepositoriesByLanguage(ctx context.Context, language string) ([]model.Repository, error) {
	repos, err := p.queryRepositories(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE LOWER(language) = LOWER($1) ORDER BY stars_count DESC, name`,
		language)
	if err != nil {
		return nil, fmt.Errorf("listing repositories by language %s: %w", language, err)
	}
	return repos, nil
}

func (p *Postgres) ListTrendingRepositories(ctx context.Context, since time.Time, minStars, limit int) ([]model.Repository, error) {
	repos, err := p.queryRepositories(ctx,
		`SELECT `+repositoryColumns+` FROM repositories
		 WHERE created_at > $1 AND stars_count > $2
		 ORDER BY stars_count DESC, name LIMIT $3`,
		since, minStars, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trending repositories: %w", err)
	}
	return repos, nil
}

func (p *Postgres) CountRecentlyPushed(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM repositories WHERE last_push_at > $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recently pushed repositories: %w", err)
	}
	return count, nil
}

func (p *Postgres) CountRepositoriesByLanguage(ctx context.Context) ([]model.LanguageCount, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT language, COUNT(*) FROM repositories
		WHERE language IS NOT NULL
		GROUP BY language ORDER BY COUNT(*) DESC, language`)
	if err != nil {
		return nil, fmt.Errorf("counting repositories by language: %w", err)
	}
	defer rows.Close()

	var out []model.LanguageCount
	for rows.Next() {
		var lc model.LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

func (p *Postgres) CommitExists(ctx context.Context, sha string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM commits WHERE sha = $1)`, sha).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking commit %s: %w", sha, err)
	}
	return exists, nil
}

func (p *Postgres) InsertCommit(ctx context.Context, c *model.Commit) error {
	// DO NOTHING keeps ingested commits immutable.
	_, err := p.pool.Exec(ctx, `
		INSERT INTO commits (sha, repo_owner, repo_name, message, author_name,
		                     author_email, author_date, committer_name, committer_email,
		                     committer_date, additions, deletions, changed_files)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (sha) DO NOTHING`,
		c.SHA, c.RepoOwner, c.RepoName, c.Message, c.AuthorName, c.AuthorEmail,
		c.AuthorDate, c.CommitterName, c.CommitterEmail, c.CommitterDate,
		c.Additions, c.Deletions, c.ChangedFiles)
	if err != nil {
		return fmt.Errorf("inserting commit %s: %w", c.SHA, err)
	}
	return nil
}

const commitColumns = `
	sha, repo_owner, repo_name, message, author_name, author_email, author_date,
	committer_name, committer_email, committer_date, additions, deletions, changed_files`

func (p *Postgres) queryCommits(ctx context.Context, query string, args ...any) ([]model.Commit, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Commit
	for rows.Next() {
		var c model.Commit
		err := rows.Scan(&c.SHA, &c.RepoOwner, &c.RepoName, &c.Message, &c.AuthorName,
			&c.AuthorEmail, &c.AuthorDate, &c.CommitterName, &c.CommitterEmail,
			&c.CommitterDate, &c.Additions, &c.Deletions, &c.ChangedFiles)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) ListCommitsByRepo(ctx context.Context, owner, name string) ([]model.Commit, error) {
	commits, err := p.queryCommits(ctx,
		`SELECT `+commitColumns+` FROM commits
		 WHERE repo_owner = $1 AND repo_name = $2
		 ORDER BY author_date DESC, sha`,
		owner, name)
	if err != nil {
		return nil, fmt.Errorf("listing commits for %s/%s: %w", owner, name, err)
	}
	return commits, nil
}

func (p *Postgres) ListCommitsByOwner(ctx context.Context, owner string) ([]model.Commit, error) {
	commits, err := p.queryCommits(ctx,
		`SELECT `+commitColumns+` FROM commits
		 WHERE repo_owner = $1
		 ORDER BY committer_date DESC, sha`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("listing commits for owner %s: %w", owner, err)
	}
	return commits, nil
}

func (p *Postgres) CountCommitsByRepo(ctx context.Context, owner, name string) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM commits WHERE repo_owner = $1 AND repo_name = $2`,
		owner, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting commits for %s/%s: %w", owner, name, err)
	}
	return count, nil
}

func (p *Postgres) ContributorExists(ctx context.Context, owner, name, contributor string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contributors
			WHERE repo_owner = $1 AND repo_name = $2 AND name = $3
		)`, owner, name, contributor).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking contributor %s on %s/%s: %w", contributor, owner, name, err)
	}
	return exists, nil
}

func (p *Postgres) InsertContributor(ctx context.Context, c *model.Contributor) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO contributors (repo_owner, repo_name, name, contributions,
		                          first_contribution_at, last_contribution_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (repo_owner, repo_name, name) DO NOTHING`,
		c.RepoOwner, c.RepoName, c.Name, c.Contributions,
		c.FirstContributionAt, c.LastContributionAt)
	if err != nil {
		return fmt.Errorf("inserting contributor %s on %s/%s: %w", c.Name, c.RepoOwner, c.RepoName, err)
	}
	return nil
}

func (p *Postgres) ListContributorsByRepo(ctx context.Context, owner, name string) ([]model.Contributor, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT repo_owner, repo_name, name, contributions,
		       first_contribution_at, last_contribution_at
		FROM contributors
		WHERE repo_owner = $1 AND repo_name = $2
		ORDER BY contributions DESC, name`, owner, name)
	if err != nil {
		return nil, fmt.Errorf("listing contributors for %s/%s: %w", owner, name, err)
	}
	defer rows.Close()

	var out []model.Contributor
	for rows.Next() {
		var c model.Contributor
		err := rows.Scan(&c.RepoOwner, &c.RepoName, &c.Name, &c.Contributions,
			&c.FirstContributionAt, &c.LastContributionAt)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	err := p.pool.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM accounts),
		       (SELECT COUNT(*) FROM repositories),
		       (SELECT COUNT(*) FROM commits),
		       (SELECT COUNT(*) FROM contributors)`).
		Scan(&counts.Accounts, &counts.Repositories, &counts.Commits, &counts.Contributors)
	if err != nil {
		return Counts{}, fmt.Errorf("counting facts: %w", err)
	}
	return counts, nil
}

func (p *Postgres) InsertSearchLog(ctx context.Context, log *model.SearchLog) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO search_logs (url, search_type, username, repo, ip_address,
		                         user_agent, status, searched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		log.URL, log.SearchType, log.Username, log.Repo, log.IPAddress,
		log.UserAgent, log.Status, log.SearchedAt).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("inserting search log: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateSearchLogStatus(ctx context.Context, id int64, status string, processingMs int) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE search_logs SET status = $2, processing_ms = $3 WHERE id = $1`,
		id, status, processingMs)
	if err != nil {
		return fmt.Errorf("updating search log %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListSearchLogsSince(ctx context.Context, since time.Time) ([]model.SearchLog, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, url, search_type, username, repo, ip_address, user_agent,
		       status, processing_ms, searched_at
		FROM search_logs WHERE searched_at > $1 ORDER BY searched_at`, since)
	if err != nil {
		return nil, fmt.Errorf("listing search logs: %w", err)
	}
	defer rows.Close()

	var out []model.SearchLog
	for rows.Next() {
		var log model.SearchLog
		err := rows.Scan(&log.ID, &log.URL, &log.SearchType, &log.Username, &log.Repo,
			&log.IPAddress, &log.UserAgent, &log.Status, &log.ProcessingMs, &log.SearchedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, log)
	}
	return out, rows.Err()
}
