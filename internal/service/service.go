// Package service is the public operation surface the request layer talks
// to: ensure-fresh plus aggregate, comparisons, trending, and the dashboard.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhishek2316/git-complexity-analyzer/internal/analytics"
	"github.com/abhishek2316/git-complexity-analyzer/internal/apperrors"
	"github.com/abhishek2316/git-complexity-analyzer/internal/ingest"
	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

const (
	// maxCompareKeys bounds a single comparison request.
	maxCompareKeys = 10
	// compareConcurrency bounds the comparison fan-out.
	compareConcurrency = 4
)

// RepoKey identifies one repository in a comparison request.
type RepoKey struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (k RepoKey) String() string {
	return k.Owner + "/" + k.Name
}

// Service wires the ingestion coordinator and the aggregator behind the
// operation surface exposed to the HTTP layer.
type Service struct {
	coordinator *ingest.Coordinator
	aggregator  *analytics.Aggregator
	store       store.FactStore
	cache       *resultCache
	logger      *slog.Logger
	now         func() time.Time
}

// New creates a new Service instance.
func New(coordinator *ingest.Coordinator, aggregator *analytics.Aggregator, facts store.FactStore, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) (*Service, error) {
	cache, err := newResultCache(cacheSize, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	return &Service{
		coordinator: coordinator,
		aggregator:  aggregator,
		store:       facts,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// GetAccountAnalytics ensures the account's facts are fresh and returns the
// derived analytics.
func (s *Service) GetAccountAnalytics(ctx context.Context, username string) (*model.AccountAnalytics, error) {
	if username == "" {
		return nil, apperrors.Validationf("username must not be empty")
	}

	now := s.now()
	if cached, ok := s.cache.getAccount(username, now); ok {
		return cached, nil
	}

	account, report, err := s.coordinator.EnsureAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	if report.IsDegraded() {
		s.logger.Warn("Account refresh degraded", "username", username, "sections", report.Degraded())
	}

	result, err := s.aggregator.BuildAccountAnalytics(ctx, account)
	if err != nil {
		return nil, err
	}
	s.cache.putAccount(username, result, now)
	return result, nil
}

// RefreshAccountAnalytics bypasses the freshness check and refetches before
// aggregating.
func (s *Service) RefreshAccountAnalytics(ctx context.Context, username string) (*model.AccountAnalytics, error) {
	if username == "" {
		return nil, apperrors.Validationf("username must not be empty")
	}

	s.cache.dropAccount(username)
	account, report, err := s.coordinator.ForceRefreshAccount(ctx, username)
	if err != nil {
		return nil, err
	}
	if report.IsDegraded() {
		s.logger.Warn("Forced account refresh degraded", "username", username, "sections", report.Degraded())
	}

	result, err := s.aggregator.BuildAccountAnalytics(ctx, account)
	if err != nil {
		return nil, err
	}
	s.cache.putAccount(username, result, s.now())
	return result, nil
}

// GetRepositoryAnalytics ensures the repository's facts are fresh and returns
// the derived analytics.
func (s *Service) GetRepositoryAnalytics(ctx context.Context, owner, name string) (*model.RepositoryAnalytics, error) {
	if owner == "" || name == "" {
		return nil, apperrors.Validationf("owner and repository name must not be empty")
	}

	key := owner + "/" + name
	now := s.now()
	if cached, ok := s.cache.getRepo(key, now); ok {
		return cached, nil
	}

	repo, report, err := s.coordinator.EnsureRepository(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if report.IsDegraded() {
		s.logger.Warn("Repository refresh degraded", "repo", key, "sections", report.Degraded())
	}

	result, err := s.aggregator.BuildRepositoryAnalytics(ctx, repo)
	if err != nil {
		return nil, err
	}
	s.cache.putRepo(key, result, now)
	return result, nil
}

// RefreshRepositoryAnalytics bypasses the freshness check and refetches
// before aggregating.
func (s *Service) RefreshRepositoryAnalytics(ctx context.Context, owner, name string) (*model.RepositoryAnalytics, error) {
	if owner == "" || name == "" {
		return nil, apperrors.Validationf("owner and repository name must not be empty")
	}

	key := owner + "/" + name
	s.cache.dropRepo(key)
	repo, report, err := s.coordinator.ForceRefreshRepository(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	if report.IsDegraded() {
		s.logger.Warn("Forced repository refresh degraded", "repo", key, "sections", report.Degraded())
	}

	result, err := s.aggregator.BuildRepositoryAnalytics(ctx, repo)
	if err != nil {
		return nil, err
	}
	s.cache.putRepo(key, result, s.now())
	return result, nil
}

// CompareAccounts resolves analytics for up to ten usernames. A username
// that fails to resolve is omitted from the result; the call itself only
// fails on invalid input.
func (s *Service) CompareAccounts(ctx context.Context, usernames []string) (map[string]*model.AccountAnalytics, error) {
	if len(usernames) == 0 {
		return nil, apperrors.Validationf("at least one username is required")
	}
	if len(usernames) > maxCompareKeys {
		return nil, apperrors.Validationf("at most %d usernames can be compared, got %d", maxCompareKeys, len(usernames))
	}

	var mu sync.Mutex
	results := make(map[string]*model.AccountAnalytics)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareConcurrency)
	for _, username := range usernames {
		username := username
		g.Go(func() error {
			result, err := s.GetAccountAnalytics(gctx, username)
			if err != nil {
				s.logger.Warn("Skipping account in comparison", "username", username, "error", err)
				return nil
			}
			mu.Lock()
			results[username] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// CompareRepositories is the repository flavor of CompareAccounts, keyed by
// owner/name.
func (s *Service) CompareRepositories(ctx context.Context, keys []RepoKey) (map[string]*model.RepositoryAnalytics, error) {
	if len(keys) == 0 {
		return nil, apperrors.Validationf("at least one repository is required")
	}
	if len(keys) > maxCompareKeys {
		return nil, apperrors.Validationf("at most %d repositories can be compared, got %d", maxCompareKeys, len(keys))
	}

	var mu sync.Mutex
	results := make(map[string]*model.RepositoryAnalytics)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			result, err := s.GetRepositoryAnalytics(gctx, key.Owner, key.Name)
			if err != nil {
				s.logger.Warn("Skipping repository in comparison", "repo", key.String(), "error", err)
				return nil
			}
			mu.Lock()
			results[key.String()] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// ListTrendingRepositories returns stored repositories created within the
// trailing sinceDays window with more than minStars stars.
func (s *Service) ListTrendingRepositories(ctx context.Context, sinceDays, minStars, limit int) ([]model.Repository, error) {
	if sinceDays <= 0 {
		return nil, apperrors.Validationf("sinceDays must be greater than zero")
	}
	if limit <= 0 {
		return nil, apperrors.Validationf("limit must be greater than zero")
	}

	since := s.now().AddDate(0, 0, -sinceDays)
	repos, err := s.store.ListTrendingRepositories(ctx, since, minStars, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trending repositories: %w", err)
	}
	return repos, nil
}

// ListRepositoriesByLanguage returns stored repositories with the given
// language tag, stars descending.
func (s *Service) ListRepositoriesByLanguage(ctx context.Context, language string) ([]model.Repository, error) {
	if language == "" {
		return nil, apperrors.Validationf("language must not be empty")
	}
	repos, err := s.store.ListRepositoriesByLanguage(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("listing repositories by language: %w", err)
	}
	return repos, nil
}

// GetDashboardSummary returns the store-wide overview.
func (s *Service) GetDashboardSummary(ctx context.Context) (*model.DashboardSummary, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting facts: %w", err)
	}

	languages, err := s.store.CountRepositoriesByLanguage(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting languages: %w", err)
	}

	recent, err := s.store.CountRecentlyPushed(ctx, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("counting recent pushes: %w", err)
	}

	return &model.DashboardSummary{
		TotalAccounts:     counts.Accounts,
		TotalRepositories: counts.Repositories,
		TotalCommits:      counts.Commits,
		TotalContributors: counts.Contributors,
		TopLanguages:      languages,
		RecentActivity:    recent,
	}, nil
}
