package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
)

// Memory is an in-memory FactStore. Iteration order is insertion order, so
// tie-breaks in the aggregator stay deterministic across runs. Used in tests
// and useful as a scratch backend.
type Memory struct {
	mu sync.RWMutex

	accounts     map[string]model.Account
	accountOrder []string

	repos     map[string]model.Repository
	repoOrder []string

	commits     map[string]model.Commit
	commitOrder []string

	contributors     map[string]model.Contributor
	contributorOrder []string

	searchLogs []model.SearchLog
	nextLogID  int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]model.Account),
		repos:        make(map[string]model.Repository),
		commits:      make(map[string]model.Commit),
		contributors: make(map[string]model.Contributor),
		nextLogID:    1,
	}
}

func repoKey(owner, name string) string {
	return owner + "/" + name
}

func contributorKey(owner, name, contributor string) string {
	return owner + "/" + name + "#" + contributor
}

func (m *Memory) GetAccount(_ context.Context, username string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (m *Memory) UpsertAccount(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.Username]; !ok {
		m.accountOrder = append(m.accountOrder, account.Username)
	}
	m.accounts[account.Username] = *account
	return nil
}

func (m *Memory) GetRepository(_ context.Context, owner, name string) (*model.Repository, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	repo, ok := m.repos[repoKey(owner, name)]
	if !ok {
		return nil, ErrNotFound
	}
	return &repo, nil
}

func (m *Memory) UpsertRepository(_ context.Context, repo *model.Repository) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := repoKey(repo.Owner, repo.Name)
	if _, ok := m.repos[key]; !ok {
		m.repoOrder = append(m.repoOrder, key)
	}
	m.repos[key] = *repo
	return nil
}

func (m *Memory) ListRepositoriesByOwner(_ context.Context, owner string) ([]model.Repository, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Repository
	for _, key := range m.repoOrder {
		if repo := m.repos[key]; repo.Owner == owner {
			out = append(out, repo)
		}
	}
	sortByStarsDesc(out)
	return out, nil
}

func (m *Memory) ListRepositoriesByLanguage(_ context.Context, language string) ([]model.Repository, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Repository
	for _, key := range m.repoOrder {
		repo := m.repos[key]
		if repo.Language != nil && strings.EqualFold(*repo.Language, language) {
			out = append(out, repo)
		}
	}
	sortByStarsDesc(out)
	return out, nil
}

func (m *Memory) ListTrendingRepositories(_ context.Context, since time.Time, minStars, limit int) ([]model.Repository, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Repository
	for _, key := range m.repoOrder {
		repo := m.repos[key]
		if repo.CreatedAt.After(since) && repo.StarsCount > minStars {
			out = append(out, repo)
		}
	}
	sortByStarsDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CountRecentlyPushed(_ context.Context, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, repo := range m.repos {
		if repo.LastPushAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountRepositoriesByLanguage(_ context.Context) ([]model.LanguageCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	var order []string
	for _, key := range m.repoOrder {
		repo := m.repos[key]
		if repo.Language == nil {
			continue
		}
		if _, ok := counts[*repo.Language]; !ok {
			order = append(order, *repo.Language)
		}
		counts[*repo.Language]++
	}

	out := make([]model.LanguageCount, 0, len(order))
	for _, language := range order {
		out = append(out, model.LanguageCount{Language: language, Count: counts[language]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out, nil
}

func (m *Memory) CommitExists(_ context.Context, sha string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.commits[sha]
	return ok, nil
}

func (m *Memory) InsertCommit(_ context.Context, commit *model.Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.commits[commit.SHA]; ok {
		// Commits are immutable once ingested.
		return nil
	}
	m.commits[commit.SHA] = *commit
	m.commitOrder = append(m.commitOrder, commit.SHA)
	return nil
}

func (m *Memory) ListCommitsByRepo(_ context.Context, owner, name string) ([]model.Commit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Commit
	for _, sha := range m.commitOrder {
		commit := m.commits[sha]
		if commit.RepoOwner == owner && commit.RepoName == name {
			out = append(out, commit)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AuthorDate.After(out[j].AuthorDate)
	})
	return out, nil
}

func (m *Memory) ListCommitsByOwner(_ context.Context, owner string) ([]model.Commit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Commit
	for _, sha := range m.commitOrder {
		commit := m.commits[sha]
		if commit.RepoOwner == owner {
			out = append(out, commit)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CommitterDate.After(out[j].CommitterDate)
	})
	return out, nil
}

func (m *Memory) CountCommitsByRepo(_ context.Context, owner, name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, commit := range m.commits {
		if commit.RepoOwner == owner && commit.RepoName == name {
			count++
		}
	}
	return count, nil
}

func (m *Memory) ContributorExists(_ context.Context, owner, name, contributor string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.contributors[contributorKey(owner, name, contributor)]
	return ok, nil
}

func (m *Memory) InsertContributor(_ context.Context, contributor *model.Contributor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := contributorKey(contributor.RepoOwner, contributor.RepoName, contributor.Name)
	if _, ok := m.contributors[key]; ok {
		return nil
	}
	m.contributors[key] = *contributor
	m.contributorOrder = append(m.contributorOrder, key)
	return nil
}

func (m *Memory) ListContributorsByRepo(_ context.Context, owner, name string) ([]model.Contributor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Contributor
	for _, key := range m.contributorOrder {
		contributor := m.contributors[key]
		if contributor.RepoOwner == owner && contributor.RepoName == name {
			out = append(out, contributor)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Contributions > out[j].Contributions
	})
	return out, nil
}

func (m *Memory) Counts(_ context.Context) (Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Counts{
		Accounts:     int64(len(m.accounts)),
		Repositories: int64(len(m.repos)),
		Commits:      int64(len(m.commits)),
		Contributors: int64(len(m.contributors)),
	}, nil
}

func (m *Memory) InsertSearchLog(_ context.Context, log *model.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = m.nextLogID
	m.nextLogID++
	m.searchLogs = append(m.searchLogs, *log)
	return nil
}

func (m *Memory) UpdateSearchLogStatus(_ context.Context, id int64, status string, processingMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.searchLogs {
		if m.searchLogs[i].ID == id {
			m.searchLogs[i].Status = status
			ms := processingMs
			m.searchLogs[i].ProcessingMs = &ms
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListSearchLogsSince(_ context.Context, since time.Time) ([]model.SearchLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.SearchLog
	for _, log := range m.searchLogs {
		if log.SearchedAt.After(since) {
			out = append(out, log)
		}
	}
	return out, nil
}

func sortByStarsDesc(repos []model.Repository) {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].StarsCount > repos[j].StarsCount
	})
}
