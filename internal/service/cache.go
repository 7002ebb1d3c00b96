package service

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
)

// resultCache keeps recently built analytics keyed by entity, so repeated
// reads inside the TTL skip the store entirely. Refreshes write through.
type resultCache struct {
	accounts *lru.Cache[string, accountCacheEntry]
	repos    *lru.Cache[string, repoCacheEntry]
	ttl      time.Duration
}

type accountCacheEntry struct {
	created time.Time
	data    *model.AccountAnalytics
}

type repoCacheEntry struct {
	created time.Time
	data    *model.RepositoryAnalytics
}

func newResultCache(size int, ttl time.Duration) (*resultCache, error) {
	accounts, err := lru.New[string, accountCacheEntry](size)
	if err != nil {
		return nil, err
	}
	repos, err := lru.New[string, repoCacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &resultCache{accounts: accounts, repos: repos, ttl: ttl}, nil
}

func (c *resultCache) getAccount(username string, now time.Time) (*model.AccountAnalytics, bool) {
	entry, ok := c.accounts.Get(username)
	if !ok || entry.created.Add(c.ttl).Before(now) {
		return nil, false
	}
	return entry.data, true
}

func (c *resultCache) putAccount(username string, data *model.AccountAnalytics, now time.Time) {
	c.accounts.Add(username, accountCacheEntry{created: now, data: data})
}

func (c *resultCache) dropAccount(username string) {
	c.accounts.Remove(username)
}

func (c *resultCache) getRepo(key string, now time.Time) (*model.RepositoryAnalytics, bool) {
	entry, ok := c.repos.Get(key)
	if !ok || entry.created.Add(c.ttl).Before(now) {
		return nil, false
	}
	return entry.data, true
}

func (c *resultCache) putRepo(key string, data *model.RepositoryAnalytics, now time.Time) {
	c.repos.Add(key, repoCacheEntry{created: now, data: data})
}

func (c *resultCache) dropRepo(key string) {
	c.repos.Remove(key)
}
