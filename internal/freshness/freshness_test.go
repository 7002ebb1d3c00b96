package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("zero timestamp is always stale", func(t *testing.T) {
		assert.True(t, IsStale(KindAccount, time.Time{}, now))
		assert.True(t, IsStale(KindRepository, time.Time{}, now))
	})

	t.Run("repository inside TTL is fresh", func(t *testing.T) {
		assert.False(t, IsStale(KindRepository, now.Add(-5*time.Hour), now))
	})

	t.Run("repository past TTL is stale", func(t *testing.T) {
		assert.True(t, IsStale(KindRepository, now.Add(-7*time.Hour), now))
	})

	t.Run("exactly at the TTL boundary is stale", func(t *testing.T) {
		assert.True(t, IsStale(KindRepository, now.Add(-RepositoryTTL), now))
		assert.True(t, IsStale(KindAccount, now.Add(-AccountTTL), now))
	})

	t.Run("account inside its longer TTL is fresh", func(t *testing.T) {
		assert.False(t, IsStale(KindAccount, now.Add(-23*time.Hour), now))
	})
}

func TestStaleTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, kind := range []Kind{KindAccount, KindRepository} {
		assert.True(t, IsStale(kind, StaleTimestamp(kind, now), now))
	}
}
