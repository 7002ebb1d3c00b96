// Package freshness decides when cached facts are too old to serve.
package freshness

import "time"

// Kind selects the TTL applied to a cached entity.
type Kind int

const (
	KindAccount Kind = iota
	KindRepository
)

// Kind-specific time-to-live windows.
const (
	AccountTTL    = 24 * time.Hour
	RepositoryTTL = 6 * time.Hour
)

// TTL returns the time-to-live for the given kind.
func TTL(kind Kind) time.Duration {
	if kind == KindAccount {
		return AccountTTL
	}
	return RepositoryTTL
}

// IsStale reports whether an entity last refreshed at `last` must be refetched
// at `now`. A zero `last` (never refreshed) is always stale.
func IsStale(kind Kind, last time.Time, now time.Time) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= TTL(kind)
}

// StaleTimestamp returns a synthetic last-refreshed value guaranteed to be
// stale at `now`: one full TTL beyond the staleness boundary. Force-refresh
// stores this and then walks the normal ensure path.
func StaleTimestamp(kind Kind, now time.Time) time.Time {
	return now.Add(-2 * TTL(kind))
}
