// Package analytics derives account and repository statistics from the facts
// currently in the store. No network calls happen here; a refresh that failed
// upstream simply shows up as smaller numbers.
package analytics

import (
	"log/slog"
	"time"

	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

const dateLayout = "2006-01-02"

// Aggregator builds analytics results from FactStore reads.
type Aggregator struct {
	store  store.FactStore
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(facts store.FactStore, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:  facts,
		logger: logger,
		now:    time.Now,
	}
}
