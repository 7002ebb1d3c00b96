// Package searchlog classifies analyzed GitHub URLs, records them in the
// audit trail, and summarizes the trail into search analytics.
package searchlog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/abhishek2316/git-complexity-analyzer/internal/model"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

const dateLayout = "2006-01-02"

var (
	userProfilePattern = regexp.MustCompile(`^https://github\.com/([^/]+)/?$`)
	repositoryPattern  = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/?$`)
)

// Classification is the parsed form of a submitted GitHub URL.
type Classification struct {
	Type     string
	Username string
	Repo     string
}

// Classify matches the URL against the profile and repository shapes.
// Anything else is UNKNOWN.
func Classify(url string) Classification {
	url = strings.TrimSpace(url)
	if m := userProfilePattern.FindStringSubmatch(url); m != nil {
		return Classification{Type: model.SearchTypeUserProfile, Username: m[1]}
	}
	if m := repositoryPattern.FindStringSubmatch(url); m != nil {
		return Classification{Type: model.SearchTypeRepository, Username: m[1], Repo: m[2]}
	}
	return Classification{Type: model.SearchTypeUnknown}
}

// Recorder writes and summarizes the search audit trail.
type Recorder struct {
	store  store.SearchLogStore
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a new Recorder instance.
func NewRecorder(logs store.SearchLogStore, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  logs,
		logger: logger,
		now:    time.Now,
	}
}

// LogSearch classifies the URL and inserts a PENDING audit row, returning it
// with its assigned ID. Logging failures are not fatal to the caller.
func (r *Recorder) LogSearch(ctx context.Context, url, ipAddress, userAgent string) *model.SearchLog {
	c := Classify(url)
	entry := &model.SearchLog{
		URL:        strings.TrimSpace(url),
		SearchType: c.Type,
		Username:   c.Username,
		Repo:       c.Repo,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Status:     model.SearchStatusPending,
		SearchedAt: r.now(),
	}
	if err := r.store.InsertSearchLog(ctx, entry); err != nil {
		r.logger.Error("Failed to insert search log", "url", url, "error", err)
		return nil
	}
	return entry
}

// Complete marks the audit row with its outcome and elapsed time. A nil
// entry, from a failed insert, is a no-op.
func (r *Recorder) Complete(ctx context.Context, entry *model.SearchLog, succeeded bool) {
	if entry == nil {
		return
	}
	status := model.SearchStatusSuccess
	if !succeeded {
		status = model.SearchStatusFailed
	}
	elapsed := int(r.now().Sub(entry.SearchedAt).Milliseconds())
	if err := r.store.UpdateSearchLogStatus(ctx, entry.ID, status, elapsed); err != nil {
		r.logger.Error("Failed to update search log", "id", entry.ID, "error", err)
	}
}

// BuildSearchAnalytics summarizes the trailing `days` of the audit trail.
func (r *Recorder) BuildSearchAnalytics(ctx context.Context, days int) (*model.SearchAnalytics, error) {
	since := r.now().AddDate(0, 0, -days)
	logs, err := r.store.ListSearchLogsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("listing search logs: %w", err)
	}

	result := &model.SearchAnalytics{
		TotalSearches:      len(logs),
		DailySearches:      []model.DailySearches{},
		HourlyDistribution: make(map[int]int),
		TopSearchedUsers:   []model.TopSearchedItem{},
		TopSearchedRepos:   []model.TopSearchedItem{},
	}
	if len(logs) == 0 {
		return result, nil
	}

	byDay := make(map[string]*model.DailySearches)
	users := make(map[string]*model.TopSearchedItem)
	repos := make(map[string]*model.TopSearchedItem)
	var userOrder, repoOrder []string

	var processed, totalMs int
	for i := range logs {
		entry := &logs[i]
		switch entry.Status {
		case model.SearchStatusSuccess:
			result.SuccessfulSearches++
		case model.SearchStatusFailed:
			result.FailedSearches++
		}

		date := entry.SearchedAt.Format(dateLayout)
		day, ok := byDay[date]
		if !ok {
			day = &model.DailySearches{Date: date}
			byDay[date] = day
		}
		day.Total++
		switch entry.Status {
		case model.SearchStatusSuccess:
			day.Successful++
		case model.SearchStatusFailed:
			day.Failed++
		}

		result.HourlyDistribution[entry.SearchedAt.Hour()]++

		switch entry.SearchType {
		case model.SearchTypeUserProfile:
			bumpItem(users, &userOrder, entry.Username, entry.SearchedAt)
		case model.SearchTypeRepository:
			bumpItem(repos, &repoOrder, entry.Username+"/"+entry.Repo, entry.SearchedAt)
		}

		if entry.ProcessingMs != nil {
			ms := *entry.ProcessingMs
			processed++
			totalMs += ms
			if ms > result.MaxProcessingMs {
				result.MaxProcessingMs = ms
			}
			if result.MinProcessingMs == 0 || ms < result.MinProcessingMs {
				result.MinProcessingMs = ms
			}
		}
	}

	result.SuccessRate = round2(float64(result.SuccessfulSearches) / float64(len(logs)) * 100)
	if processed > 0 {
		result.AverageProcessingMs = round2(float64(totalMs) / float64(processed))
	}

	for _, day := range byDay {
		result.DailySearches = append(result.DailySearches, *day)
	}
	sort.Slice(result.DailySearches, func(i, j int) bool {
		return result.DailySearches[i].Date < result.DailySearches[j].Date
	})

	result.TopSearchedUsers = topItems(users, userOrder)
	result.TopSearchedRepos = topItems(repos, repoOrder)
	return result, nil
}

// round2 rounds half-up to two decimal places.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func bumpItem(items map[string]*model.TopSearchedItem, order *[]string, key string, at time.Time) {
	if key == "" || key == "/" {
		return
	}
	item, ok := items[key]
	if !ok {
		item = &model.TopSearchedItem{Key: key}
		items[key] = item
		*order = append(*order, key)
	}
	item.SearchCount++
	if item.LastSearched == nil || at.After(*item.LastSearched) {
		t := at
		item.LastSearched = &t
	}
}

// topItems keeps the first-seen order on ties and returns at most ten.
func topItems(items map[string]*model.TopSearchedItem, order []string) []model.TopSearchedItem {
	out := make([]model.TopSearchedItem, 0, len(order))
	for _, key := range order {
		out = append(out, *items[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SearchCount > out[j].SearchCount
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
