package fanout

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dragnet-io/dragnet/ai"
	"github.com/dragnet-io/dragnet/core"
	"github.com/dragnet-io/dragnet/engines"
	"github.com/dragnet-io/dragnet/phrase"
)

// proximityDistance is the maximum token gap tolerated when a phrase match
// falls back from exact to proximity.
const proximityDistance = 2

// resultSet is the shared per-run dedup map, keyed by normalized URL. Every
// mutation happens under one mutex; categorization runs outside it.
type resultSet struct {
	matcher     phrase.Matcher
	phrases     []string
	categorizer ai.Categorizer
	logger      *slog.Logger

	mu      sync.Mutex
	results map[string]*core.SearchResult
	seen    *lru.Cache[string, struct{}]
	raw     int
}

func newResultSet(matcher phrase.Matcher, phrases []string, categorizer ai.Categorizer, seenCap int, logger *slog.Logger) (*resultSet, error) {
	seen, err := lru.New[string, struct{}](seenCap)
	if err != nil {
		return nil, err
	}
	return &resultSet{
		matcher:     matcher,
		phrases:     phrases,
		categorizer: categorizer,
		logger:      logger,
		results:     make(map[string]*core.SearchResult),
		seen:        seen,
	}, nil
}

// accepted reports whether a result passes the exact-phrase filter. With no
// extracted phrases everything passes; otherwise the title+snippet must
// contain an exact or proximity match of at least one phrase.
func (rs *resultSet) accepted(title, snippet string) bool {
	if len(rs.phrases) == 0 {
		return true
	}
	text := title + " " + snippet
	for _, p := range rs.phrases {
		if rs.matcher.CheckExactMatch(text, p) {
			return true
		}
		if ok, _ := rs.matcher.CheckProximity(text, p, proximityDistance); ok {
			return true
		}
	}
	return false
}

// merge runs the dedup/merge rule over one task's raw results. It returns
// every touched entry (for the results event) and the subset seen for the
// first time (anchor candidates). preTagged entries skip categorization.
//
// The returned results are point-in-time copies snapshotted under the lock,
// so callers may read them freely while other tasks keep merging into the
// same URLs.
func (rs *resultSet) merge(ctx context.Context, code string, items []engines.Result, preTagged bool) (touched, fresh []*core.SearchResult) {
	var touchedEntries, freshEntries, uncategorized []*core.SearchResult

	rs.mu.Lock()
	rs.raw += len(items)
	for _, item := range items {
		normalized, err := core.NormalizeURL(item.URL)
		if err != nil {
			continue
		}
		if !rs.accepted(item.Title, item.Snippet) {
			continue
		}

		if existing, ok := rs.results[normalized]; ok {
			existing.AddSource(code)
			existing.MergeSnippet(item.Snippet)
			touchedEntries = append(touchedEntries, existing)
			continue
		}

		entry := &core.SearchResult{
			URL:         normalized,
			Title:       item.Title,
			Snippet:     item.Snippet,
			Category:    item.Metadata["category"],
			FirstSeenAt: time.Now().UTC(),
			Metadata:    item.Metadata,
		}
		entry.AddSource(code)
		rs.results[normalized] = entry
		touchedEntries = append(touchedEntries, entry)
		freshEntries = append(freshEntries, entry)
		if !preTagged && entry.Category == "" {
			uncategorized = append(uncategorized, entry)
		}
	}
	rs.mu.Unlock()

	rs.categorize(ctx, uncategorized)

	rs.mu.Lock()
	touched = make([]*core.SearchResult, 0, len(touchedEntries))
	for _, entry := range touchedEntries {
		touched = append(touched, copyResult(entry))
	}
	fresh = make([]*core.SearchResult, 0, len(freshEntries))
	for _, entry := range freshEntries {
		fresh = append(fresh, copyResult(entry))
	}
	rs.mu.Unlock()
	return touched, fresh
}

// copyResult snapshots one entry. FoundBy and Metadata get their own
// backing storage so later merges never show through the copy.
func copyResult(entry *core.SearchResult) *core.SearchResult {
	c := *entry
	c.FoundBy = append([]string(nil), entry.FoundBy...)
	if entry.Metadata != nil {
		c.Metadata = maps.Clone(entry.Metadata)
	}
	return &c
}

// categorize labels fresh entries best-effort. Failures are logged and the
// entry stays uncategorized.
func (rs *resultSet) categorize(ctx context.Context, entries []*core.SearchResult) {
	if rs.categorizer == nil {
		return
	}
	for _, entry := range entries {
		label, err := rs.categorizer.Categorize(ctx, entry.Title, entry.Snippet, entry.URL)
		if err != nil {
			rs.logger.Debug("categorization failed", "url", entry.URL, "err", err)
			continue
		}
		rs.mu.Lock()
		entry.Category = label
		rs.mu.Unlock()
	}
}

// claimDomain marks a domain as seen and reports whether this call claimed
// it. A domain evicted from the cap-bounded cache may be claimed again.
func (rs *resultSet) claimDomain(domain string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.seen.Get(domain); ok {
		return false
	}
	rs.seen.Add(domain, struct{}{})
	return true
}

// count returns the number of unique accepted URLs.
func (rs *resultSet) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.results)
}

// rawCount returns the number of raw results received before dedup.
func (rs *resultSet) rawCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.raw
}
