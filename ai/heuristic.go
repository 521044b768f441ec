package ai

import (
	"context"
	"strings"
)

// HeuristicCategorizer is a rule-based Categorizer used when no model-backed
// categorizer is configured. It keys off URL and title keywords, so anchor
// expansion still functions offline.
type HeuristicCategorizer struct{}

var _ Categorizer = (*HeuristicCategorizer)(nil)

// NewHeuristicCategorizer creates the rule-based categorizer.
func NewHeuristicCategorizer() *HeuristicCategorizer {
	return &HeuristicCategorizer{}
}

var categoryHints = []struct {
	label string
	hints []string
}{
	{"academic", []string{"arxiv.org", "pubmed", "doi.org", "scholar.", ".edu/", "journal", "proceedings"}},
	{"news", []string{"/news/", "reuters.", "apnews.", "bbc.", "nytimes.", "guardian.", "breaking"}},
	{"social", []string{"twitter.", "x.com", "facebook.", "instagram.", "linkedin.", "tiktok.", "mastodon"}},
	{"forum", []string{"reddit.", "stackoverflow.", "stackexchange.", "news.ycombinator.", "/forum", "discourse."}},
	{"code", []string{"github.", "gitlab.", "bitbucket.", "/blob/", "/src/"}},
	{"book", []string{"goodreads.", "openlibrary.", "books.google", "isbn"}},
	{"video", []string{"youtube.", "youtu.be", "vimeo.", "twitch."}},
	{"image", []string{"flickr.", "imgur.", ".jpg", ".png", ".webp"}},
	{"document", []string{".pdf", ".doc", ".docx", ".ppt", ".xls"}},
}

// Categorize never fails; unmatched results are "general".
func (h *HeuristicCategorizer) Categorize(_ context.Context, title, snippet, url string) (string, error) {
	haystack := strings.ToLower(url + " " + title + " " + snippet)
	for _, c := range categoryHints {
		for _, hint := range c.hints {
			if strings.Contains(haystack, hint) {
				return c.label, nil
			}
		}
	}
	return "general", nil
}
