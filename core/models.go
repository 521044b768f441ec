package core

import (
	"encoding/binary"
	"net/url"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated from content-based hashing of the normalized URL.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Scope selects which search surfaces a query runs against.
type Scope int

const (
	// ScopeWeb searches external web engines only.
	ScopeWeb Scope = iota + 1
	// ScopeCorpus searches the local indexed corpus only.
	ScopeCorpus
	// ScopeBoth searches web engines and the local corpus.
	ScopeBoth
)

// String returns the scope name used in logs and CLI flags.
func (s Scope) String() string {
	switch s {
	case ScopeWeb:
		return "web"
	case ScopeCorpus:
		return "corpus"
	case ScopeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseScope parses a scope name. Empty input defaults to ScopeWeb.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "web":
		return ScopeWeb, nil
	case "corpus":
		return ScopeCorpus, nil
	case "both":
		return ScopeBoth, nil
	default:
		return 0, ErrInvalidScope
	}
}

// Query is the fully derived form of a raw search input.
// It is immutable after construction.
type Query struct {
	Raw          string   // Original input, untouched
	Concrete     string   // Macro-stripped query used for corpus search
	Web          string   // Expanded variant used for web engines
	ExactPhrases []string // Quoted phrases extracted from the raw input
	Level        int      // Aggressiveness level, 1-3
	Scope        Scope
	ForceAnchor  bool // Set when the raw input carried the +anchor token
}

// AnchorToken is the literal token that forces anchor expansion for a run.
const AnchorToken = "+anchor"

// Source codes for engines that contribute results. The registry may carry
// more codes than listed here; unknown codes earn no quality bonus.
const (
	SourceGoogle = "GO"
	SourceBing   = "BI"
	SourceExa    = "EX"
	SourceBrave  = "BR"
	SourceArxiv  = "AX"
	SourcePubMed = "PM"
	SourceDuck   = "DU"
	SourceMojeek = "MJ"
	SourceCorpus = "CORPUS"
	SourceAnchor = "ANCHOR"
)

// sourceBonus awards extra quality for rarer, higher-signal sources.
var sourceBonus = map[string]int{
	SourceGoogle: 5,
	SourceBing:   5,
	SourceExa:    10,
	SourceBrave:  5,
	SourceArxiv:  15,
	SourcePubMed: 15,
	SourceCorpus: 20,
}

// SearchResult is one deduplicated result within a run, keyed by normalized URL.
// It is created on first sighting and mutated on every later sighting.
type SearchResult struct {
	URL          string // Normalized, unique within a run
	Title        string
	Snippet      string
	FoundBy      []string // Ordered set of source codes
	QualityScore int
	Category     string
	FirstSeenAt  time.Time
	Metadata     map[string]string
}

// HasSource reports whether code is already recorded in FoundBy.
func (r *SearchResult) HasSource(code string) bool {
	for _, c := range r.FoundBy {
		if c == code {
			return true
		}
	}
	return false
}

// AddSource appends code to FoundBy if absent and recomputes the quality
// score. Returns true if the source was newly added.
func (r *SearchResult) AddSource(code string) bool {
	added := false
	if !r.HasSource(code) {
		r.FoundBy = append(r.FoundBy, code)
		added = true
	}
	r.QualityScore = ComputeQualityScore(r.FoundBy, r.Title, r.Snippet)
	return added
}

// MergeSnippet replaces the snippet only if the candidate is strictly longer,
// then recomputes the quality score.
func (r *SearchResult) MergeSnippet(snippet string) {
	if len(snippet) > len(r.Snippet) {
		r.Snippet = snippet
	}
	r.QualityScore = ComputeQualityScore(r.FoundBy, r.Title, r.Snippet)
}

// ComputeQualityScore derives the quality score from the sources that found a
// result plus title and snippet lengths. The score never decreases as FoundBy
// grows.
func ComputeQualityScore(foundBy []string, title, snippet string) int {
	score := 10
	if len(foundBy) > 1 {
		score += 10 * (len(foundBy) - 1)
	}
	for _, code := range foundBy {
		score += sourceBonus[code]
	}
	if len(title) < 10 {
		score -= 5
	}
	if len(snippet) < 20 {
		score -= 5
	}
	return score
}

// Document is the indexable projection of a SearchResult, persisted by the
// storage backends.
type Document struct {
	Id        ID
	URL       string
	Title     string
	Snippet   string
	Sources   []string
	Score     int
	Category  string
	Tags      []string
	Vector    []float32
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  map[string]string
}

// DocumentFromResult projects a SearchResult into its indexable form.
// The document ID is derived from the normalized URL, so re-indexing the same
// URL overwrites rather than duplicates.
func DocumentFromResult(r *SearchResult) Document {
	sources := make([]string, len(r.FoundBy))
	copy(sources, r.FoundBy)
	return Document{
		Id:        IDFromContent(r.URL),
		URL:       r.URL,
		Title:     r.Title,
		Snippet:   r.Snippet,
		Sources:   sources,
		Score:     r.QualityScore,
		Category:  r.Category,
		CreatedAt: r.FirstSeenAt,
		Metadata:  r.Metadata,
	}
}

// NormalizeURL canonicalizes a URL for use as a dedup key: the scheme and
// host are lowercased and a trailing slash is stripped from the path.
// A URL without a scheme is assumed to be https.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", ErrEmptyURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// DomainOf extracts the lowercased host from a URL, or "" if unparseable.
func DomainOf(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
