package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	id1 := IDFromContent("https://example.com/page")
	id2 := IDFromContent("https://example.com/page")
	if id1 != id2 {
		t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
	}

	id3 := IDFromContent("https://example.com/other")
	if id1 == id3 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "lowercases scheme and host",
			raw:  "HTTPS://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "strips trailing slash",
			raw:  "https://example.com/path/",
			want: "https://example.com/path",
		},
		{
			name: "strips root slash",
			raw:  "https://example.com/",
			want: "https://example.com",
		},
		{
			name: "adds missing scheme",
			raw:  "example.com/page",
			want: "https://example.com/page",
		},
		{
			name: "preserves query case",
			raw:  "https://example.com/p?Q=Abc",
			want: "https://example.com/p?Q=Abc",
		},
		{
			name: "drops fragment",
			raw:  "https://example.com/p#Section",
			want: "https://example.com/p",
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeURL(%q) expected error, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURL(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAddSourceIdempotent(t *testing.T) {
	r := &SearchResult{
		URL:     "https://example.com/a",
		Title:   "A title long enough",
		Snippet: "A snippet that is long enough to avoid penalty",
	}

	if !r.AddSource(SourceGoogle) {
		t.Fatal("first AddSource should report newly added")
	}
	score := r.QualityScore

	if r.AddSource(SourceGoogle) {
		t.Error("re-adding the same source should not report newly added")
	}
	if len(r.FoundBy) != 1 {
		t.Errorf("FoundBy grew on duplicate add: %v", r.FoundBy)
	}
	if r.QualityScore != score {
		t.Errorf("score changed on duplicate add: %d -> %d", score, r.QualityScore)
	}
}

func TestQualityScoreMonotonic(t *testing.T) {
	r := &SearchResult{
		URL:     "https://example.com/a",
		Title:   "A title long enough",
		Snippet: "A snippet that is long enough to avoid penalty",
	}

	prev := 0
	for _, code := range []string{SourceGoogle, SourceBing, SourceExa, SourceArxiv, SourceCorpus, "XX"} {
		r.AddSource(code)
		if r.QualityScore < prev {
			t.Errorf("score decreased after adding %s: %d -> %d", code, prev, r.QualityScore)
		}
		prev = r.QualityScore
	}
}

func TestComputeQualityScore(t *testing.T) {
	tests := []struct {
		name    string
		foundBy []string
		title   string
		snippet string
		want    int
	}{
		{
			name:    "single common source, good lengths",
			foundBy: []string{SourceGoogle},
			title:   "A sufficiently long title",
			snippet: "A snippet comfortably over twenty characters",
			want:    15, // 10 base + 5 GO
		},
		{
			name:    "two sources",
			foundBy: []string{SourceGoogle, SourceBing},
			title:   "A sufficiently long title",
			snippet: "A snippet comfortably over twenty characters",
			want:    30, // 10 + 10 multi + 5 + 5
		},
		{
			name:    "corpus bonus",
			foundBy: []string{SourceCorpus},
			title:   "A sufficiently long title",
			snippet: "A snippet comfortably over twenty characters",
			want:    30, // 10 + 20
		},
		{
			name:    "short title and snippet penalties",
			foundBy: []string{SourceDuck},
			title:   "short",
			snippet: "tiny",
			want:    0, // 10 - 5 - 5, DU has no bonus
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeQualityScore(tt.foundBy, tt.title, tt.snippet)
			if got != tt.want {
				t.Errorf("ComputeQualityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMergeSnippet(t *testing.T) {
	r := &SearchResult{
		URL:     "https://example.com/a",
		Title:   "A sufficiently long title",
		Snippet: "short one",
		FoundBy: []string{SourceGoogle},
	}

	r.MergeSnippet("a strictly longer snippet than before")
	if r.Snippet != "a strictly longer snippet than before" {
		t.Errorf("longer snippet not adopted: %q", r.Snippet)
	}

	r.MergeSnippet("tiny")
	if r.Snippet == "tiny" {
		t.Error("shorter snippet must not replace longer one")
	}
}

func TestDocumentFromResult(t *testing.T) {
	r := &SearchResult{
		URL:     "https://example.com/a",
		Title:   "Title",
		Snippet: "Snippet",
		FoundBy: []string{SourceGoogle, SourceBing},
	}
	r.QualityScore = ComputeQualityScore(r.FoundBy, r.Title, r.Snippet)

	doc := DocumentFromResult(r)
	if doc.Id != IDFromContent(r.URL) {
		t.Error("document ID must derive from the normalized URL")
	}
	if doc.Score != r.QualityScore {
		t.Errorf("score not carried: %d vs %d", doc.Score, r.QualityScore)
	}

	// Mutating the document's sources must not alias the result.
	doc.Sources[0] = "mutated"
	if r.FoundBy[0] == "mutated" {
		t.Error("document sources alias the result's FoundBy slice")
	}
}

func TestDomainOf(t *testing.T) {
	if got := DomainOf("https://Sub.Example.com/page"); got != "sub.example.com" {
		t.Errorf("DomainOf() = %q", got)
	}
	if got := DomainOf("example.org"); got != "example.org" {
		t.Errorf("DomainOf() without scheme = %q", got)
	}
}
