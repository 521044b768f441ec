package phrase

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher extracts exact phrases from queries and checks candidate text
// against them. Implementations must be thread-safe for concurrent use.
type Matcher interface {
	// ExtractPhrases returns the quoted phrases present in a raw query.
	ExtractPhrases(query string) []string

	// CheckExactMatch reports whether text contains the phrase verbatim,
	// ignoring case and collapsing runs of whitespace.
	CheckExactMatch(text, phrase string) bool

	// CheckProximity reports whether all words of the phrase appear in text,
	// in order, with at most maxDistance intervening words between
	// consecutive phrase words. The detail string describes the match.
	CheckProximity(text, phrase string, maxDistance int) (bool, string)
}

var quotedPhrase = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// Default is the standard phrase matcher.
type Default struct{}

var _ Matcher = (*Default)(nil)

// NewMatcher creates the standard matcher.
func NewMatcher() *Default {
	return &Default{}
}

// ExtractPhrases returns single- or double-quoted phrases in order of
// appearance. Quotes around a single word still count as a phrase.
func (d *Default) ExtractPhrases(query string) []string {
	matches := quotedPhrase.FindAllStringSubmatch(query, -1)
	phrases := make([]string, 0, len(matches))
	for _, m := range matches {
		p := m[1]
		if p == "" {
			p = m[2]
		}
		p = strings.TrimSpace(p)
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	return phrases
}

// CheckExactMatch reports a case-insensitive, whitespace-normalized
// substring match.
func (d *Default) CheckExactMatch(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(collapse(text), collapse(phrase))
}

// CheckProximity walks the text tokens looking for the phrase words in
// order, allowing up to maxDistance other words between each pair.
func (d *Default) CheckProximity(text, phrase string, maxDistance int) (bool, string) {
	phraseWords := tokenize(phrase)
	if len(phraseWords) == 0 {
		return false, "empty phrase"
	}
	textWords := tokenize(text)
	if len(textWords) == 0 {
		return false, "empty text"
	}

	// Single-word phrases degenerate to presence.
	if len(phraseWords) == 1 {
		for _, w := range textWords {
			if w == phraseWords[0] {
				return true, fmt.Sprintf("word %q present", phraseWords[0])
			}
		}
		return false, fmt.Sprintf("word %q absent", phraseWords[0])
	}

	for start := 0; start < len(textWords); start++ {
		if textWords[start] != phraseWords[0] {
			continue
		}
		pos := start
		matched := 1
		for next := 1; next < len(phraseWords); next++ {
			found := -1
			limit := pos + maxDistance + 1
			if limit >= len(textWords) {
				limit = len(textWords) - 1
			}
			for i := pos + 1; i <= limit; i++ {
				if textWords[i] == phraseWords[next] {
					found = i
					break
				}
			}
			if found < 0 {
				break
			}
			pos = found
			matched++
		}
		if matched == len(phraseWords) {
			return true, fmt.Sprintf("matched %d words within distance %d", matched, maxDistance)
		}
	}

	return false, fmt.Sprintf("phrase %q not within distance %d", phrase, maxDistance)
}

func collapse(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func tokenize(s string) []string {
	words := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:'\"-()[]{}")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
