package recall

import (
	"strings"

	"github.com/dragnet-io/dragnet/core"
)

// TLDs with persistently poor signal quality; results there are penalized.
var lowTrustTLDs = []string{
	".xyz", ".top", ".click", ".loan", ".work", ".gq", ".cf", ".tk", ".ml",
}

// Extensions counted as document hits for filetype searches.
var documentExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf", ".csv",
}

// ScoreResult scores a result's relevance to the query terms on [0,1].
// Equivalent to ScoreResultWithSignal with no external relevance signal.
func (p *Planner) ScoreResult(result *core.SearchResult, searchType string, queryTerms []string) float64 {
	return p.ScoreResultWithSignal(result, searchType, queryTerms, 0)
}

// ScoreResultWithSignal scores a result's relevance on [0,1]. The signal is
// an externally supplied relevance value on [0,1], applied only to location
// and language searches.
//
// The base score is 0.5, moved by the fraction of query terms matching the
// title (0.3 weight), snippet (0.2) and URL (0.1), penalized for low-trust
// TLDs, then adjusted per search type.
func (p *Planner) ScoreResultWithSignal(result *core.SearchResult, searchType string, queryTerms []string, signal float64) float64 {
	score := 0.5
	if result == nil {
		return score
	}

	terms := make([]string, 0, len(queryTerms))
	for _, t := range queryTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}

	if len(terms) > 0 {
		title := strings.ToLower(result.Title)
		snippet := strings.ToLower(result.Snippet)
		url := strings.ToLower(result.URL)

		score += 0.3 * matchRatio(title, terms)
		score += 0.2 * matchRatio(snippet, terms)
		score += 0.1 * matchRatio(url, terms)
	}

	if hasLowTrustTLD(result.URL) {
		score -= 0.2
	}

	switch searchType {
	case TypeFiletype:
		if hasDocumentExtension(result.URL) {
			score += 0.2
		}
	case TypeProximity:
		if len(terms) >= 2 {
			snippet := strings.ToLower(result.Snippet)
			if strings.Contains(snippet, terms[0]) && strings.Contains(snippet, terms[1]) {
				score += 0.3
			}
		}
	case TypeLocation, TypeLanguage:
		if signal > 0 {
			if signal > 1 {
				signal = 1
			}
			score += 0.4 * signal
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func matchRatio(text string, terms []string) float64 {
	matching := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matching++
		}
	}
	return float64(matching) / float64(len(terms))
}

func hasLowTrustTLD(url string) bool {
	host := core.DomainOf(url)
	for _, tld := range lowTrustTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}
	return false
}

func hasDocumentExtension(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range documentExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
