package recall

// Fallback describes one alternative query formulation unlocked when earlier
// rounds fall short.
type Fallback struct {
	Name             string
	Description      string
	DropExactPhrases bool
	UseOR            bool
	AddRelatedTerms  bool
}

// FallbackStrategies returns the fallback formulations available at the
// given round, cheapest first. Round 1 never unlocks fallbacks.
func (p *Planner) FallbackStrategies(searchType string, roundNum int) []Fallback {
	var out []Fallback

	if roundNum >= 2 {
		out = append(out, Fallback{
			Name:             "broad-match",
			Description:      "drop exact phrases, join terms with OR, add related terms",
			DropExactPhrases: true,
			UseOR:            true,
			AddRelatedTerms:  true,
		})
	}
	if roundNum >= 3 {
		out = append(out, Fallback{
			Name:            "semantic-expansion",
			Description:     "replace terms with semantically close alternatives",
			AddRelatedTerms: true,
		})
	}

	switch searchType {
	case TypeFiletype:
		if roundNum >= 2 {
			out = append(out,
				Fallback{
					Name:        "content-search",
					Description: "search page content instead of file listings",
				},
				Fallback{
					Name:        "archive-search",
					Description: "search document archives and mirrors",
				},
			)
		}
	case TypeProximity:
		if roundNum >= 2 {
			out = append(out,
				Fallback{
					Name:        "relaxed-distance",
					Description: "widen the allowed word distance",
				},
				Fallback{
					Name:        "co-occurrence",
					Description: "require only co-occurrence, not ordering",
				},
			)
		}
	}

	return out
}
