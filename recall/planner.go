package recall

import (
	"log/slog"
)

// Search types with round-gated strategy specializations. Any other string
// receives the mode baseline only.
const (
	TypeGeneral   = "general"
	TypeFiletype  = "filetype"
	TypeProximity = "proximity"
	TypeLocation  = "location"
	TypeCorporate = "corporate"
	TypeDate      = "date"
	TypeLanguage  = "language"
)

// Engine selection values on a Strategy.
const (
	EnginesPrimary = "primary"
	EnginesAll     = "all"
)

// Strategy is the per-round plan the orchestrator executes. It is built in
// three layers: mode baseline, filtering-level adjustment, then search-type
// specialization.
type Strategy struct {
	Mode            Mode
	Round           int
	EngineSelection string // EnginesPrimary or EnginesAll
	ExpansionTypes  []string
	FilterThreshold float64
	RelaxationLevel int
	UseFallback     bool

	// Search-type specific extras
	ExtraPatterns            []string // query templates appended to the round's variants
	ModifierExpansion        bool
	ContentSearchFallback    bool
	Bidirectional            bool
	DistanceVariations       bool
	RelaxedSnippetValidation bool
	SemanticProximity        bool
}

// Planner tunes search breadth versus precision across rounds.
// It is stateless between calls and safe for concurrent use.
type Planner struct {
	cfg    Config
	logger *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPlanner creates a planner from a validated configuration.
func NewPlanner(cfg Config, opts ...Option) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Config returns the planner's configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// SearchStrategy returns the strategy for one round. roundNum is 1-based.
func (p *Planner) SearchStrategy(searchType string, currentResults, roundNum int) Strategy {
	s := p.baseline(currentResults, roundNum)
	s.FilterThreshold = p.adjustThreshold(s.FilterThreshold)
	p.specialize(&s, searchType, roundNum)

	p.logger.Debug("planned round strategy",
		"searchType", searchType,
		"round", roundNum,
		"mode", s.Mode.String(),
		"engines", s.EngineSelection,
		"threshold", s.FilterThreshold,
		"fallback", s.UseFallback)
	return s
}

// baseline builds the mode layer of a strategy.
func (p *Planner) baseline(currentResults, roundNum int) Strategy {
	s := Strategy{
		Mode:            p.cfg.Mode,
		Round:           roundNum,
		EngineSelection: EnginesAll,
		FilterThreshold: p.cfg.ConfidenceThreshold,
	}

	underThreshold := currentResults < p.cfg.MinResultsThreshold

	switch p.cfg.Mode {
	case ModeMaximum:
		s.ExpansionTypes = []string{"synonyms", "related", "variations", "semantic"}
		if p.cfg.EnableMisspellings {
			s.ExpansionTypes = append(s.ExpansionTypes, "misspellings")
		}
		s.FilterThreshold = 0
		s.RelaxationLevel = roundNum - 1
		s.UseFallback = p.cfg.EnableFallback && underThreshold

	case ModeBalanced:
		if p.cfg.EnableExpansion && (roundNum > 1 || underThreshold) {
			s.ExpansionTypes = []string{"synonyms", "related"}
			if p.cfg.EnableSemantic && roundNum > 2 {
				s.ExpansionTypes = append(s.ExpansionTypes, "semantic")
			}
		}
		if roundNum == 1 {
			s.EngineSelection = EnginesPrimary
		}
		s.UseFallback = p.cfg.EnableFallback && underThreshold && roundNum > 1
		if p.cfg.EnableProgressiveRelaxation && roundNum > 1 {
			s.RelaxationLevel = roundNum - 2
		}

	case ModePrecision:
		s.ExpansionTypes = nil
		s.FilterThreshold = 0.7
		s.EngineSelection = EnginesPrimary
		s.UseFallback = false
	}

	return s
}

// adjustThreshold applies the filtering-level layer.
func (p *Planner) adjustThreshold(threshold float64) float64 {
	switch p.cfg.FilterLevel {
	case FilterNone:
		return 0
	case FilterMinimal:
		t := threshold - 0.2
		if t < 0.1 {
			t = 0.1
		}
		return t
	case FilterStrict:
		t := threshold + 0.2
		if t > 0.9 {
			t = 0.9
		}
		return t
	default:
		return threshold
	}
}

// specialize applies the search-type layer, gated by round number.
func (p *Planner) specialize(s *Strategy, searchType string, roundNum int) {
	switch searchType {
	case TypeFiletype:
		switch {
		case roundNum == 1:
			s.ExtraPatterns = []string{`intitle:"index of"`, `"parent directory"`}
		case roundNum == 2:
			s.ExtraPatterns = []string{"site:archive.org", "site:scribd.com"}
			s.ModifierExpansion = true
		default:
			s.ContentSearchFallback = true
		}

	case TypeProximity:
		s.Bidirectional = true
		s.DistanceVariations = true
		if roundNum > 1 {
			s.RelaxedSnippetValidation = true
		}
		if roundNum > 2 {
			s.SemanticProximity = true
		}

	case TypeLocation:
		if roundNum >= 2 {
			s.ExtraPatterns = []string{`"near"`, `"located in"`}
		}
		if roundNum > 2 {
			s.SemanticProximity = true
		}

	case TypeCorporate:
		if roundNum == 2 {
			s.ExtraPatterns = []string{"site:linkedin.com/company", `"annual report"`}
		}
		if roundNum > 2 {
			s.ContentSearchFallback = true
		}

	case TypeDate:
		if roundNum >= 2 {
			s.ExtraPatterns = []string{"site:web.archive.org"}
		}
		if roundNum > 2 {
			s.RelaxedSnippetValidation = true
		}

	case TypeLanguage:
		if roundNum > 1 {
			s.RelaxedSnippetValidation = true
		}
	}
}

// ShouldContinue is the continuation gate consulted after every round.
// It always refuses once roundNum reaches the configured maximum.
func (p *Planner) ShouldContinue(currentResults, roundNum int, searchType string) bool {
	if roundNum >= p.cfg.MaxRounds {
		return false
	}
	if p.cfg.Mode == ModeMaximum {
		return true
	}

	threshold := p.cfg.MinResultsThreshold
	if currentResults >= 2*threshold {
		return false
	}
	if currentResults < threshold {
		return true
	}

	switch p.cfg.Mode {
	case ModeBalanced:
		return float64(currentResults) < 1.5*float64(threshold)
	case ModePrecision:
		return currentResults < 5
	}
	return false
}
