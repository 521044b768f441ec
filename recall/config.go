package recall

import (
	"fmt"
	"strings"
)

// Mode governs the precision/completeness trade-off of a search run.
type Mode int

const (
	// ModeMaximum favors completeness: every expansion type, no filtering.
	ModeMaximum Mode = iota + 1
	// ModeBalanced trades breadth for precision round by round.
	ModeBalanced
	// ModePrecision favors exactness: primary engines only, strict filtering.
	ModePrecision
)

// String returns the mode name used in logs and CLI flags.
func (m Mode) String() string {
	switch m {
	case ModeMaximum:
		return "maximum"
	case ModeBalanced:
		return "balanced"
	case ModePrecision:
		return "precision"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name. Empty input defaults to ModeBalanced.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "balanced":
		return ModeBalanced, nil
	case "maximum", "max":
		return ModeMaximum, nil
	case "precision":
		return ModePrecision, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// FilterLevel adjusts the confidence threshold applied to scored results.
type FilterLevel int

const (
	// FilterNone disables filtering entirely.
	FilterNone FilterLevel = iota + 1
	// FilterMinimal lowers the threshold.
	FilterMinimal
	// FilterModerate keeps the mode's baseline threshold.
	FilterModerate
	// FilterStrict raises the threshold.
	FilterStrict
)

// Config holds the numeric knobs and feature toggles of the planner.
type Config struct {
	Mode        Mode
	FilterLevel FilterLevel

	MaxRounds           int
	MinResultsThreshold int
	MaxResultsPerEngine int
	ConfidenceThreshold float64

	EnableExpansion             bool
	EnableFallback              bool
	EnableSemantic              bool
	EnableMisspellings          bool
	EnableProgressiveRelaxation bool
	EnableMetrics               bool
}

// DefaultConfig returns the balanced defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                        ModeBalanced,
		FilterLevel:                 FilterModerate,
		MaxRounds:                   3,
		MinResultsThreshold:         10,
		MaxResultsPerEngine:         30,
		ConfidenceThreshold:         0.5,
		EnableExpansion:             true,
		EnableFallback:              true,
		EnableSemantic:              true,
		EnableProgressiveRelaxation: true,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Mode != ModeMaximum && c.Mode != ModeBalanced && c.Mode != ModePrecision {
		return fmt.Errorf("%w: mode %d", ErrInvalidConfig, c.Mode)
	}
	if c.FilterLevel < FilterNone || c.FilterLevel > FilterStrict {
		return fmt.Errorf("%w: filter level %d", ErrInvalidConfig, c.FilterLevel)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("%w: max rounds must be positive", ErrInvalidConfig)
	}
	if c.MinResultsThreshold < 1 {
		return fmt.Errorf("%w: min results threshold must be positive", ErrInvalidConfig)
	}
	if c.MaxResultsPerEngine < 1 {
		return fmt.Errorf("%w: per-engine cap must be positive", ErrInvalidConfig)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence threshold must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}
