package recall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlanner(t *testing.T, mutate func(*Config)) *Planner {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewPlanner(cfg)
	require.NoError(t, err)
	return p
}

func TestNewPlanner_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero mode", func(c *Config) { c.Mode = 0 }},
		{"bad filter level", func(c *Config) { c.FilterLevel = 99 }},
		{"zero rounds", func(c *Config) { c.MaxRounds = 0 }},
		{"zero threshold", func(c *Config) { c.MinResultsThreshold = 0 }},
		{"zero engine cap", func(c *Config) { c.MaxResultsPerEngine = 0 }},
		{"confidence above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewPlanner(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSearchStrategy_MaximumBaseline(t *testing.T) {
	p := newPlanner(t, func(c *Config) {
		c.Mode = ModeMaximum
		c.FilterLevel = FilterModerate
	})

	s := p.SearchStrategy(TypeGeneral, 0, 2)
	assert.Equal(t, 2, s.Round)
	assert.Equal(t, 1, s.RelaxationLevel, "relaxation level is roundNum-1")
	assert.Equal(t, 0.0, s.FilterThreshold, "maximum mode disables filtering")
	assert.Contains(t, s.ExpansionTypes, "synonyms")
	assert.Contains(t, s.ExpansionTypes, "semantic")
	assert.NotContains(t, s.ExpansionTypes, "misspellings", "misspellings require explicit opt-in")
	assert.True(t, s.UseFallback, "fallback enabled while under threshold")

	// At or over threshold, fallback is off.
	s = p.SearchStrategy(TypeGeneral, 50, 2)
	assert.False(t, s.UseFallback)
}

func TestSearchStrategy_MaximumMisspellingsOptIn(t *testing.T) {
	p := newPlanner(t, func(c *Config) {
		c.Mode = ModeMaximum
		c.EnableMisspellings = true
	})
	s := p.SearchStrategy(TypeGeneral, 0, 1)
	assert.Contains(t, s.ExpansionTypes, "misspellings")
}

func TestSearchStrategy_BalancedEngineSelection(t *testing.T) {
	p := newPlanner(t, nil)

	s1 := p.SearchStrategy(TypeGeneral, 50, 1)
	assert.Equal(t, EnginesPrimary, s1.EngineSelection, "round 1 uses primary engines")
	assert.Empty(t, s1.ExpansionTypes, "no expansion on round 1 when over threshold")

	s2 := p.SearchStrategy(TypeGeneral, 50, 2)
	assert.Equal(t, EnginesAll, s2.EngineSelection, "later rounds use all engines")
	assert.NotEmpty(t, s2.ExpansionTypes)

	sUnder := p.SearchStrategy(TypeGeneral, 2, 1)
	assert.NotEmpty(t, sUnder.ExpansionTypes, "under threshold expands even on round 1")
}

func TestSearchStrategy_Precision(t *testing.T) {
	p := newPlanner(t, func(c *Config) { c.Mode = ModePrecision })

	s := p.SearchStrategy(TypeGeneral, 0, 1)
	assert.Empty(t, s.ExpansionTypes)
	assert.Equal(t, EnginesPrimary, s.EngineSelection)
	assert.False(t, s.UseFallback, "precision never requests fallback")
	assert.InDelta(t, 0.7, s.FilterThreshold, 1e-9)
}

func TestSearchStrategy_FilterLevelAdjustment(t *testing.T) {
	tests := []struct {
		name  string
		level FilterLevel
		base  float64
		want  float64
	}{
		{"none zeroes", FilterNone, 0.5, 0},
		{"minimal subtracts", FilterMinimal, 0.5, 0.3},
		{"minimal floors at 0.1", FilterMinimal, 0.2, 0.1},
		{"moderate unchanged", FilterModerate, 0.5, 0.5},
		{"strict adds", FilterStrict, 0.5, 0.7},
		{"strict ceils at 0.9", FilterStrict, 0.85, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlanner(t, func(c *Config) {
				c.FilterLevel = tt.level
				c.ConfidenceThreshold = tt.base
			})
			s := p.SearchStrategy(TypeGeneral, 50, 2)
			assert.InDelta(t, tt.want, s.FilterThreshold, 1e-9)
		})
	}
}

func TestSearchStrategy_FiletypeRounds(t *testing.T) {
	p := newPlanner(t, nil)

	s1 := p.SearchStrategy(TypeFiletype, 0, 1)
	assert.Contains(t, s1.ExtraPatterns, `intitle:"index of"`)

	s2 := p.SearchStrategy(TypeFiletype, 0, 2)
	assert.True(t, s2.ModifierExpansion)
	assert.NotEmpty(t, s2.ExtraPatterns)

	s3 := p.SearchStrategy(TypeFiletype, 0, 3)
	assert.True(t, s3.ContentSearchFallback)
}

func TestSearchStrategy_ProximityRounds(t *testing.T) {
	p := newPlanner(t, nil)

	s1 := p.SearchStrategy(TypeProximity, 0, 1)
	assert.True(t, s1.Bidirectional)
	assert.True(t, s1.DistanceVariations)
	assert.False(t, s1.RelaxedSnippetValidation)
	assert.False(t, s1.SemanticProximity)

	s2 := p.SearchStrategy(TypeProximity, 0, 2)
	assert.True(t, s2.RelaxedSnippetValidation)
	assert.False(t, s2.SemanticProximity)

	s3 := p.SearchStrategy(TypeProximity, 0, 3)
	assert.True(t, s3.SemanticProximity)
}

func TestShouldContinue_MaxRoundsForAllModes(t *testing.T) {
	for _, mode := range []Mode{ModeMaximum, ModeBalanced, ModePrecision} {
		p := newPlanner(t, func(c *Config) { c.Mode = mode })
		maxRounds := p.Config().MaxRounds
		assert.False(t, p.ShouldContinue(0, maxRounds, TypeGeneral),
			"mode %s must stop at max rounds even with zero results", mode)
	}
}

func TestShouldContinue(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		results int
		round   int
		want    bool
	}{
		{"maximum always continues before max", ModeMaximum, 1000, 1, true},
		{"balanced over double threshold stops", ModeBalanced, 20, 1, false},
		{"balanced under threshold continues", ModeBalanced, 3, 1, true},
		{"balanced mid band under 1.5x", ModeBalanced, 12, 1, true},
		{"balanced mid band at 1.5x stops", ModeBalanced, 15, 1, false},
		{"precision under threshold continues", ModePrecision, 3, 1, true},
		{"precision mid band stops", ModePrecision, 12, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlanner(t, func(c *Config) { c.Mode = tt.mode })
			assert.Equal(t, tt.want, p.ShouldContinue(tt.results, tt.round, TypeGeneral))
		})
	}
}

func TestFallbackStrategies(t *testing.T) {
	p := newPlanner(t, nil)

	assert.Empty(t, p.FallbackStrategies(TypeGeneral, 1), "round 1 unlocks nothing")

	names := func(fs []Fallback) map[string]bool {
		out := map[string]bool{}
		for _, f := range fs {
			out[f.Name] = true
		}
		return out
	}

	r2 := names(p.FallbackStrategies(TypeGeneral, 2))
	assert.True(t, r2["broad-match"])
	assert.False(t, r2["semantic-expansion"])

	r3 := names(p.FallbackStrategies(TypeGeneral, 3))
	assert.True(t, r3["broad-match"])
	assert.True(t, r3["semantic-expansion"])

	ft := names(p.FallbackStrategies(TypeFiletype, 2))
	assert.True(t, ft["content-search"])
	assert.True(t, ft["archive-search"])

	px := names(p.FallbackStrategies(TypeProximity, 2))
	assert.True(t, px["relaxed-distance"])
	assert.True(t, px["co-occurrence"])
}
