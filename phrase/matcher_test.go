package phrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPhrases(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "double quoted",
			query: `find "climate report" now`,
			want:  []string{"climate report"},
		},
		{
			name:  "single quoted",
			query: `find 'annual review' now`,
			want:  []string{"annual review"},
		},
		{
			name:  "multiple phrases",
			query: `"first phrase" and 'second phrase'`,
			want:  []string{"first phrase", "second phrase"},
		},
		{
			name:  "no phrases",
			query: "plain words only",
			want:  []string{},
		},
		{
			name:  "empty quotes ignored",
			query: `before "" after`,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ExtractPhrases(tt.query))
		})
	}
}

func TestCheckExactMatch(t *testing.T) {
	m := NewMatcher()

	assert.True(t, m.CheckExactMatch("The Annual Climate Report 2024", "climate report"))
	assert.True(t, m.CheckExactMatch("annual   climate\treport", "climate report"))
	assert.False(t, m.CheckExactMatch("climate annual report", "climate report"))
	assert.False(t, m.CheckExactMatch("anything", ""))
}

func TestCheckProximity(t *testing.T) {
	m := NewMatcher()

	t.Run("adjacent words", func(t *testing.T) {
		ok, _ := m.CheckProximity("the climate report was published", "climate report", 2)
		assert.True(t, ok)
	})

	t.Run("within distance", func(t *testing.T) {
		ok, _ := m.CheckProximity("climate change annual report", "climate report", 2)
		assert.True(t, ok)
	})

	t.Run("beyond distance", func(t *testing.T) {
		ok, detail := m.CheckProximity("climate one two three four report", "climate report", 2)
		assert.False(t, ok)
		assert.NotEmpty(t, detail)
	})

	t.Run("single word phrase", func(t *testing.T) {
		ok, _ := m.CheckProximity("a climate summary", "climate", 0)
		assert.True(t, ok)
	})

	t.Run("missing word", func(t *testing.T) {
		ok, _ := m.CheckProximity("weather summary", "climate report", 5)
		assert.False(t, ok)
	})

	t.Run("empty phrase", func(t *testing.T) {
		ok, _ := m.CheckProximity("anything", "", 2)
		assert.False(t, ok)
	})
}
