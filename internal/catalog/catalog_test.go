package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhrases_AreDistinct(t *testing.T) {
	seen := make(map[string]bool, len(Phrases))
	for _, p := range Phrases {
		require.NotEmpty(t, p)
		require.False(t, seen[p], "duplicate phrase %q", p)
		seen[p] = true
	}
	require.Len(t, seen, 20)
}

func TestPick_Uniform(t *testing.T) {
	const n = 10000
	expected := n / len(Phrases)
	tolerance := expected / 5 // about 4.5 standard deviations

	c := NewSeeded(42)
	counts := make(map[string]int, len(Phrases))
	for range n {
		p := c.Pick()
		require.True(t, Contains(p))
		counts[p]++
	}

	require.Len(t, counts, len(Phrases), "every phrase should be drawn at least once")
	for phrase, got := range counts {
		require.InDelta(t, expected, got, float64(tolerance), "phrase %q", phrase)
	}
}

func TestNewSeeded_Deterministic(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for range 50 {
		require.Equal(t, a.Pick(), b.Pick())
	}
}

func TestNew_UsesGlobalSource(t *testing.T) {
	c := New()
	for range 100 {
		require.True(t, Contains(c.Pick()))
	}
}

func TestContains(t *testing.T) {
	require.True(t, Contains("Outlook good."))
	require.False(t, Contains("outlook good."))
	require.False(t, Contains(""))
}
