package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Margherita Pizza", "Margherita Pizza", 1.0},
		{"case and spacing ignored", "margherita  pizza", "Margherita Pizza", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "Carbonara", "", 0.0},
		{"single rune", "a", "ab", 0.0},
		{"disjoint", "xy", "ab", 0.0},
		{"accented identical", "Crème  Brûlée", "crème brûlée", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarityNearMatch(t *testing.T) {
	// A one-letter typo in a long name stays above the threshold.
	score := Similarity("Chicken Tikka Masala", "Chicken Tika Masala")
	assert.Greater(t, score, Threshold)

	// Different dishes from the same cuisine stay below it.
	score = Similarity("Vegetable Biryani", "Paneer Butter Masala")
	assert.Less(t, score, Threshold)
}

func TestSimilarityMultibyteRunes(t *testing.T) {
	// Bigrams pair whole runes, so dropping one accent costs exactly two
	// of the ten bigrams on each side. Byte-level pairing would split the
	// accented characters mid-sequence and skew the score.
	score := Similarity("Crème Brûlée", "Crème Brulée")
	assert.InDelta(t, 0.8, score, 1e-9)
}

func TestSimilaritySymmetry(t *testing.T) {
	a, b := "Pad Thai", "Pad See Ew"
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}
