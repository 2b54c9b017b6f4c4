package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"same", "same", 0},
		{"flaw", "lawn", 2},
		{"AQ-TH00-00", "AQ-TH00-01", 1},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
		assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a), "symmetric %q vs %q", tt.b, tt.a)
	}
}

func TestClosest(t *testing.T) {
	ids := []string{"WM-WF-KB04-70", "AQ-KH00-00", "AQ-KH00-01"}

	best, d := Closest("AQ-KH00-02", ids)
	assert.Equal(t, "AQ-KH00-00", best, "first candidate wins ties")
	assert.Equal(t, 1, d)

	best, d = Closest("x", nil)
	assert.Empty(t, best)
	assert.Equal(t, -1, d)
}
