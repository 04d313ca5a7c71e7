package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Mask(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Internal punctuation cannot smuggle a word through",
			input:    "Look at B.a.d.g.e.r !",
			expected: "Look at *********** !",
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Accents elsewhere in the sentence (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
		},
		{
			name:     "Nothing to censor",
			input:    "This platform is amazing",
			expected: "This platform is amazing",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Mask(tt.input), "test=%s", tt.name)
		})
	}
}

func TestModerator_NoiseOnlyPatterns(t *testing.T) {
	req := require.New(t)

	// Noise-only entries normalize to nothing and must not censor
	// everything.
	dictionary := []string{"...", ",,,", "badger"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	req.Equal("The ****** is safe", mod.Mask("The badger is safe"))
	req.Equal("Hello ...", mod.Mask("Hello ..."))
}
