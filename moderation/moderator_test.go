package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g. "he" inside "The").
func TestModerator_Censor(t *testing.T) {
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
			name:     "Leet speak and internal punctuation",
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Clean text is untouched",
			input:    "Nothing wrong in this sentence",
			expected: "Nothing wrong in this sentence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestLoadCensoredWords_EmbeddedDictionaries(t *testing.T) {
	req := require.New(t)

	data, err := LoadCensoredWords()
	req.NoError(err)

	// Both language files are loaded, comments and blanks skipped
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
	req.NotEmpty(data.Words)
	req.Contains(data.Words, "idiot")
	req.NotContains(data.Words, "# english blacklist")
}
