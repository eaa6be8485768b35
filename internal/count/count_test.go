package count

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ValidInputs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"plain with separators", "2,771 followers", 2771},
		{"million suffix", "1.2M subscribers", 1200000},
		{"facebook label", "3 people follow this", 3},
		{"thousand suffix upper", "100K Followers", 100000},
		{"bare number", "500", 500},
		{"lowercase suffix", "4.5k followers", 4500},
		{"billion suffix", "1B followers", 1000000000},
		{"suffix with space", "12 K Followers", 12000},
		{"surrounding whitespace", "  1,234 Followers  ", 1234},
		{"embedded in meta description", "8,191 Followers, 120 Following", 8191},
		{"singular label", "1 subscriber", 1},
		{"no label", "1.5M", 1500000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	// Already-numeric input with no suffix parses to itself.
	got, err := Parse("500")
	require.NoError(t, err)
	assert.Equal(t, float64(500), got)
}

func TestParse_Unparseable(t *testing.T) {
	inputs := []string{"", "Followers", "no numbers here", "   ", "K followers"}

	for _, input := range inputs {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrUnparseable, "input %q", input)
	}
}

func TestHasDigit(t *testing.T) {
	assert.True(t, HasDigit("1.2M"))
	assert.False(t, HasDigit("Followers"))
	assert.False(t, HasDigit(""))
}
