package recipient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		countryCode string
		want        string
	}{
		{"ten digits get country code", "5551234567", "1", "+15551234567"},
		{"formatted ten digits", "(555) 123-4567", "1", "+15551234567"},
		{"eleven digits get plus", "15551234567", "1", "+15551234567"},
		{"international with spaces", "44 20 7946 0958", "1", "+442079460958"},
		{"already canonical", "+15551234567", "1", "+15551234567"},
		{"plus with formatting passes through", "+1 (555) 123-4567", "1", "+1 (555) 123-4567"},
		{"too short", "12345", "1", ""},
		{"empty", "", "1", ""},
		{"letters only", "not a number", "1", ""},
		{"other country code", "5551234567", "44", "+445551234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.countryCode))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"5551234567", "15551234567", "+15551234567", "44 20 7946 0958"}
	for _, raw := range inputs {
		once := Normalize(raw, "1")
		assert.Equal(t, once, Normalize(once, "1"), "normalizing %q twice diverged", raw)
	}
}

func TestNormalize_DigitRulesProduceValidNumbers(t *testing.T) {
	// Inputs normalized via the 10-digit or 11+-digit rules always pass the
	// international-format grammar.
	inputs := []string{"5551234567", "(555) 123-4567", "15551234567", "44 20 7946 0958"}
	for _, raw := range inputs {
		normalized := Normalize(raw, "1")
		require.NotEmpty(t, normalized)
		assert.True(t, IsValid(normalized), "Normalize(%q) = %q should be valid", raw, normalized)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+15551234567"))
	assert.True(t, IsValid("+442079460958"))
	assert.True(t, IsValid("+12"))

	assert.False(t, IsValid(""))
	assert.False(t, IsValid("15551234567"))     // no plus
	assert.False(t, IsValid("+05551234567"))    // leading zero
	assert.False(t, IsValid("+1 555 123 4567")) // spaces
	assert.False(t, IsValid("+1234567890123456")) // 16 digits
}
