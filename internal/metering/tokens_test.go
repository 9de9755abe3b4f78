package metering

import "testing"

func TestCountTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int64
	}{
		{"three words", "a b c", 3},
		{"single word", "hello", 1},
		// Splitting "" on a space yields one empty token. The billing unit
		// inherits this quirk on purpose: an empty prompt bills one token.
		{"empty string", "", 1},
		{"leading space", " a", 2},
		{"trailing space", "a ", 2},
		{"double space", "a  b", 3},
		{"newlines are not separators", "a\nb", 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CountTokens(tt.text); got != tt.want {
				t.Errorf("CountTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
