package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "trims", input: "  C001 \n", maxLen: 64, want: "C001"},
		{name: "drops control characters", input: "C0\x0001\r", maxLen: 64, want: "C001"},
		{name: "caps length", input: "abcdef", maxLen: 4, want: "abcd"},
		{name: "no cap", input: "abcdef", maxLen: 0, want: "abcdef"},
		{name: "keeps runes whole", input: "dosaé", maxLen: 5, want: "dosa"},
		{name: "empty", input: "   ", maxLen: 8, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeString(tt.input, tt.maxLen); got != tt.want {
				t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
