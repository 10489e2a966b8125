package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateBytes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "abc", 10, "abc"},
		{"exact", "abcd", 4, "abcd"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"zero", "abc", 0, ""},
		{"two byte rune kept whole", "aé", 3, "aé"},
		{"two byte rune dropped", "aé", 2, "a"},
		{"three byte rune dropped", "ab€", 4, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateBytes(tt.in, tt.max)
			if got != tt.want {
				t.Errorf("TruncateBytes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncateBytes_LongUnicode(t *testing.T) {
	in := strings.Repeat("日本", 200)
	got := TruncateBytes(in, 255)
	if len(got) > 255 {
		t.Fatalf("len = %d, want <= 255", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if len(got) != 255 {
		t.Fatalf("len = %d, want 255 (85 three-byte runes)", len(got))
	}
}
