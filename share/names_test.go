package share

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerName(t *testing.T) {
	tests := []struct {
		client string
		server string
	}{
		{"", " "},
		{".", ". "},
		{"..", ".. "},
		{" ", "  "},
		{"...", "..."},
		{"Go", "Go"},
		{"Go ", "Go "},
	}
	for _, tt := range tests {
		t.Run(tt.client, func(t *testing.T) {
			assert.Equal(t, tt.server, ServerName(tt.client))
			assert.Equal(t, tt.client, ClientName(tt.server))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, " ", NormalizeTitle(""))
	assert.Equal(t, "News", NormalizeTitle("News"))

	long := strings.Repeat("a", 254) + "é"
	got := NormalizeTitle(long)
	assert.Equal(t, strings.Repeat("a", 254), got, "multi-byte rune at the limit is dropped whole")
	assert.LessOrEqual(t, len(NormalizeTitle(strings.Repeat("x", 400))), MaxTitleBytes)
}
