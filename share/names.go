package share

import (
	"strings"

	"github.com/teranos/marksync/internal/util"
)

// MaxTitleBytes is the longest title the remote store keeps.
const MaxTitleBytes = 255

// ServerName converts a client title into the form the server stores.
// Names that the server reserves ("", ".", "..") once trailing spaces are
// ignored get one extra space so they survive the round trip.
func ServerName(name string) string {
	switch strings.TrimRight(name, " ") {
	case "", ".", "..":
		return name + " "
	}
	return name
}

// ClientName reverses ServerName.
func ClientName(name string) string {
	if strings.HasSuffix(name, " ") {
		switch strings.TrimRight(name, " ") {
		case "", ".", "..":
			return name[:len(name)-1]
		}
	}
	return name
}

// NormalizeTitle returns the stored form of a client title: escaped, then
// cut to MaxTitleBytes on a rune boundary.
func NormalizeTitle(title string) string {
	return util.TruncateBytes(ServerName(title), MaxTitleBytes)
}
