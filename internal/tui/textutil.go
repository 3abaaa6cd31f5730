package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// truncateEnd fits s on one line of at most limit terminal cells, ending
// with an ellipsis when cut. Wide runes count as two cells.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return ansi.Truncate(singleLine(s), limit, "…")
}

// singleLine collapses newlines and runs of whitespace into single spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
