package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgSearching    = "Searching feeds…"
	MsgIndexing     = "Indexing results…"
	MsgExporting    = "Exporting…"
	MsgNoResults    = "No results matched your filters"
	MsgNoLink       = "This item has no link"
	MsgIndexPending = "Index not ready yet"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgFiltered(shown, total int) string {
	return fmt.Sprintf("%d of %d shown", shown, total)
}

func MsgExported(path string, n int) string {
	return fmt.Sprintf("Exported %s to %s", MsgResultsCount(n), strings.TrimSpace(path))
}

func MsgSearchSummary(results, sources, failed int) string {
	base := fmt.Sprintf("%s from %d sources", MsgResultsCount(results), sources)
	if failed > 0 {
		base += fmt.Sprintf(" • %d failed", failed)
	}
	return base
}
