// Package export writes result sets as CSV, Markdown tables, JSON lines and
// per-source digests.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/pipeline"
)

// ErrExport marks failures to produce an export. Callers report it as a
// warning; the search result itself stays valid.
var ErrExport = errors.New("export failed")

// TimeLayout is the UTC timestamp format shared by CSV and JSONL.
const TimeLayout = "2006-01-02 15:04:05"

// Unknown is shown where a publish time could not be resolved.
const Unknown = "n/a"

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSONL    Format = "jsonl"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("%w: unknown format for %q", ErrExport, path)
	}
}

// WriteFile creates path and streams write into it.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return fmt.Errorf("%w: %v", ErrExport, mkErr)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrExport, cerr)
		}
	}()
	if err := write(f); err != nil {
		if errors.Is(err, ErrExport) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

// Write encodes matches in the given format.
func Write(w io.Writer, format Format, matches []pipeline.Match) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, items(matches))
	case FormatMarkdown:
		return WriteMarkdown(w, items(matches))
	case FormatJSONL:
		return WriteJSONL(w, matches)
	default:
		return fmt.Errorf("%w: unknown format %q", ErrExport, format)
	}
}

// Export writes matches to path, choosing the format from its extension.
func Export(path string, matches []pipeline.Match) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return WriteFile(path, func(w io.Writer) error {
		return Write(w, format, matches)
	})
}

func items(matches []pipeline.Match) []feed.Item {
	out := make([]feed.Item, len(matches))
	for i, m := range matches {
		out[i] = m.Item
	}
	return out
}
