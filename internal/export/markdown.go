package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pders01/newsagent/internal/feed"
)

var mdEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

func escapeCell(s string) string {
	return strings.TrimSpace(mdEscaper.Replace(s))
}

var linkTextEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

// WriteMarkdown renders items as a table with the columns
// # | Title | Source | Published (UTC).
func WriteMarkdown(w io.Writer, items []feed.Item) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "| # | Title | Source | Published (UTC) |")
	fmt.Fprintln(bw, "|---:|---|---|---|")

	for i, it := range items {
		title := escapeCell(it.Title)
		if it.Link != "" {
			title = fmt.Sprintf("[%s](%s)", linkTextEscaper.Replace(title), escapeCell(it.Link))
		}
		published := Unknown
		if it.Published != nil {
			published = it.Published.UTC().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(bw, "| %d | %s | %s | %s |\n", i+1, title, escapeCell(it.Source), published)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}
