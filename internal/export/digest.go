package export

import (
	"fmt"
	"strings"

	"github.com/pders01/newsagent/internal/feed"
)

// Group is the items of one source in result order.
type Group struct {
	Source string
	Items  []feed.Item
}

// GroupBySource groups items by source, sources in first-seen order.
func GroupBySource(items []feed.Item) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, it := range items {
		i, ok := index[it.Source]
		if !ok {
			i = len(groups)
			index[it.Source] = i
			groups = append(groups, Group{Source: it.Source})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// DigestPerSource is how many titles Digest lists for each source.
const DigestPerSource = 5

// Digest renders a Markdown overview listing up to perSource titles per
// source. perSource <= 0 uses DigestPerSource.
func Digest(title string, items []feed.Item, perSource int) string {
	if perSource <= 0 {
		perSource = DigestPerSource
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if len(items) == 0 {
		b.WriteString("_No results._\n")
		return b.String()
	}

	for _, g := range GroupBySource(items) {
		source := g.Source
		if source == "" {
			source = "Unknown source"
		}
		fmt.Fprintf(&b, "## %s (%d)\n\n", source, len(g.Items))
		for i, it := range g.Items {
			if i == perSource {
				fmt.Fprintf(&b, "- _and %d more_\n", len(g.Items)-perSource)
				break
			}
			line := strings.Join(strings.Fields(it.Title), " ")
			if it.Link != "" {
				line = fmt.Sprintf("[%s](%s)", linkTextEscaper.Replace(line), it.Link)
			}
			if it.Published != nil {
				line += " · " + it.Published.UTC().Format("Jan 2 15:04")
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}
