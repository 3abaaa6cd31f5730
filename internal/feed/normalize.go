package feed

import (
	"html"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pders01/newsagent/internal/debuglog"
)

// UntitledPlaceholder replaces empty titles.
const UntitledPlaceholder = "(untitled)"

var (
	stripPolicy = bluemonday.StrictPolicy()
	newlines    = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Normalize converts a raw entry into an Item. Timestamp problems never
// surface as errors; the item simply ends up without a published time.
func Normalize(raw RawItem) Item {
	title := cleanText(raw.Title)
	if title == "" {
		title = UntitledPlaceholder
	}

	var summary string
	for _, s := range []string{raw.Summary, raw.Description, raw.Content} {
		if summary = cleanText(s); summary != "" {
			break
		}
	}

	return Item{
		Title:     title,
		Summary:   summary,
		Link:      strings.TrimSpace(raw.Link),
		Published: resolvePublished(raw),
		Source:    strings.TrimSpace(raw.Source),
	}
}

// cleanText strips markup, uses \n for every line ending and trims.
func cleanText(s string) string {
	s = newlines.Replace(s)
	if strings.ContainsRune(s, '<') {
		s = html.UnescapeString(stripPolicy.Sanitize(s))
	}
	return strings.TrimSpace(s)
}

// resolvePublished prefers structured fields (published > updated > created)
// and falls back to free text in the same order.
func resolvePublished(raw RawItem) *time.Time {
	for _, t := range []*time.Time{raw.PublishedParsed, raw.UpdatedParsed, raw.CreatedParsed} {
		if t != nil && !t.IsZero() {
			u := t.UTC()
			return &u
		}
	}

	for _, s := range []string{raw.Published, raw.Updated, raw.Created} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			debuglog.WithFields(map[string]interface{}{"value": s, "source": raw.Source}).
				Debugf("unparsable timestamp: %v", err)
			continue
		}
		u := t.UTC()
		return &u
	}

	return nil
}
