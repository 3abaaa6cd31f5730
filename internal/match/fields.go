package match

import (
	"fmt"
	"strings"

	"github.com/pders01/newsagent/internal/feed"
)

// Fields selects which item attributes form the haystack.
type Fields uint8

const (
	FieldTitle Fields = 1 << iota
	FieldSummary
	FieldSource
)

// DefaultFields searches title and summary.
const DefaultFields = FieldTitle | FieldSummary

// ParseFields maps config names to Fields. Empty input yields DefaultFields.
func ParseFields(names []string) (Fields, error) {
	var f Fields
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "title":
			f |= FieldTitle
		case "summary", "description":
			f |= FieldSummary
		case "source":
			f |= FieldSource
		case "":
		default:
			return 0, fmt.Errorf("unknown search field %q", n)
		}
	}
	if f == 0 {
		return DefaultFields, nil
	}
	return f, nil
}

func (f Fields) String() string {
	var parts []string
	if f&FieldTitle != 0 {
		parts = append(parts, "title")
	}
	if f&FieldSummary != 0 {
		parts = append(parts, "summary")
	}
	if f&FieldSource != 0 {
		parts = append(parts, "source")
	}
	return strings.Join(parts, ",")
}

// Haystack joins the selected fields with a single space.
func (f Fields) Haystack(item feed.Item) string {
	if f == 0 {
		f = DefaultFields
	}
	parts := make([]string, 0, 3)
	if f&FieldTitle != 0 {
		parts = append(parts, item.Title)
	}
	if f&FieldSummary != 0 {
		parts = append(parts, item.Summary)
	}
	if f&FieldSource != 0 {
		parts = append(parts, item.Source)
	}
	return strings.Join(parts, " ")
}
