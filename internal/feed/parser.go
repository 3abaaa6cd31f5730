package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse reads an RSS, Atom or JSON feed. Entries are labelled with the
// feed's own title, or with fallback when the document has none.
func (p *Parser) Parse(data []byte, fallback string) (*Document, error) {
	f, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	source := strings.TrimSpace(f.Title)
	if source == "" {
		source = fallback
	}

	doc := &Document{
		Title: source,
		Items: make([]RawItem, 0, len(f.Items)),
	}
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		doc.Items = append(doc.Items, rawFromGofeed(item, source))
	}
	return doc, nil
}

func rawFromGofeed(item *gofeed.Item, source string) RawItem {
	raw := RawItem{
		Title:           item.Title,
		Description:     item.Description,
		Content:         item.Content,
		Link:            item.Link,
		Source:          source,
		PublishedParsed: item.PublishedParsed,
		UpdatedParsed:   item.UpdatedParsed,
		Published:       item.Published,
		Updated:         item.Updated,
	}

	if item.Link == "" && len(item.Links) > 0 {
		raw.Link = item.Links[0]
	}

	if created, ok := item.Custom["created"]; ok {
		raw.Created = created
	}

	return raw
}
