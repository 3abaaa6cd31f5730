// Package search narrows an existing result set with a full-text index. It
// never reorders results; matches come back in result order.
package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/newsagent/internal/feed"
)

// Refiner filters a fixed list of items by free text.
type Refiner interface {
	Refine(text string) ([]int, error)
	Close() error
}

// Index is an in-memory bleve index over one result set.
type Index struct {
	idx  bleve.Index
	size int
}

// NewIndex indexes items; document ids are their positions.
func NewIndex(items []feed.Item) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	batch := idx.NewBatch()
	for i, it := range items {
		if err := batch.Index(strconv.Itoa(i), map[string]any{
			"title":   it.Title,
			"summary": it.Summary,
			"source":  it.Source,
			"link":    it.Link,
		}); err != nil {
			idx.Close()
			return nil, fmt.Errorf("indexing item %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("indexing results: %w", err)
	}

	return &Index{idx: idx, size: len(items)}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()
	for _, name := range []string{"title", "summary", "source", "link"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = false
		dm.AddFieldMappingsAt(name, fm)
	}

	im.DefaultMapping = dm
	return im
}

var fieldBoosts = []struct {
	field string
	boost float64
}{
	{"title", 4.0},
	{"summary", 2.0},
	{"source", 1.0},
	{"link", 0.5},
}

// Refine returns the positions of items matching text, ascending. Each token
// must hit some field, either as a word or as a word prefix. Text shorter
// than two characters matches everything.
func (x *Index) Refine(text string) ([]int, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		all := make([]int, x.size)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	var must []bleveQuery.Query
	for _, tok := range tokens {
		var anyOf []bleveQuery.Query
		for _, fb := range fieldBoosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(fb.field)
			mq.SetBoost(fb.boost)
			anyOf = append(anyOf, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(fb.field)
			pq.SetBoost(fb.boost * 0.8)
			anyOf = append(anyOf, pq)
		}
		must = append(must, bleve.NewDisjunctionQuery(anyOf...))
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(must...), x.size, 0, false)
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]int, 0, len(res.Hits))
	for _, h := range res.Hits {
		if i, err := strconv.Atoi(h.ID); err == nil {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out, nil
}

// DocCount reports how many items are indexed.
func (x *Index) DocCount() (int, error) {
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	return x.idx.Close()
}

// tokenize lowercases text and splits it on anything that is not a letter or
// digit, dropping single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if term := current.String(); len([]rune(term)) > 1 {
		terms = append(terms, term)
	}

	return terms
}
