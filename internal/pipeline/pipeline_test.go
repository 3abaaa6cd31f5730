package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsagent/internal/feed"
	"github.com/pders01/newsagent/internal/match"
	"github.com/pders01/newsagent/internal/query"
)

var fixedNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeCollector struct {
	items    []feed.RawItem
	warnings []feed.Warning
	calls    int
}

func (f *fakeCollector) Collect(_ context.Context, _ []feed.Source) ([]feed.RawItem, []feed.Warning) {
	f.calls++
	return f.items, f.warnings
}

func daysAgo(n float64) *time.Time {
	t := fixedNow.Add(-time.Duration(n * float64(24*time.Hour)))
	return &t
}

func raw(title string, published *time.Time) feed.RawItem {
	return feed.RawItem{
		Title:           title,
		Link:            "https://example.com/" + title,
		Source:          "Example",
		PublishedParsed: published,
	}
}

func window(t *testing.T, since, until string) query.Window {
	t.Helper()
	w, err := query.ParseWindow(since, until, fixedNow)
	require.NoError(t, err)
	return w
}

var sources = []feed.Source{{Name: "Example", URL: "https://example.com/rss"}}

func titles(res *Result) []string {
	out := make([]string, len(res.Items))
	for i, m := range res.Items {
		out[i] = m.Title
	}
	return out
}

func TestSearch_FuzzyParentWithinWindow(t *testing.T) {
	c := &fakeCollector{items: []feed.RawItem{
		raw("New AI chip", daysAgo(2)),
		raw("Weather update", daysAgo(1)),
		raw("AI breakthrough", daysAgo(10)),
	}}
	p := New(c, MissingDrop)

	res, err := p.Search(context.Background(), Request{
		Sources: sources,
		Window:  window(t, "7d", ""),
		Query:   query.NewParser(0).Parse([]string{"AI"}, query.ModeAny),
		Limit:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"New AI chip"}, titles(res))
	assert.Equal(t, "parent matched: AI | no child terms provided", res.Items[0].Reason)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.Stats.Fetched)
	assert.Equal(t, 2, res.Stats.InWindow)
	assert.Equal(t, 1, res.Stats.Returned)
}

func TestSearch_FuzzyParentIsSubstring(t *testing.T) {
	c := &fakeCollector{items: []feed.RawItem{
		raw("Plain news", daysAgo(1)),
		raw("Weather update", daysAgo(1)),
	}}

	res, err := New(c, MissingDrop).Search(context.Background(), Request{
		Sources: sources,
		Window:  window(t, "7d", ""),
		Query:   query.NewParser(0).Parse([]string{"AI"}, query.ModeAny),
		Limit:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Plain news"}, titles(res))
}

func TestSearch_ExactParent(t *testing.T) {
	c := &fakeCollector{items: []feed.RawItem{
		raw("AI-powered deal", daysAgo(1)),
		raw("SAId something", daysAgo(1)),
	}}
	p := New(c, MissingDrop)

	res, err := p.Search(context.Background(), Request{
		Sources: sources,
		Query:   query.NewParser(0).Parse([]string{`"AI"`}, query.ModeAny),
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"AI-powered deal"}, titles(res))
}

func TestSearch_InvalidRangeBeforeFetch(t *testing.T) {
	c := &fakeCollector{items: []feed.RawItem{raw("x", daysAgo(1))}}
	p := New(c, MissingDrop)

	since := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	res, err := p.Search(context.Background(), Request{
		Sources: sources,
		Window:  query.Window{Since: &since, Until: &until},
		Limit:   10,
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, query.ErrInvalidRange)
	assert.Equal(t, 0, c.calls, "no source may be contacted")
}

func TestSearch_MissingTimestampPolicy(t *testing.T) {
	items := []feed.RawItem{
		raw("undated AI", nil),
		raw("old AI", daysAgo(3)),
		raw("new AI", daysAgo(1)),
	}

	tests := []struct {
		name   string
		policy MissingPolicy
		since  string
		until  string
		want   []string
	}{
		{"drop with lower bound", MissingDrop, "7d", "", []string{"new AI", "old AI"}},
		{"sort_last with lower bound", MissingSortLast, "7d", "", []string{"new AI", "old AI", "undated AI"}},
		{"drop without lower bound keeps undated", MissingDrop, "", "", []string{"new AI", "old AI", "undated AI"}},
		{"upper bound alone never drops undated", MissingDrop, "", "2d", []string{"old AI", "undated AI"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeCollector{items: items}, tt.policy)
			res, err := p.Search(context.Background(), Request{
				Sources: sources,
				Window:  window(t, tt.since, tt.until),
				Query:   query.NewParser(0).Parse([]string{"ai"}, query.ModeAny),
				Limit:   50,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(res))
		})
	}
}

func TestSearch_InclusiveBounds(t *testing.T) {
	since := fixedNow.Add(-48 * time.Hour)
	until := fixedNow.Add(-24 * time.Hour)
	c := &fakeCollector{items: []feed.RawItem{
		raw("on since", &since),
		raw("on until", &until),
	}}

	res, err := New(c, MissingDrop).Search(context.Background(), Request{
		Sources: sources,
		Window:  query.Window{Since: &since, Until: &until},
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"on until", "on since"}, titles(res))
}

func TestSearch_DedupeKeepsFirst(t *testing.T) {
	first := raw("Same story", daysAgo(1))
	first.Source = "Feed A"
	dup := raw("Same story", daysAgo(1))
	dup.Source = "Feed B"
	otherLink := raw("Same story", daysAgo(1))
	otherLink.Link = "https://mirror.example.com/same"

	c := &fakeCollector{items: []feed.RawItem{first, dup, otherLink}}
	res, err := New(c, MissingDrop).Search(context.Background(), Request{Sources: sources, Limit: 10})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "Feed A", res.Items[0].Source)
	assert.Equal(t, "https://mirror.example.com/same", res.Items[1].Link)
	assert.Equal(t, 3, res.Stats.Matched)
	assert.Equal(t, 2, res.Stats.Unique)
}

func TestDedupe_Idempotent(t *testing.T) {
	item := func(title, link string) Match {
		return Match{Item: feed.Item{Title: title, Link: link}}
	}
	input := []Match{
		item("a", "https://example.com/a"),
		item("b", "https://example.com/b"),
		item("a", "https://example.com/a"),
		item("a", "https://mirror.example.com/a"),
		item("b", "https://example.com/b"),
	}

	once := dedupe(append([]Match(nil), input...))
	twice := dedupe(append([]Match(nil), once...))

	assert.Len(t, once, 3)
	assert.Equal(t, once, twice)
}

func TestSearch_SortStable(t *testing.T) {
	same := daysAgo(1)
	c := &fakeCollector{items: []feed.RawItem{
		raw("tie-1", same),
		raw("undated-1", nil),
		raw("newest", daysAgo(0.5)),
		raw("tie-2", same),
		raw("oldest", daysAgo(3)),
		raw("undated-2", nil),
		raw("tie-3", same),
	}}

	res, err := New(c, MissingSortLast).Search(context.Background(), Request{
		Sources: sources,
		Window:  window(t, "7d", ""),
		Limit:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "tie-1", "tie-2", "tie-3", "oldest", "undated-1", "undated-2"}, titles(res))

	for i := 1; i < len(res.Items); i++ {
		prev, cur := res.Items[i-1].Published, res.Items[i].Published
		if prev == nil {
			assert.Nil(t, cur, "dated item after undated at %d", i)
			continue
		}
		if cur != nil {
			assert.False(t, cur.After(*prev), "order violated at %d", i)
		}
	}
}

func TestSearch_LimitInvariant(t *testing.T) {
	var items []feed.RawItem
	for i := 0; i < 80; i++ {
		items = append(items, raw(fmt.Sprintf("story %02d", i), daysAgo(float64(i)/10)))
	}

	for _, limit := range []int{-3, 0, 1, 7, 20, 50, 51, 500} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			res, err := New(&fakeCollector{items: items}, MissingDrop).Search(context.Background(), Request{
				Sources: sources,
				Limit:   limit,
			})
			require.NoError(t, err)
			assert.Len(t, res.Items, ClampLimit(limit))
			assert.Equal(t, "story 00", res.Items[0].Title)
		})
	}
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	c := &fakeCollector{
		items:    []feed.RawItem{raw("Plain news", daysAgo(1))},
		warnings: []feed.Warning{{Source: "Broken", Message: "HTTP error: 500"}},
	}

	res, err := New(c, MissingDrop).Search(context.Background(), Request{
		Sources: append(sources, feed.Source{Name: "Broken", URL: "https://broken.example.com"}),
		Query:   query.NewParser(0).Parse([]string{"tariffs"}, query.ModeAny),
		Limit:   5,
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, []feed.Warning{{Source: "Broken", Message: "HTTP error: 500"}}, res.Warnings)
	assert.Equal(t, 1, res.Stats.Failed)
}

func TestSearch_NoSourcesSkipsCollector(t *testing.T) {
	c := &fakeCollector{}
	res, err := New(c, MissingDrop).Search(context.Background(), Request{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, c.calls)
}

func TestSearch_SourceField(t *testing.T) {
	item := raw("Markets rally", daysAgo(1))
	item.Source = "Reuters Business"
	c := &fakeCollector{items: []feed.RawItem{item}}
	p := New(c, MissingDrop)
	q := query.NewParser(0).Parse([]string{"reuters"}, query.ModeAny)

	res, err := p.Search(context.Background(), Request{Sources: sources, Query: q, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res, err = p.Search(context.Background(), Request{Sources: sources, Query: q, Limit: 5, Fields: match.DefaultFields | match.FieldSource})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MissingDrop, p)

	p, err = ParseMissingPolicy("SORT_LAST")
	require.NoError(t, err)
	assert.Equal(t, MissingSortLast, p)
	assert.Equal(t, "sort_last", p.String())

	_, err = ParseMissingPolicy("ignore")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-10))
	assert.Equal(t, 17, ClampLimit(17))
	assert.Equal(t, 50, ClampLimit(99))
}
