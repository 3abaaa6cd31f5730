package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsagent/internal/feed"
)

var items = []feed.Item{
	{Title: "New AI chip unveiled", Summary: "Accelerator for datacenters", Source: "TechCrunch"},
	{Title: "Battery plant opens", Summary: "Gigafactory in Nevada", Source: "Electrek"},
	{Title: "Chipmakers rally", Summary: "Semiconductor stocks climb", Source: "Reuters Business"},
	{Title: "Election results", Summary: "Counting continues", Source: "BBC News"},
}

func newIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(items)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndex_Refine(t *testing.T) {
	idx := newIndex(t)

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, len(items), n)

	tests := []struct {
		name string
		text string
		want []int
	}{
		{"title word", "battery", []int{1}},
		{"prefix keeps result order", "chip", []int{0, 2}},
		{"summary", "nevada", []int{1}},
		{"source", "reuters", []int{2}},
		{"all tokens required", "chip stocks", []int{2}},
		{"no match", "football", []int{}},
		{"too short matches all", "a", []int{0, 1, 2, 3}},
		{"empty matches all", "  ", []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Refine(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndex_Empty(t *testing.T) {
	idx, err := NewIndex(nil)
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.Refine("anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ev", "energy"}, tokenize("EV & Energy"))
	assert.Equal(t, []string{"straße", "ünïcode"}, tokenize("Straße, ÜNÏCODE!"))
	assert.Empty(t, tokenize("a b c"))
}
