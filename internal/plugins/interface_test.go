package plugins

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/newsagent/internal/feed"
)

// mockPlugin is a test plugin for testing the registry
type mockPlugin struct {
	name      string
	priority  int
	canHandle func(string) bool
	resolve   func(context.Context, string) (*FeedInfo, error)
}

func (p *mockPlugin) Name() string {
	return p.name
}

func (p *mockPlugin) CanHandle(url string) bool {
	if p.canHandle != nil {
		return p.canHandle(url)
	}
	return false
}

func (p *mockPlugin) Resolve(ctx context.Context, url string) (*FeedInfo, error) {
	if p.resolve != nil {
		return p.resolve(ctx, url)
	}
	return &FeedInfo{
		OriginalURL: url,
		FeedURL:     url + "/feed",
		Title:       p.name,
		Metadata:    make(map[string]string),
	}, nil
}

func (p *mockPlugin) Priority() int {
	return p.priority
}

func always(string) bool { return true }

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	plugin := &mockPlugin{name: "test", priority: 50}

	registry.Register(plugin)

	assert.Equal(t, 1, len(registry.plugins))
	assert.Equal(t, []string{"test"}, registry.Names())
}

func TestRegistry_FindPlugin(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockPlugin{name: "low", priority: 10, canHandle: always})
	registry.Register(&mockPlugin{name: "high", priority: 90, canHandle: always})
	registry.Register(&mockPlugin{name: "picky", priority: 100, canHandle: func(u string) bool {
		return u == "http://picky.example"
	}})

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"highest priority wins", "http://example.com", "high"},
		{"more specific plugin", "http://picky.example", "picky"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := registry.FindPlugin(tt.url)
			require.NotNil(t, p)
			assert.Equal(t, tt.expected, p.Name())
		})
	}

	assert.Nil(t, NewRegistry().FindPlugin("http://example.com"))
}

func TestRegistry_ResolvePassThrough(t *testing.T) {
	info, err := NewRegistry().Resolve(context.Background(), "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/rss", info.FeedURL)
	assert.Equal(t, feed.Source{URL: "https://example.com/rss"}, info.Source())
}

func TestRegistry_ResolveError(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockPlugin{
		name:      "broken",
		priority:  1,
		canHandle: always,
		resolve: func(context.Context, string) (*FeedInfo, error) {
			return nil, errors.New("bad path")
		},
	})

	_, err := registry.Resolve(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken plugin: bad path")

	_, err = registry.Sources(context.Background(), []string{"https://example.com"})
	assert.Error(t, err)
}

func TestRegistry_Sources(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&mockPlugin{name: "site", priority: 1, canHandle: func(u string) bool {
		return u == "https://site.example"
	}})

	got, err := registry.Sources(context.Background(), []string{"https://other.example/rss", "https://site.example"})
	require.NoError(t, err)
	assert.Equal(t, []feed.Source{
		{URL: "https://other.example/rss"},
		{Name: "site", URL: "https://site.example/feed"},
	}, got)
}
