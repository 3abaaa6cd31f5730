package plugins

import (
	"context"
	"fmt"
	"sort"

	"github.com/pders01/newsagent/internal/feed"
)

// FeedInfo is what a plugin learns about a URL the user typed.
type FeedInfo struct {
	// OriginalURL is the URL as given
	OriginalURL string
	// FeedURL is the document to fetch, e.g. a subreddit's .rss endpoint
	FeedURL string
	// Title replaces the document title as the result's source label
	Title    string
	Metadata map[string]string
}

// Source converts the info into a search source.
func (i *FeedInfo) Source() feed.Source {
	return feed.Source{Name: i.Title, URL: i.FeedURL}
}

// Plugin rewrites site URLs into feed URLs for one kind of site.
type Plugin interface {
	Name() string

	// CanHandle reports whether the plugin understands url
	CanHandle(url string) bool

	// Resolve maps url to its feed. It must not contact the network.
	Resolve(ctx context.Context, url string) (*FeedInfo, error)

	// Priority breaks ties when several plugins handle the same URL (higher wins)
	Priority() int
}

// Registry holds the known plugins.
type Registry struct {
	plugins []Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: make([]Plugin, 0)}
}

func (r *Registry) Register(plugin Plugin) {
	r.plugins = append(r.plugins, plugin)
}

// FindPlugin returns the highest priority plugin that can handle url, or nil.
func (r *Registry) FindPlugin(url string) Plugin {
	var best Plugin
	highest := -1

	for _, p := range r.plugins {
		if p.CanHandle(url) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}
	return best
}

// Resolve returns the feed info for url. URLs no plugin handles pass
// through unchanged with an empty title.
func (r *Registry) Resolve(ctx context.Context, url string) (*FeedInfo, error) {
	p := r.FindPlugin(url)
	if p == nil {
		return &FeedInfo{
			OriginalURL: url,
			FeedURL:     url,
			Metadata:    make(map[string]string),
		}, nil
	}

	info, err := p.Resolve(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%s plugin: %w", p.Name(), err)
	}
	return info, nil
}

// Sources resolves every URL, keeping the input order.
func (r *Registry) Sources(ctx context.Context, urls []string) ([]feed.Source, error) {
	out := make([]feed.Source, 0, len(urls))
	for _, u := range urls {
		info, err := r.Resolve(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, info.Source())
	}
	return out, nil
}

// Names lists the registered plugins alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	sort.Strings(names)
	return names
}
