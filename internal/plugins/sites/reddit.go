package sites

import (
	"context"
	"strings"

	"github.com/pders01/newsagent/internal/plugins"
)

// RedditPlugin turns subreddit URLs into their RSS endpoint.
type RedditPlugin struct{}

func NewRedditPlugin() *RedditPlugin {
	return &RedditPlugin{}
}

func (p *RedditPlugin) Name() string {
	return "reddit"
}

func (p *RedditPlugin) CanHandle(url string) bool {
	return strings.Contains(url, "://www.reddit.com/r/") ||
		strings.Contains(url, "://reddit.com/r/") ||
		strings.Contains(url, "://old.reddit.com/r/")
}

func (p *RedditPlugin) Priority() int {
	return 50
}

func (p *RedditPlugin) Resolve(_ context.Context, rawURL string) (*plugins.FeedInfo, error) {
	trimmed := strings.TrimSuffix(rawURL, "/")
	feedURL := trimmed
	if !strings.HasSuffix(trimmed, ".rss") {
		feedURL = trimmed + ".rss"
	}

	subreddit := "unknown"
	if parts := strings.SplitN(rawURL, "/r/", 2); len(parts) == 2 {
		if name := strings.TrimSuffix(strings.Split(parts[1], "/")[0], ".rss"); name != "" {
			subreddit = name
		}
	}

	return &plugins.FeedInfo{
		OriginalURL: rawURL,
		FeedURL:     feedURL,
		Title:       "Reddit - r/" + subreddit,
		Metadata: map[string]string{
			"plugin":    "reddit",
			"subreddit": subreddit,
		},
	}, nil
}
