package sites

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pders01/newsagent/internal/plugins"
)

// GitHubPlugin turns repository URLs into the repository's release Atom feed.
type GitHubPlugin struct{}

func NewGitHubPlugin() *GitHubPlugin {
	return &GitHubPlugin{}
}

func (p *GitHubPlugin) Name() string {
	return "github"
}

func (p *GitHubPlugin) CanHandle(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host != "github.com" {
		return false
	}
	return strings.HasSuffix(u.Path, ".atom") || len(pathParts(u.Path)) >= 2
}

func (p *GitHubPlugin) Priority() int {
	return 50
}

func (p *GitHubPlugin) Resolve(_ context.Context, raw string) (*plugins.FeedInfo, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	parts := pathParts(u.Path)
	if len(parts) < 2 {
		return nil, fmt.Errorf("not a repository URL: %s", raw)
	}
	owner, repo := parts[0], parts[1]

	feedURL := raw
	if !strings.HasSuffix(u.Path, ".atom") {
		feedURL = fmt.Sprintf("https://github.com/%s/%s/releases.atom", owner, repo)
	}

	return &plugins.FeedInfo{
		OriginalURL: raw,
		FeedURL:     feedURL,
		Title:       "GitHub - " + owner + "/" + repo,
		Metadata: map[string]string{
			"plugin": "github",
			"owner":  owner,
			"repo":   repo,
		},
	}, nil
}

func pathParts(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
