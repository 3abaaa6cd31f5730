// Package sites holds the built-in URL plugins.
package sites

import "github.com/pders01/newsagent/internal/plugins"

// NewRegistry returns a registry with every built-in plugin.
func NewRegistry() *plugins.Registry {
	r := plugins.NewRegistry()
	r.Register(NewRedditPlugin())
	r.Register(NewGitHubPlugin())
	return r
}
