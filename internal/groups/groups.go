// Package groups maps preset group names to ordered source lists.
package groups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pders01/newsagent/internal/feed"
)

// ErrUnknownGroup is returned by Resolve for names not in the registry.
var ErrUnknownGroup = errors.New("unknown feed group")

// Group is a named, ordered list of sources.
type Group struct {
	Name  string        `json:"name" toml:"name" yaml:"name"`
	Feeds []feed.Source `json:"feeds" toml:"feeds" yaml:"feeds"`
}

// Registry keeps groups in declaration order.
type Registry struct {
	groups []Group
	index  map[string]int
}

// NewRegistry builds a registry; later groups with an existing name replace
// the earlier definition in place.
func NewRegistry(groups ...Group) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, g := range groups {
		r.Add(g)
	}
	return r
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Add inserts or replaces a group.
func (r *Registry) Add(g Group) {
	g.Name = strings.TrimSpace(g.Name)
	if i, ok := r.index[key(g.Name)]; ok {
		r.groups[i] = g
		return
	}
	r.index[key(g.Name)] = len(r.groups)
	r.groups = append(r.groups, g)
}

// Groups returns all groups in order.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	copy(out, r.groups)
	return out
}

// Names returns the group names in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.groups))
	for i, g := range r.groups {
		names[i] = g.Name
	}
	return names
}

// Get looks a group up by case-insensitive name.
func (r *Registry) Get(name string) (Group, bool) {
	i, ok := r.index[key(name)]
	if !ok {
		return Group{}, false
	}
	return r.groups[i], true
}

// All returns every source of every group, without duplicate URLs.
func (r *Registry) All() []feed.Source {
	return r.collect(r.groups)
}

// Resolve returns the sources of the named groups in order, without duplicate
// URLs. No names means all groups.
func (r *Registry) Resolve(names []string) ([]feed.Source, error) {
	var picked []Group
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		g, ok := r.Get(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownGroup, n, strings.Join(r.Names(), ", "))
		}
		picked = append(picked, g)
	}
	if len(picked) == 0 {
		return r.All(), nil
	}
	return r.collect(picked), nil
}

func (r *Registry) collect(groups []Group) []feed.Source {
	seen := make(map[string]bool)
	var out []feed.Source
	for _, g := range groups {
		for _, s := range g.Feeds {
			if seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			out = append(out, s)
		}
	}
	return out
}

type file struct {
	Groups []Group `toml:"group" yaml:"groups"`
}

// Load reads groups from a TOML or YAML file, chosen by extension.
func Load(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading group file: %w", err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported group file %q (want .toml, .yaml or .yml)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing group file %s: %w", path, err)
	}

	for i, g := range f.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("group file %s: group %d has no name", path, i+1)
		}
		for j, s := range g.Feeds {
			if strings.TrimSpace(s.URL) == "" {
				return nil, fmt.Errorf("group file %s: group %q feed %d has no url", path, g.Name, j+1)
			}
		}
	}
	return f.Groups, nil
}
