package feed

import (
	"errors"
	"fmt"
	"time"
)

// Source is one configured feed document.
type Source struct {
	Name string `json:"name" toml:"name" yaml:"name"`
	URL  string `json:"url" toml:"url" yaml:"url"`
}

// Label returns the name when set, the URL otherwise.
func (s Source) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

// RawItem is an entry as the parser hands it over. Timestamps may come as
// structured values, as free text, or not at all.
type RawItem struct {
	Title       string
	Summary     string
	Description string
	Content     string
	Link        string
	Source      string

	PublishedParsed *time.Time
	UpdatedParsed   *time.Time
	CreatedParsed   *time.Time

	Published string
	Updated   string
	Created   string
}

// Item is the canonical, immutable record every later stage works on.
type Item struct {
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	Link      string     `json:"link"`
	Published *time.Time `json:"published,omitempty"`
	Source    string     `json:"source"`
}

// HasPublished reports whether a timestamp was resolved.
func (i Item) HasPublished() bool { return i.Published != nil }

// Document is the parsed form of one source.
type Document struct {
	Title string
	Items []RawItem
}

// Warning records a source that failed or degraded during a search.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ErrSourceFetch marks failures to retrieve or parse a single source.
var ErrSourceFetch = errors.New("source fetch failure")

// FetchError wraps the cause of a failed source.
type FetchError struct {
	Source Source
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source.Label(), e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrSourceFetch, e.Err} }

// Warning converts the error into its display form.
func (e *FetchError) Warning() Warning {
	return Warning{Source: e.Source.Label(), Message: e.Err.Error()}
}
