package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pders01/newsagent/internal/pipeline"
)

// Record is the flat shape of one exported result.
type Record struct {
	Title        string `json:"title"`
	Source       string `json:"source"`
	PublishedUTC string `json:"published_utc"`
	Link         string `json:"link"`
	Summary      string `json:"summary"`
	Reason       string `json:"reason,omitempty"`
}

// NewRecord flattens a match.
func NewRecord(m pipeline.Match) Record {
	return Record{
		Title:        m.Title,
		Source:       m.Source,
		PublishedUTC: formatTime(m.Published),
		Link:         m.Link,
		Summary:      m.Summary,
		Reason:       m.Reason,
	}
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, matches []pipeline.Match) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, m := range matches {
		if err := enc.Encode(NewRecord(m)); err != nil {
			return fmt.Errorf("%w: %v", ErrExport, err)
		}
	}
	return nil
}
