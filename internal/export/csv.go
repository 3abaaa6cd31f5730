package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pders01/newsagent/internal/feed"
)

var csvHeader = []string{"title", "source", "published_utc", "link", "summary"}

// WriteCSV writes items with the header title,source,published_utc,link,summary.
func WriteCSV(w io.Writer, items []feed.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("%w: writing header: %v", ErrExport, err)
	}
	for _, it := range items {
		rec := []string{it.Title, it.Source, formatTime(it.Published), it.Link, it.Summary}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("%w: writing row: %v", ErrExport, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

// ReadCSV parses output produced by WriteCSV.
func ReadCSV(r io.Reader) ([]feed.Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", ErrExport)
		}
		return nil, fmt.Errorf("%w: reading header: %v", ErrExport, err)
	}
	if strings.Join(header, ",") != strings.Join(csvHeader, ",") {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrExport, strings.Join(header, ","))
	}

	var items []feed.Item
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrExport, line, err)
		}

		item := feed.Item{Title: rec[0], Source: rec[1], Link: rec[3], Summary: rec[4]}
		if rec[2] != "" {
			t, err := time.ParseInLocation(TimeLayout, rec[2], time.UTC)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: published_utc: %v", ErrExport, line, err)
			}
			item.Published = &t
		}
		items = append(items, item)
	}
	return items, nil
}
