package tui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/pders01/newsagent/internal/export"
	"github.com/pders01/newsagent/internal/pipeline"
)

// TableOptions controls RenderTable.
type TableOptions struct {
	Width       int
	ShowReasons bool
	Now         time.Time
}

// RenderTable draws matches as a bordered terminal table.
func RenderTable(matches []pipeline.Match, opts TableOptions) string {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	headers := []string{"#", "Published (UTC)", "Source", "Title"}
	if opts.ShowReasons {
		headers = append(headers, "Reason")
	}

	titleWidth := 60
	if opts.Width > 0 {
		titleWidth = max(20, opts.Width-50)
	}

	rows := make([][]string, 0, len(matches))
	for i, m := range matches {
		row := []string{
			strconv.Itoa(i + 1),
			publishedLabel(m, opts.Now),
			truncateEnd(m.Source, 24),
			truncateEnd(m.Title, titleWidth),
		}
		if opts.ShowReasons {
			row = append(row, m.Reason)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SeparatorStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return s.Inherit(HeaderStyle)
			case col == 1:
				return s.Inherit(TimeStyle)
			case col == 2:
				return s.Inherit(SourceStyle)
			case col == 4:
				return s.Inherit(ReasonStyle)
			}
			return s
		})
	if opts.Width > 0 {
		t = t.Width(opts.Width)
	}
	return t.Render()
}

func publishedLabel(m pipeline.Match, now time.Time) string {
	if m.Published == nil {
		return export.Unknown
	}
	return m.Published.UTC().Format("2006-01-02 15:04") + " (" + humanize.RelTime(*m.Published, now, "ago", "from now") + ")"
}
