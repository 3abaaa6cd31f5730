package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/newsagent/internal/export"
	"github.com/pders01/newsagent/internal/pipeline"
	"github.com/pders01/newsagent/internal/search"
)

func (a *App) runSearch() tea.Cmd {
	load := a.load
	return func() tea.Msg {
		if load == nil {
			return resultLoadedMsg{err: errors.New("no search configured")}
		}
		res, err := load(context.Background())
		return resultLoadedMsg{result: res, err: err}
	}
}

func (a *App) buildIndex(res *pipeline.Result) tea.Cmd {
	items := res.FeedItems()
	id := res.ID
	return func() tea.Msg {
		idx, err := search.NewIndex(items)
		if err != nil {
			return indexReadyMsg{resultID: id, err: err}
		}
		return indexReadyMsg{resultID: id, index: idx}
	}
}

func (a *App) scheduleRefine() tea.Cmd {
	a.refineSeq++
	seq := a.refineSeq
	return tea.Tick(refineDebounce, func(time.Time) tea.Msg { return refineDebounceMsg{seq: seq} })
}

func (a *App) refine(seq int, text string) tea.Cmd {
	idx := a.index
	return func() tea.Msg {
		if idx == nil {
			return errorMsg{err: errors.New(MsgIndexPending)}
		}
		positions, err := idx.Refine(text)
		return refinedMsg{seq: seq, positions: positions, err: err}
	}
}

func (a *App) renderItem(m pipeline.Match) tea.Cmd {
	return func() tea.Msg {
		var content strings.Builder
		fmt.Fprintf(&content, "# %s\n\n", m.Title)

		published := export.Unknown
		if m.Published != nil {
			published = m.Published.UTC().Format(time.RFC1123)
		}
		fmt.Fprintf(&content, "*%s • %s*\n\n", m.Source, published)

		if m.Link != "" {
			fmt.Fprintf(&content, "[Read Online](%s)\n\n", m.Link)
		}

		content.WriteString("---\n\n")
		if m.Summary != "" {
			content.WriteString(m.Summary)
		} else {
			content.WriteString("_No summary._")
		}
		fmt.Fprintf(&content, "\n\n> Match details: %s\n", m.Reason)

		r, err := a.getRenderer()
		if err != nil {
			return itemRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(content.String())
		if err != nil {
			return itemRenderedMsg{content: content.String()}
		}
		return itemRenderedMsg{content: rendered}
	}
}

func (a *App) exportVisible(path string) tea.Cmd {
	matches := append([]pipeline.Match(nil), a.visible...)
	return func() tea.Msg {
		if err := export.Export(path, matches); err != nil {
			return exportDoneMsg{path: path, err: err}
		}
		return exportDoneMsg{path: path, count: len(matches)}
	}
}

func (a *App) openLink(link string) tea.Cmd {
	opener := a.opener
	return func() tea.Msg {
		if opener == nil {
			return openDoneMsg{err: errors.New("no opener configured")}
		}
		return openDoneMsg{err: opener.Open(link)}
	}
}
