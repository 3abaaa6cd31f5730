package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/pipeline"
	"github.com/pders01/newsagent/internal/search"
)

// Loader runs the search the browser displays. It is called on start and
// on every reload.
type Loader func(ctx context.Context) (*pipeline.Result, error)

// LinkOpener hands a link to the platform browser.
type LinkOpener interface {
	Open(link string) error
}

// DefaultExportPath is offered when exporting from the browser.
const DefaultExportPath = "newsagent-results.md"

const refineDebounce = 150 * time.Millisecond

type App struct {
	config     *config.Config
	load       Loader
	opener     LinkOpener
	keyHandler *KeyHandler

	results     list.Model
	viewport    viewport.Model
	refineInput textinput.Model
	exportInput textinput.Model
	spinner     spinner.Model

	view    View
	result  *pipeline.Result
	visible []pipeline.Match
	current *pipeline.Match
	index   search.Refiner
	filter  string

	refineSeq  int
	loading    bool
	rendering  bool
	showHelp   bool
	status     string
	statusKind StatusKind

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	now             func() time.Time
}

func NewApp(cfg *config.Config, load Loader, opener LinkOpener) *App {
	results := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	results.Title = "› results"
	results.SetShowStatusBar(false)
	results.SetFilteringEnabled(false)
	results.SetShowHelp(false)

	ri := textinput.New()
	ri.Placeholder = "Refine results…"

	ei := textinput.New()
	ei.Placeholder = "results.md, results.csv or results.jsonl"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	app := &App{
		config:      cfg,
		load:        load,
		opener:      opener,
		results:     results,
		viewport:    viewport.New(0, 0),
		refineInput: ri,
		exportInput: ei,
		spinner:     sp,
		view:        ViewResults,
		now:         time.Now,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

// Result returns the currently loaded result, if any.
func (a *App) Result() *pipeline.Result { return a.result }

// Visible returns the matches currently listed, after any refinement.
func (a *App) Visible() []pipeline.Match { return a.visible }

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.Reader.WordWrapMaxWidth
	minWidth := a.config.UI.Reader.WordWrapMinWidth

	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	a.loading = true
	a.setStatus(MsgSearching, StatusInfo)
	return tea.Batch(
		tea.EnterAltScreen,
		a.spinner.Tick,
		a.runSearch(),
	)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.results.SetSize(msg.Width, msg.Height-3)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3

		inputWidth := msg.Width - 8
		if inputWidth < 20 {
			inputWidth = msg.Width
		}
		a.refineInput.Width = inputWidth
		a.exportInput.Width = inputWidth
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.loading && !a.rendering {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case resultLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.setStatus(wrapErr("search failed", msg.err).Error(), StatusError)
			return a, nil
		}
		a.setResult(msg.result)
		return a, a.buildIndex(msg.result)

	case indexReadyMsg:
		if msg.err != nil {
			a.setStatus(wrapErr("index", msg.err).Error(), StatusWarn)
			return a, nil
		}
		if a.result == nil || msg.resultID != a.result.ID {
			_ = msg.index.Close()
			return a, nil
		}
		if a.index != nil {
			_ = a.index.Close()
		}
		a.index = msg.index
		if a.filter != "" {
			a.refineSeq++
			return a, a.refine(a.refineSeq, a.filter)
		}
		return a, nil

	case refineDebounceMsg:
		if msg.seq != a.refineSeq {
			return a, nil
		}
		return a, a.refine(msg.seq, a.filter)

	case refinedMsg:
		if msg.seq != a.refineSeq {
			return a, nil
		}
		if msg.err != nil {
			a.setStatus(wrapErr("refine", msg.err).Error(), StatusError)
			return a, nil
		}
		a.applyPositions(msg.positions)
		return a, nil

	case itemRenderedMsg:
		a.rendering = false
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
		}
		return a, nil

	case exportDoneMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
			return a, nil
		}
		a.setStatus(MsgExported(msg.path, msg.count), StatusSuccess)
		return a, nil

	case openDoneMsg:
		if msg.err != nil {
			a.setStatus(wrapErr("open", msg.err).Error(), StatusError)
		}
		return a, nil

	case errorMsg:
		a.setStatus(msg.err.Error(), StatusError)
		return a, nil
	}

	return a, nil
}

// setResult replaces the loaded result and clears any refinement.
func (a *App) setResult(res *pipeline.Result) {
	a.result = res
	a.current = nil
	a.filter = ""
	a.refineInput.Reset()
	a.setVisible(res.Items)

	kind := StatusSuccess
	switch {
	case len(res.Warnings) > 0:
		kind = StatusWarn
	case len(res.Items) == 0:
		kind = StatusInfo
	}
	text := MsgSearchSummary(len(res.Items), res.Stats.Sources, len(res.Warnings))
	if len(res.Items) == 0 {
		text = MsgNoResults
	}
	a.setStatus(text, kind)
}

func (a *App) setVisible(matches []pipeline.Match) {
	a.visible = matches
	items := make([]list.Item, len(matches))
	for i, m := range matches {
		items[i] = resultItem{match: m, now: a.now(), summaryLen: a.config.UI.Reader.MaxSummaryLength}
	}
	a.results.SetItems(items)
	a.results.ResetSelected()
}

// applyPositions narrows the list to the given result positions, keeping
// their original order.
func (a *App) applyPositions(positions []int) {
	if a.result == nil {
		return
	}
	subset := make([]pipeline.Match, 0, len(positions))
	for _, p := range positions {
		if p >= 0 && p < len(a.result.Items) {
			subset = append(subset, a.result.Items[p])
		}
	}
	a.setVisible(subset)
	if a.filter == "" {
		a.setStatus(MsgResultsCount(len(subset)), StatusInfo)
		return
	}
	a.setStatus(MsgFiltered(len(subset), len(a.result.Items)), StatusInfo)
}

func (a *App) clearFilter() {
	a.filter = ""
	a.refineInput.Reset()
	a.refineSeq++
	if a.result != nil {
		a.setVisible(a.result.Items)
		a.setStatus(MsgResultsCount(len(a.result.Items)), StatusInfo)
	}
}

func (a *App) selected() (pipeline.Match, bool) {
	if a.view == ViewReader && a.current != nil {
		return *a.current, true
	}
	if i, ok := a.results.SelectedItem().(resultItem); ok {
		return i.match, true
	}
	return pipeline.Match{}, false
}

func (a *App) View() string {
	bodyHeight := max(a.height-3, 1)
	var content string

	switch a.view {
	case ViewResults:
		switch {
		case a.loading && a.result == nil:
			content = renderCentered(a.width, bodyHeight,
				GetCompactBanner(a.spinner.View()+" "+MsgSearching))
		case a.result != nil && len(a.result.Items) == 0:
			content = renderCentered(a.width, bodyHeight, GetCompactBanner(MsgNoResults))
		default:
			if a.filter != "" {
				a.results.Title = "› results: " + truncateEnd(a.filter, 40)
			} else {
				a.results.Title = "› results"
			}
			content = a.results.View()
		}

	case ViewReader:
		if a.rendering {
			content = renderCentered(a.width, bodyHeight,
				renderMuted(a.spinner.View()+" Loading…"))
		} else {
			content = a.viewport.View()
		}

	case ViewRefine:
		header := renderHeader("› refine", "Matches title, summary and source; order is kept", a.width)
		content = lipgloss.JoinVertical(lipgloss.Top,
			header,
			"",
			renderInputFrame(a.refineInput.View(), a.refineInput.Focused(), a.refineInput.Width),
			renderHelp("Enter: keep filter • Esc: clear"),
			"",
			a.results.View(),
		)
		content = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(content)

	case ViewExport:
		content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			TitleStyle.Render("› export"),
			"",
			renderInputFrame(a.exportInput.View(), true, a.exportInput.Width),
			"",
			renderHelp("Extension picks the format • Enter: write • Esc: cancel"),
		))
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) statusBar() string {
	commands := a.keyHandler.GetHelpForCurrentView()
	left := StatusStyle(a.statusKind).Render(a.status)
	if a.statusKind == StatusError {
		left = StatusErrorStyle.Render("✗ " + a.status)
	}
	if !a.showHelp || len(commands) == 0 {
		return StatusBarStyle.Width(a.width).Render(left)
	}
	return StatusBarStyle.Width(a.width).Render(
		lipgloss.JoinVertical(lipgloss.Top, left, renderHelp(strings.Join(commands, " • "))))
}

type resultItem struct {
	match      pipeline.Match
	now        time.Time
	summaryLen int
}

func (i resultItem) Title() string { return i.match.Title }

func (i resultItem) Description() string {
	when := "date unknown"
	if i.match.Published != nil {
		when = humanize.RelTime(*i.match.Published, i.now, "ago", "from now")
	}
	meta := SourceStyle.Render(i.match.Source) + TimeStyle.Render(" • "+when)
	if i.match.Summary == "" || i.summaryLen <= 0 {
		return meta
	}
	return meta + renderMuted(" • "+truncateEnd(i.match.Summary, i.summaryLen))
}

func (i resultItem) FilterValue() string { return i.match.Title }

type resultLoadedMsg struct {
	result *pipeline.Result
	err    error
}

type indexReadyMsg struct {
	resultID string
	index    search.Refiner
	err      error
}

type refineDebounceMsg struct {
	seq int
}

type refinedMsg struct {
	seq       int
	positions []int
	err       error
}

type itemRenderedMsg struct {
	content string
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

type openDoneMsg struct {
	err error
}

type errorMsg struct {
	err error
}
