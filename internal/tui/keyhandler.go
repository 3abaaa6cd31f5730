package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/newsagent/internal/config"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, modifierKey: modifierKey}
}

func (kh *KeyHandler) bound(action string) string {
	return kh.modifierKey + action
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewRefine:
		return kh.app.refineInput.Focused()
	case ViewExport:
		return kh.app.exportInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return kh.navigateBack()
	case "ctrl+c":
		return kh.app, tea.Quit
	case "enter":
		return kh.handleTextInputEnter()
	case "down", "tab":
		if kh.app.view == ViewRefine {
			return kh.keepFilter()
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewRefine:
		return kh.keepFilter()

	case ViewExport:
		path := strings.TrimSpace(kh.app.exportInput.Value())
		if path == "" {
			return kh.app, nil
		}
		kh.app.exportInput.Blur()
		kh.app.view = ViewResults
		kh.app.setStatus(MsgExporting, StatusInfo)
		return kh.app, kh.app.exportVisible(path)

	default:
		return kh.app, nil
	}
}

// keepFilter leaves refine mode with the current filter applied.
func (kh *KeyHandler) keepFilter() (tea.Model, tea.Cmd) {
	kh.app.refineInput.Blur()
	kh.app.view = ViewResults
	if kh.app.filter == "" {
		kh.app.clearFilter()
	}
	return kh.app, nil
}

// delegateToTextInput passes the key to the focused input. Refine input
// changes are debounced before the index is queried.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewRefine:
		prev := kh.app.refineInput.Value()
		var cmd tea.Cmd
		kh.app.refineInput, cmd = kh.app.refineInput.Update(msg)

		value := sanitizeRefineInput(kh.app.refineInput.Value())
		if value == sanitizeRefineInput(prev) {
			return kh.app, cmd
		}
		kh.app.filter = value
		return kh.app, tea.Batch(cmd, kh.app.scheduleRefine())

	case ViewExport:
		var cmd tea.Cmd
		kh.app.exportInput, cmd = kh.app.exportInput.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

func sanitizeRefineInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	b := kh.config.Keys.Bindings

	switch key {
	case "ctrl+c", b.Quit:
		return kh.app, tea.Quit, true
	case b.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case b.Help:
		kh.app.showHelp = !kh.app.showHelp
		return kh.app, nil, true
	case kh.bound("r"):
		if kh.app.loading {
			return kh.app, nil, true
		}
		kh.app.loading = true
		kh.app.view = ViewResults
		kh.app.setStatus(MsgSearching, StatusInfo)
		return kh.app, tea.Batch(kh.app.spinner.Tick, kh.app.runSearch()), true
	}

	if kh.app.result == nil {
		return kh.app, nil, false
	}

	switch key {
	case kh.bound(b.Refine):
		kh.app.view = ViewRefine
		kh.app.refineInput.SetValue(kh.app.filter)
		kh.app.refineInput.CursorEnd()
		return kh.app, kh.app.refineInput.Focus(), true
	case kh.bound(b.Open):
		m, ok := kh.app.selected()
		if !ok {
			return kh.app, nil, true
		}
		if m.Link == "" {
			kh.app.setStatus(MsgNoLink, StatusWarn)
			return kh.app, nil, true
		}
		return kh.app, kh.app.openLink(m.Link), true
	case kh.bound(b.Export):
		kh.app.view = ViewExport
		if kh.app.exportInput.Value() == "" {
			kh.app.exportInput.SetValue(DefaultExportPath)
		}
		kh.app.exportInput.CursorEnd()
		return kh.app, kh.app.exportInput.Focus(), true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewReader:
		kh.app.current = nil
		kh.app.view = ViewResults
	case ViewRefine:
		kh.app.refineInput.Blur()
		kh.app.clearFilter()
		kh.app.view = ViewResults
	case ViewExport:
		kh.app.exportInput.Blur()
		kh.app.view = ViewResults
	case ViewResults:
		if kh.app.filter != "" {
			kh.app.clearFilter()
		}
	}
	return kh.app, nil
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewResults:
		kh.app.results, cmd = kh.app.results.Update(msg)
		if msg.String() == "enter" {
			if i, ok := kh.app.results.SelectedItem().(resultItem); ok {
				m := i.match
				kh.app.current = &m
				kh.app.rendering = true
				kh.app.view = ViewReader
				return kh.app, tea.Batch(kh.app.spinner.Tick, kh.app.renderItem(m))
			}
		}
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// GetHelpForCurrentView lists the custom keys available in the current view.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.config.Keys.Bindings
	switch kh.app.view {
	case ViewResults:
		return []string{
			"enter: read",
			kh.bound(b.Refine) + ": refine",
			kh.bound(b.Open) + ": open",
			kh.bound(b.Export) + ": export",
			kh.bound("r") + ": reload",
			b.Quit + ": quit",
		}
	case ViewReader:
		return []string{
			"↑↓: scroll",
			kh.bound(b.Open) + ": open",
			b.Back + ": back",
			b.Quit + ": quit",
		}
	case ViewRefine:
		return []string{"enter: keep", "esc: clear"}
	case ViewExport:
		return []string{"enter: write", "esc: cancel"}
	default:
		return nil
	}
}
