package ui

import (
	"strings"

	"github.com/atomicstack/searchpanes/internal/logging/events"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SearchForm edits the grid's global search term.
type SearchForm struct {
	input textinput.Model
	title string
	help  string
}

// NewSearchForm starts the form with the current term.
func NewSearchForm(initial string) *SearchForm {
	ti := textinput.New()
	ti.Placeholder = "search every column"
	ti.CharLimit = 256
	if initial != "" {
		ti.SetValue(initial)
		ti.CursorEnd()
	}
	ti.Focus()
	return &SearchForm{
		input: ti,
		title: "Search rows",
		help:  "Press Enter to apply. An empty search shows every row. Esc to cancel.",
	}
}

func (f *SearchForm) Title() string     { return f.title }
func (f *SearchForm) Help() string      { return f.help }
func (f *SearchForm) Value() string     { return strings.TrimSpace(f.input.Value()) }
func (f *SearchForm) InputView() string { return f.input.View() }

// Update returns the input's command and whether the form was submitted or
// cancelled.
func (f *SearchForm) Update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+u":
			if f.input.Value() != "" {
				f.input.SetValue("")
				f.input.CursorStart()
			}
			return nil, false, false
		}
		switch key.Type {
		case tea.KeyEsc:
			return nil, false, true
		case tea.KeyEnter:
			return nil, true, false
		}
	}
	updated, cmd := f.input.Update(msg)
	f.input = updated
	return cmd, false, false
}

func (m *Model) startSearchForm() {
	if m.grid == nil {
		return
	}
	m.searchForm = NewSearchForm(m.grid.GlobalSearch())
	m.mode = ModeSearchForm
}

func (m *Model) handleSearchForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.searchForm == nil {
		m.mode = ModePanes
		return false, nil
	}
	if _, ok := msg.(tea.KeyMsg); !ok {
		// Fetch results and resizes keep flowing while the form is open.
		if m.handlerFor(msg) != nil {
			return false, nil
		}
	}
	cmd, done, cancel := m.searchForm.Update(msg)
	if cancel {
		m.searchForm = nil
		m.mode = ModePanes
		return true, cmd
	}
	if done {
		term := m.searchForm.Value()
		m.searchForm = nil
		m.mode = ModePanes
		m.applyGlobalSearch(term)
		return true, cmd
	}
	return true, cmd
}

// applyGlobalSearch redraws the grid under a new search. Client grids
// reconcile on the draw; server grids fetch.
func (m *Model) applyGlobalSearch(term string) {
	if m.grid.GlobalSearch() == term {
		return
	}
	events.Filter.Global(term)
	m.grid.SetGlobalSearch(term)
	m.grid.Draw()
	m.refreshLevels()
}

func (m *Model) viewSearchForm(header string) string {
	lines := []string{
		m.searchForm.Title(),
		"",
		m.searchForm.InputView(),
		"",
		m.searchForm.Help(),
	}
	if header != "" {
		lines = append([]string{header}, lines...)
	}
	return strings.Join(lines, "\n")
}
