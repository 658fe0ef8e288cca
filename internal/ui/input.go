package ui

import (
	"fmt"
	"unicode"

	"github.com/atomicstack/searchpanes/internal/logging/events"
	uistate "github.com/atomicstack/searchpanes/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) updateFilterCursorModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.filterCursor, cmd = m.filterCursor.Update(msg)
	return cmd
}

// searchEdit is one key's effect on the focused pane's search box. Edits that
// change the text re-list the pane; caret moves only redraw the caret.
type searchEdit struct {
	apply  func(l *level) bool
	text   bool
	traced func(l *level)
}

func caretEdit(unit uistate.Unit, dir int) searchEdit {
	return searchEdit{
		apply:  func(l *level) bool { return l.MoveFilterCursor(unit, dir) },
		traced: func(l *level) { events.Filter.Cursor(l.Column, l.FilterCursor) },
	}
}

func deleteEdit(unit uistate.Unit) searchEdit {
	return searchEdit{
		apply: func(l *level) bool { return l.DeleteFilterBackward(unit) },
		text:  true,
		traced: func(l *level) {
			if unit == uistate.UnitWord {
				events.Filter.WordBackspace(l.Column, l.Filter)
				return
			}
			events.Filter.Backspace(l.Column, l.Filter)
		},
	}
}

var clearEdit = searchEdit{
	apply: func(l *level) bool {
		if l.Filter == "" {
			return false
		}
		l.SetFilter("", 0)
		return true
	},
	text:   true,
	traced: func(l *level) { events.Filter.Cleared(l.Column) },
}

var searchKeys = map[string]searchEdit{
	"ctrl+u":    clearEdit,
	"ctrl+w":    deleteEdit(uistate.UnitWord),
	"backspace": deleteEdit(uistate.UnitRune),
	"ctrl+h":    deleteEdit(uistate.UnitRune),
	"ctrl+a":    caretEdit(uistate.UnitAll, -1),
	"ctrl+e":    caretEdit(uistate.UnitAll, 1),
	"alt+b":     caretEdit(uistate.UnitWord, -1),
	"alt+f":     caretEdit(uistate.UnitWord, 1),
}

func insertEdit(text string) searchEdit {
	return searchEdit{
		apply:  func(l *level) bool { return l.InsertFilterText(text) },
		text:   true,
		traced: func(l *level) { events.Filter.Append(l.Column, l.Filter) },
	}
}

// editSearch applies edit to the focused level. It reports whether the key
// was consumed.
func (m *Model) editSearch(edit searchEdit) bool {
	current := m.currentLevel()
	if current == nil {
		return false
	}
	before := current.FilterCursorPos()
	if !edit.apply(current) {
		return false
	}
	if before != current.FilterCursorPos() {
		m.filterCursorDirty = true
	}
	if edit.traced != nil {
		edit.traced(current)
	}
	if edit.text {
		m.forceClearInfo()
		m.syncViewport(current)
	}
	return true
}

// handleTextInput edits the focused pane's search box.
func (m *Model) handleTextInput(msg tea.KeyMsg) bool {
	if edit, ok := searchKeys[msg.String()]; ok {
		return m.editSearch(edit)
	}
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return false
		}
		for _, r := range msg.Runes {
			if unicode.IsControl(r) {
				return false
			}
		}
		return m.editSearch(insertEdit(string(msg.Runes)))
	case tea.KeySpace:
		return m.editSearch(insertEdit(" "))
	}
	return false
}

// filterPrompt renders l's search box. Only the focused pane shows a caret;
// an active search also shows how many of the pane's values it matched.
func (m *Model) filterPrompt(l *level, focused bool) string {
	render := func(style *lipgloss.Style, value string) string {
		if style == nil || value == "" {
			return value
		}
		return style.Render(value)
	}
	prompt := "» "
	if styles.FilterPrompt != nil {
		prompt = styles.FilterPrompt.Render(prompt)
	}
	m.filterCursor.TextStyle = lipgloss.Style{}
	if styles.Cursor != nil {
		m.filterCursor.Style = styles.Cursor.Copy()
	}

	if l.Filter == "" {
		placeholder := []rune("(search)")
		if !focused {
			return prompt + render(styles.FilterPlaceholder, string(placeholder))
		}
		if styles.FilterPlaceholder != nil {
			m.filterCursor.TextStyle = styles.FilterPlaceholder.Copy()
		}
		return prompt + m.renderFilterCursor(string(placeholder[0])) + render(styles.FilterPlaceholder, string(placeholder[1:]))
	}

	matched := render(styles.Badge, fmt.Sprintf(" (%d)", len(l.Items)))
	if !focused {
		return prompt + render(styles.Filter, l.Filter) + matched
	}
	if styles.Filter != nil {
		m.filterCursor.TextStyle = styles.Filter.Copy()
	}
	runes := []rune(l.Filter)
	pos := l.FilterCursorPos()
	caret, after := " ", ""
	if pos < len(runes) {
		caret = string(runes[pos])
		after = string(runes[pos+1:])
	}
	return prompt + render(styles.Filter, string(runes[:pos])) + m.renderFilterCursor(caret) + render(styles.Filter, after) + matched
}

// renderFilterCursor draws char as the caret. While the blink phase hides
// the caret the character is drawn in the text style.
func (m *Model) renderFilterCursor(char string) string {
	m.filterCursor.SetChar(char)
	base := m.filterCursor.TextStyle.Copy().Inline(true)
	switch {
	case m.filterCursor.Blink:
		return base.Render(char)
	case styles.Cursor != nil:
		return base.Inherit(styles.Cursor.Copy().Inline(true)).Blink(false).Render(char)
	default:
		return base.Reverse(true).Render(char)
	}
}
