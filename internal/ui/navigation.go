package ui

import (
	"fmt"

	"github.com/atomicstack/searchpanes/internal/logging/events"
	uistate "github.com/atomicstack/searchpanes/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if m.mode != ModePanes {
		return nil
	}
	if m.handleTextInput(keyMsg) {
		return nil
	}
	switch keyMsg.String() {
	case "ctrl+c":
		return m.quit()
	case "esc":
		return m.handleEscapeKey()
	case "enter":
		m.toggleCurrent()
	case "tab":
		m.moveFocus(1)
	case "shift+tab":
		m.moveFocus(-1)
	case "left":
		m.handleHorizontal(-1)
	case "right":
		m.handleHorizontal(1)
	case "up":
		m.moveCursorBy(-1)
	case "down":
		m.moveCursorBy(1)
	case "shift+up":
		m.moveToChecked(-1)
	case "shift+down":
		m.moveToChecked(1)
	case "pgup":
		m.moveCursorPage(-1)
	case "pgdown":
		m.moveCursorPage(1)
	case "home":
		m.moveCursor((*level).MoveCursorHome)
	case "end":
		m.moveCursor((*level).MoveCursorEnd)
	case "ctrl+o":
		m.cycleOrder()
	case "ctrl+d":
		m.deselectPane()
	case "ctrl+f":
		m.startSearchForm()
	case "ctrl+x":
		return m.clearSelections()
	case "ctrl+r":
		return m.rebuild()
	case "ctrl+s":
		return m.saveCmd()
	case "ctrl+y":
		return m.copyCmd()
	}
	return nil
}

// handleEscapeKey clears the focused pane's search first and quits when
// there is nothing to clear.
func (m *Model) handleEscapeKey() tea.Cmd {
	if !m.editSearch(clearEdit) {
		return m.quit()
	}
	m.errMsg = ""
	return nil
}

// handleHorizontal moves the search caret, and the focus once the caret
// cannot move further.
func (m *Model) handleHorizontal(delta int) {
	if m.editSearch(caretEdit(uistate.UnitRune, delta)) {
		return
	}
	m.moveFocus(delta)
}

func (m *Model) moveFocus(delta int) {
	n := len(m.levels)
	if n == 0 {
		return
	}
	m.focus = ((m.focus+delta)%n + n) % n
	m.filterCursorDirty = true
	if current := m.currentLevel(); current != nil {
		events.UI.Focus(current.Column)
	}
}

func (m *Model) toggleCurrent() {
	current := m.currentLevel()
	p := m.currentPane()
	if current == nil || p == nil {
		return
	}
	item, ok := current.Current()
	if !ok {
		return
	}
	events.UI.Toggle(p.Index, item.Key)
	p.Toggle(item.Key)
	m.errMsg = ""
	m.refreshLevels()
}

func (m *Model) deselectPane() {
	p := m.currentPane()
	if p == nil {
		return
	}
	if p.DeselectAll() {
		m.refreshLevels()
	}
}

func (m *Model) cycleOrder() {
	current := m.currentLevel()
	p := m.currentPane()
	if current == nil || p == nil {
		return
	}
	if !p.SetOrder(p.Order().Next()) {
		return
	}
	current.Refresh()
	m.syncViewport(current)
	m.setInfo(fmt.Sprintf("%s sorted by %s", p.Name, p.Order()))
}

// moveCursor applies move to the focused level and traces the result.
func (m *Model) moveCursor(move func(l *level) bool) {
	current := m.currentLevel()
	if current == nil {
		return
	}
	if move(current) {
		events.UI.Cursor(current.Column, current.Cursor)
	}
	m.syncViewport(current)
}

func (m *Model) moveCursorBy(delta int) {
	m.moveCursor(func(l *level) bool { return l.MoveCursor(delta, true) })
}

func (m *Model) moveCursorPage(pages int) {
	rows := m.maxVisibleItems()
	m.moveCursor(func(l *level) bool { return l.MoveCursorPage(pages, rows) })
}

// moveToChecked jumps between the checked options of the focused pane.
func (m *Model) moveToChecked(dir int) {
	m.moveCursor(func(l *level) bool { return l.MoveCursorToChecked(dir) })
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.EnsureCursorVisible(m.maxVisibleItems())
}
