package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"

	"github.com/atomicstack/searchpanes/internal/logging"
	"github.com/atomicstack/searchpanes/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// actionResultMsg reports the outcome of a command run off the update loop.
type actionResultMsg struct {
	Info string
	Err  error
}

// writeClipboard is swapped out by tests.
var writeClipboard = clipboard.WriteAll

func (m *Model) handleActionResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(actionResultMsg)
	if !ok {
		return nil
	}
	if result.Err != nil {
		m.errMsg = result.Err.Error()
		m.forceClearInfo()
		events.Action.Error(result.Err)
		return nil
	}
	m.errMsg = ""
	if result.Info != "" {
		m.setInfo(result.Info)
	}
	events.Action.Success(result.Info)
	return nil
}

// encodeState captures the grid state, including the pane block the
// persistence adapter adds on save.
func (m *Model) encodeState() ([]byte, error) {
	if m.grid == nil {
		return nil, nil
	}
	return m.grid.SaveState().Encode()
}

// saveCmd snapshots the state now and writes it to the store in the
// background.
func (m *Model) saveCmd() tea.Cmd {
	if m.store == nil {
		m.setInfo("No state store configured")
		return nil
	}
	data, err := m.encodeState()
	if err != nil {
		logging.Error(err)
		m.errMsg = err.Error()
		return nil
	}
	store := m.store
	return func() tea.Msg {
		if err := store.Save(context.Background(), data); err != nil {
			logging.Error(err)
			return actionResultMsg{Err: fmt.Errorf("save state: %w", err)}
		}
		return actionResultMsg{Info: fmt.Sprintf("State saved (%s)", humanize.Bytes(uint64(len(data))))}
	}
}

// quit saves the state synchronously so it is written before the program
// exits.
func (m *Model) quit() tea.Cmd {
	if m.store != nil {
		data, err := m.encodeState()
		if err == nil {
			err = m.store.Save(context.Background(), data)
		}
		if err != nil {
			logging.Error(err)
		}
	}
	return tea.Quit
}

// visibleRecords returns the header and the rows the grid currently shows.
func (m *Model) visibleRecords() [][]string {
	if m.grid == nil {
		return nil
	}
	columns := m.grid.Columns()
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Name
	}
	records := [][]string{header}
	for _, id := range m.grid.VisibleRows() {
		records = append(records, m.grid.Row(id))
	}
	return records
}

// copyCmd copies the visible rows to the clipboard as tab-separated text.
func (m *Model) copyCmd() tea.Cmd {
	records := m.visibleRecords()
	if len(records) == 0 {
		return nil
	}
	lines := make([]string, len(records))
	for i, record := range records {
		lines[i] = strings.Join(record, "\t")
	}
	text := strings.Join(lines, "\n") + "\n"
	rows := len(records) - 1
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			return actionResultMsg{Err: fmt.Errorf("copy rows: %w", err)}
		}
		return actionResultMsg{Info: fmt.Sprintf("Copied %s rows", humanize.Comma(int64(rows)))}
	}
}

func (m *Model) clearSelections() tea.Cmd {
	if m.engine == nil {
		return nil
	}
	m.engine.ClearSelections()
	m.refreshLevels()
	m.setInfo("Selections cleared")
	return nil
}

func (m *Model) rebuild() tea.Cmd {
	if m.engine == nil {
		return nil
	}
	m.engine.Rebuild(true)
	m.refreshLevels()
	m.setInfo("Panes rebuilt")
	return nil
}
