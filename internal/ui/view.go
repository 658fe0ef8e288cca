package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"

	"github.com/atomicstack/searchpanes/internal/format/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultPaneWidth = 28
	defaultTableRows = 10
	paneGap          = "  "
	footerText       = "tab pane  ↑/↓ move  shift+↑/↓ checked  enter toggle  ctrl+o order  ctrl+f search  ctrl+d pane clear  ctrl+x clear all  ctrl+s save  ctrl+y copy  esc quit"
)

// recordCounter grids know their filtered and total record counts.
type recordCounter interface {
	Records() (total, filtered int)
}

type pender interface {
	Pending() bool
}

type styledLine struct {
	text          string
	style         *lipgloss.Style
	prefixStyle   *lipgloss.Style
	highlightFrom int
	raw           bool
}

// View implements tea.Model.
func (m *Model) View() string {
	header := m.header()
	if m.mode == ModeSearchForm && m.searchForm != nil {
		return m.viewSearchForm(header)
	}
	lines := []styledLine{{text: header, style: styles.Header}}
	lines = applyWidth(lines, m.width)
	out := []string{renderLines(lines)}
	if panes := m.viewPanes(); panes != "" {
		out = append(out, panes)
	}
	out = append(out, "")
	out = append(out, m.viewTable())

	tail := make([]styledLine, 0, 4)
	if info := m.currentInfo(); info != "" {
		tail = append(tail, styledLine{}, styledLine{text: info, style: styles.Info})
	}
	if m.showFooter {
		tail = append(tail, styledLine{}, styledLine{text: footerText, style: styles.Footer})
	}
	tail = append(tail, m.statusLine())
	out = append(out, renderLines(applyWidth(tail, m.width)))
	return strings.Join(out, "\n")
}

// header summarises the active filters and the rows they leave.
func (m *Model) header() string {
	parts := []string{}
	if m.engine != nil {
		parts = append(parts, fmt.Sprintf("Filters Active - %d", m.engine.FilterCount()))
	}
	if shown, total, ok := m.recordCounts(); ok {
		parts = append(parts, fmt.Sprintf("%s of %s rows", humanize.Comma(int64(shown)), humanize.Comma(int64(total))))
	}
	if m.grid != nil {
		if term := m.grid.GlobalSearch(); term != "" {
			parts = append(parts, fmt.Sprintf("search %q", term))
		}
	}
	return strings.Join(parts, " · ")
}

func (m *Model) recordCounts() (shown, total int, ok bool) {
	if m.grid == nil {
		return 0, 0, false
	}
	if rc, isCounter := m.grid.(recordCounter); isCounter {
		total, filtered := rc.Records()
		return filtered, total, true
	}
	return len(m.grid.VisibleRows()), len(m.grid.AllRows()), true
}

func (m *Model) statusLine() styledLine {
	if m.errMsg != "" {
		return styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error}
	}
	if p, ok := m.grid.(pender); ok && p.Pending() {
		return styledLine{text: "Loading…", style: styles.Loading}
	}
	return styledLine{}
}

func (m *Model) paneWidth() int {
	n := len(m.levels)
	if n == 0 || m.width <= 0 {
		return defaultPaneWidth
	}
	w := (m.width - (n-1)*len(paneGap)) / n
	if w < 8 {
		return 8
	}
	return w
}

// viewPanes renders every listed pane side by side.
func (m *Model) viewPanes() string {
	if len(m.levels) == 0 {
		return ""
	}
	width := m.paneWidth()
	blocks := make([]string, 0, len(m.levels)*2)
	for i, l := range m.levels {
		if i > 0 {
			blocks = append(blocks, paneGap)
		}
		blocks = append(blocks, m.viewPane(l, i == m.focus, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func (m *Model) viewPane(l *level, focused bool, width int) string {
	m.syncViewport(l)
	titleStyle := styles.PaneTitle
	if focused {
		titleStyle = styles.FocusedPaneTitle
	}
	title := l.Title
	if p := m.engine.Pane(l.Column); p != nil {
		if n := len(p.Selections()); n > 0 {
			title = fmt.Sprintf("%s (%d)", title, n)
		}
	}
	lines := []styledLine{
		{text: title, style: titleStyle},
		{text: m.filterPrompt(l, focused), raw: true},
	}
	rows := m.maxVisibleItems()
	if rows <= 0 {
		rows = len(l.Items)
	}
	if len(l.Items) == 0 {
		msg := "(no values)"
		if l.Filter != "" {
			msg = fmt.Sprintf("No matches for %q", l.Filter)
		}
		lines = append(lines, styledLine{text: msg, style: styles.Info})
	} else {
		start := l.ViewportOffset
		if start < 0 || start >= len(l.Items) {
			start = 0
		}
		end := start + rows
		if end > len(l.Items) {
			end = len(l.Items)
		}
		for idx := start; idx < end; idx++ {
			lines = append(lines, m.buildItemLine(l, idx, focused, width))
		}
	}
	lines = applyWidth(lines, width)
	rendered := strings.Split(renderLines(lines), "\n")
	for i, line := range rendered {
		if pad := width - lipgloss.Width(line); pad > 0 {
			rendered[i] = line + strings.Repeat(" ", pad)
		}
	}
	return strings.Join(rendered, "\n")
}

// buildItemLine renders one option as "▌ [✓] label  badge", the badge flush
// right within width.
func (m *Model) buildItemLine(l *level, idx int, focused bool, width int) styledLine {
	item := l.Items[idx]
	indicator := "▌"
	lineStyle := styles.Item
	indicatorStyle := styles.ItemIndicator
	if focused && idx == l.Cursor {
		indicatorStyle = styles.SelectedItemIndicator
		lineStyle = styles.SelectedItem
	}
	mark := " "
	if item.Selected {
		mark = "✓"
	}
	badge := ""
	if p := m.engine.Pane(l.Column); p != nil {
		badge = p.Badge(item)
	}
	left := fmt.Sprintf("%s [%s] %s", indicator, mark, item.Label)
	room := width - lipgloss.Width(badge) - 1
	if room > 0 && lipgloss.Width(left) > room {
		left = table.Truncate(left, room)
	}
	text := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(badge); pad > 0 {
		text += strings.Repeat(" ", pad)
	} else {
		text += " "
	}
	text += badge
	return styledLine{
		text:          text,
		style:         lineStyle,
		prefixStyle:   indicatorStyle,
		highlightFrom: 1,
	}
}

// viewTable renders the grid's visible rows under a header row.
func (m *Model) viewTable() string {
	records := m.visibleRecords()
	if len(records) == 0 {
		return ""
	}
	limit := m.tableRows()
	if len(records)-1 > limit {
		records = records[:limit+1]
	}
	formatted := table.Format(records, nil)
	lines := make([]styledLine, len(formatted))
	for i, text := range formatted {
		style := styles.TableRow
		if i == 0 {
			style = styles.TableHeader
		}
		lines[i] = styledLine{text: text, style: style}
	}
	if len(formatted) == 1 {
		lines = append(lines, styledLine{text: "(no matching rows)", style: styles.Info})
	}
	return renderLines(applyWidth(lines, m.width))
}

// layoutRows splits the height left after fixed chrome between the pane
// lists and the table.
func (m *Model) layoutRows() (paneRows, tableRows int) {
	if m.height <= 0 {
		return -1, defaultTableRows
	}
	// header, pane title, pane prompt, blank, table header, status
	used := 6
	if m.infoMsg != "" {
		used += 2
	}
	if m.showFooter {
		used += 2
	}
	remain := m.height - used
	if remain < 2 {
		return 1, 1
	}
	paneRows = remain / 2
	return paneRows, remain - paneRows
}

func (m *Model) maxVisibleItems() int {
	rows, _ := m.layoutRows()
	return rows
}

func (m *Model) tableRows() int {
	_, rows := m.layoutRows()
	return rows
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	for _, l := range m.levels {
		m.syncViewport(l)
	}
	return nil
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(5 * time.Second)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			if lipgloss.Width(text) > width {
				text = truncate.StringWithTail(text, uint(width-1), "…")
			}
		} else {
			text = table.Truncate(text, width)
		}
		result[i] = styledLine{
			text:          text,
			style:         line.style,
			prefixStyle:   line.prefixStyle,
			highlightFrom: line.highlightFrom,
			raw:           line.raw,
		}
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if line.raw {
			out[i] = text
			continue
		}
		runes := []rune(text)
		if line.highlightFrom > 0 && line.highlightFrom < len(runes) {
			head := string(runes[:line.highlightFrom])
			tail := string(runes[line.highlightFrom:])
			if line.prefixStyle != nil {
				head = line.prefixStyle.Render(head)
			}
			if line.style != nil {
				tail = line.style.Render(tail)
			}
			text = head + tail
		} else if line.style != nil && text != "" {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}
