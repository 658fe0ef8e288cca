package ui

import (
	"fmt"
	"reflect"
	"time"

	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/engine"
	"github.com/atomicstack/searchpanes/internal/grid"
	"github.com/atomicstack/searchpanes/internal/pane"
	"github.com/atomicstack/searchpanes/internal/persist"
	"github.com/atomicstack/searchpanes/internal/theme"
	uistate "github.com/atomicstack/searchpanes/internal/ui/state"
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

type level = uistate.Level

type Mode int

const (
	ModePanes Mode = iota
	ModeSearchForm
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Grid is the host the model renders and drives.
type Grid interface {
	engine.Host
	Row(id int) []string
	GlobalSearch() string
	SetGlobalSearch(term string)
	SaveState() grid.State
	LoadState(data []byte) grid.State
	Init()
}

// deliverer grids accept fetch results from a backend.Fetcher.
type deliverer interface {
	Deliver(res backend.Result) bool
}

// Options configure a Model.
type Options struct {
	Engine     *engine.Engine
	Grid       Grid
	Store      persist.Store
	Fetcher    *backend.Fetcher
	Width      int
	Height     int
	ShowFooter bool
}

// Model implements the Bubble Tea model for the pane browser.
type Model struct {
	engine  *engine.Engine
	grid    Grid
	store   persist.Store
	fetcher *backend.Fetcher

	levels []*level
	focus  int

	mode       Mode
	searchForm *SearchForm

	errMsg      string
	infoMsg     string
	infoExpire  time.Time
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool

	filterCursor      cursor.Model
	filterCursorDirty bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds a model over an engine and its grid.
func NewModel(opts Options) *Model {
	m := &Model{
		engine:     opts.Engine,
		grid:       opts.Grid,
		store:      opts.Store,
		fetcher:    opts.Fetcher,
		showFooter: opts.ShowFooter,
		mode:       ModePanes,
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	m.filterCursor = c
	m.syncLevels()
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.fetcher != nil {
		cmds = append(cmds, waitForFetch(m.fetcher))
	}
	if cmd := m.filterCursor.Focus(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handled, cmd := m.handleActiveForm(msg); handled {
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, m.finishUpdate(cmds)
	}

	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) handleActiveForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.mode == ModeSearchForm {
		return m.handleSearchForm(msg)
	}
	return false, nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(fetchResultMsg{}):    m.handleFetchResultMsg,
		reflect.TypeOf(fetchDoneMsg{}):      m.handleFetchDoneMsg,
		reflect.TypeOf(actionResultMsg{}):   m.handleActionResultMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		m.filterCursor.Blink = false
		if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// syncLevels lists one level per displayed pane, keeping the cursor and
// search text of panes that were already listed.
func (m *Model) syncLevels() {
	if m.engine == nil {
		m.levels = nil
		return
	}
	prev := make(map[int]*level, len(m.levels))
	for _, l := range m.levels {
		prev[l.Column] = l
	}
	focused := -1
	if current := m.currentLevel(); current != nil {
		focused = current.Column
	}
	levels := make([]*level, 0, len(m.engine.Panes()))
	for _, p := range m.engine.Panes() {
		if !p.Displayed {
			continue
		}
		l, ok := prev[p.Index]
		if ok {
			l.Title = p.Name
			l.Refresh()
		} else {
			l = m.newLevel(p)
		}
		levels = append(levels, l)
	}
	m.levels = levels
	m.focus = 0
	for i, l := range levels {
		if l.Column == focused {
			m.focus = i
		}
	}
	for _, l := range levels {
		m.syncViewport(l)
	}
}

func (m *Model) newLevel(p *pane.Pane) *level {
	l := uistate.NewLevel(fmt.Sprintf("pane:%d", p.Index), p.Name, p.Index, m.paneSearch(p.Index))
	if term := p.SearchTerm(); term != "" {
		l.SetFilter(term, len([]rune(term)))
	}
	return l
}

// paneSearch resolves the pane on every call; Rebuild replaces pane values.
func (m *Model) paneSearch(column int) uistate.SearchFunc {
	return func(term string) []pane.Option {
		p := m.engine.Pane(column)
		if p == nil {
			return nil
		}
		p.SetSearchTerm(term)
		return p.Options()
	}
}

// refreshLevels re-lists every pane after counts or selections changed.
func (m *Model) refreshLevels() {
	m.syncLevels()
}

func (m *Model) currentLevel() *level {
	if m.focus < 0 || m.focus >= len(m.levels) {
		return nil
	}
	return m.levels[m.focus]
}

func (m *Model) currentPane() *pane.Pane {
	current := m.currentLevel()
	if current == nil || m.engine == nil {
		return nil
	}
	return m.engine.Pane(current.Column)
}

// Levels exposes the listed panes for inspection.
func (m *Model) Levels() []*uistate.Level {
	return append([]*level(nil), m.levels...)
}
