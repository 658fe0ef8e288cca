// Package engine keeps a grid's filter panes consistent with each other.
//
// Every selection change is recorded in a ledger ordered by recency. A pass
// then replays the ledger against the grid so each pane's counts reflect the
// filters of the panes selected before it. Client-side grids are replayed
// locally; server-side grids ship the ledger with each fetch and take counts
// from the response.
package engine

import (
	"github.com/atomicstack/searchpanes/internal/backend"
	"github.com/atomicstack/searchpanes/internal/grid"
	"github.com/atomicstack/searchpanes/internal/ledger"
	"github.com/atomicstack/searchpanes/internal/logging/events"
	"github.com/atomicstack/searchpanes/internal/pane"
)

// Host is the grid the engine reconciles against.
type Host interface {
	AllRows() []int
	VisibleRows() []int
	Draw()
	ServerSide() bool
	Columns() []grid.Column
	Values(column int) []string
	Subscribe(kind grid.EventKind, handler grid.Handler) string
	Unsubscribe(id string) bool
	AddSearch(filter grid.RowFilter) string
	RemoveSearch(id string)
}

// selectionAware hosts send the ledger with their fetches.
type selectionAware interface {
	SetSelectionSource(fn func() []ledger.Entry)
}

// Mode is how reconciliation is carried out, fixed by the host.
type Mode int

const (
	ModeClient Mode = iota
	ModeServer
)

func (m Mode) String() string {
	if m == ModeServer {
		return "server"
	}
	return "client"
}

// ColumnOptions customise one column's pane.
type ColumnOptions struct {
	Show   *bool
	Header string
	Order  pane.Order
}

// Options configure an Engine.
type Options struct {
	Strategy  pane.Strategy
	Threshold float64
	Columns   map[int]ColumnOptions
	// PreSelect seeds the ledger on initialisation when no state was loaded.
	PreSelect []ledger.Entry
}

// Stats counts engine activity.
type Stats struct {
	Passes   int
	Dropped  int
	Arrivals int
}

// Engine owns the panes and the ledger of one grid.
type Engine struct {
	host Host
	opts Options
	mode Mode

	panes    []*pane.Pane
	paneSubs map[*pane.Pane]int
	ledger   *ledger.Ledger

	updating bool
	live     bool
	loaded   bool

	hostSubs []string
	searchID string
	stats    Stats
}

// New builds panes for every host column and subscribes to the host.
func New(host Host, opts Options) *Engine {
	e := &Engine{
		host:     host,
		opts:     opts,
		ledger:   ledger.New(),
		paneSubs: map[*pane.Pane]int{},
		live:     true,
	}
	if host.ServerSide() {
		e.mode = ModeServer
	}
	e.buildPanes()

	e.hostSubs = append(e.hostSubs,
		host.Subscribe(grid.EventInitialized, func(grid.Event) { e.handleInit() }),
		host.Subscribe(grid.EventDraw, e.handleDraw),
		host.Subscribe(grid.EventFetchFailed, e.handleFetchFailed),
	)
	if e.mode == ModeClient {
		e.searchID = host.AddSearch(e.matches)
	}
	if aware, ok := host.(selectionAware); ok {
		aware.SetSelectionSource(e.ledger.Entries)
	}
	return e
}

func (e *Engine) paneConfig(column int) pane.Config {
	cfg := pane.Config{Strategy: e.opts.Strategy, Threshold: e.opts.Threshold}
	if col, ok := e.opts.Columns[column]; ok {
		cfg.Show = col.Show
		cfg.Header = col.Header
		cfg.Order = col.Order
	}
	return cfg
}

func (e *Engine) buildPanes() {
	columns := e.host.Columns()
	e.panes = make([]*pane.Pane, 0, len(columns))
	for _, col := range columns {
		var p *pane.Pane
		if e.mode == ModeServer {
			p = pane.NewServer(col.Index, col.Name, e.paneConfig(col.Index))
		} else {
			p = pane.New(col.Index, col.Name, e.host.Values(col.Index), e.paneConfig(col.Index))
		}
		target := p
		e.paneSubs[p] = p.Subscribe(func(pane.EventKind) { e.trigger(target) })
		e.panes = append(e.panes, p)
	}
}

func (e *Engine) unsubscribePanes() {
	for p, id := range e.paneSubs {
		p.Unsubscribe(id)
	}
	e.paneSubs = map[*pane.Pane]int{}
}

// matches is the host row filter: a row passes when every pane admits it.
func (e *Engine) matches(row int) bool {
	for _, p := range e.panes {
		if !p.Matches(row) {
			return false
		}
	}
	return true
}

func (e *Engine) Mode() Mode { return e.mode }

// Updating reports whether a pass is in progress.
func (e *Engine) Updating() bool { return e.updating }

// Live reports whether the engine has not been destroyed.
func (e *Engine) Live() bool { return e.live }

func (e *Engine) Stats() Stats { return e.stats }

// Ledger returns the selection ledger. Callers must not mutate it.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Panes returns every pane in column order, displayed or not.
func (e *Engine) Panes() []*pane.Pane {
	return append([]*pane.Pane(nil), e.panes...)
}

// Pane returns the pane for column, or nil.
func (e *Engine) Pane(column int) *pane.Pane {
	for _, p := range e.panes {
		if p.Index == column {
			return p
		}
	}
	return nil
}

// FilterCount returns the number of selected values across all panes.
func (e *Engine) FilterCount() int {
	n := 0
	for _, p := range e.panes {
		n += len(p.Selections())
	}
	return n
}

// handleInit applies pre-selection. The draw preceding initialisation has
// already reconciled, so without pre-selection there is nothing to do.
func (e *Engine) handleInit() {
	if !e.live || e.loaded || e.ledger.Len() > 0 || len(e.opts.PreSelect) == 0 {
		return
	}
	e.ledger.Replace(e.opts.PreSelect)
	e.syncServerSelections()
	e.trigger(nil)
}

func (e *Engine) handleDraw(evt grid.Event) {
	if e.mode == ModeServer {
		if evt.Response != nil {
			e.arrive(evt.Response)
		}
		return
	}
	e.trigger(nil)
}

// Trigger reconciles after a change outside any pane, such as a new global
// search.
func (e *Engine) Trigger() {
	e.trigger(nil)
}

// trigger is the entry point for pane events (p set) and grid redraws.
func (e *Engine) trigger(p *pane.Pane) {
	column := -1
	if p != nil {
		column = p.Index
	}
	if !e.live {
		events.Engine.Dropped(column, events.EngineReasonDestroyed)
		return
	}
	if e.updating {
		if p != nil {
			e.stats.Dropped++
		}
		events.Engine.Dropped(column, events.EngineReasonUpdating)
		return
	}
	if p != nil && p.ServerSelecting() {
		e.stats.Dropped++
		events.Engine.Dropped(column, events.EngineReasonServerSelecting)
		return
	}
	events.Engine.Trigger(e.mode.String(), column)
	if p != nil {
		e.ledger.SetForColumn(p.Index, p.CurrentSelectionRowKeys())
	}
	if e.mode == ModeServer {
		if p != nil {
			p.SetServerSelecting(true)
		}
		e.host.Draw()
		return
	}
	e.reconcile()
}

// reconcile replays the ledger against a client-side host.
func (e *Engine) reconcile() {
	e.updating = true
	defer func() { e.updating = false }()
	e.stats.Passes++

	saved := e.ledger.Snapshot()
	for _, p := range e.panes {
		p.ClearSelections()
	}
	e.host.Draw()
	all := e.host.AllRows()
	baseline := e.host.VisibleRows()
	anotherFilter := len(all) > len(baseline)
	e.ledger.Replace(saved)
	events.Engine.Pass(e.ledger.Len(), anotherFilter)

	for _, p := range e.panes {
		if !p.Displayed {
			continue
		}
		p.FilteringActive = anotherFilter
		p.RecomputeCounts(baseline, all)
	}

	for _, entry := range e.ledger.Entries() {
		processed := e.Pane(entry.Column)
		if processed == nil {
			events.Engine.SkippedColumn(entry.Column)
			continue
		}
		processed.SetSelections(entry.Rows)
		e.host.Draw()
		visible := e.host.VisibleRows()

		filterCount, previous, selectedPanes := 0, 0, 0
		for _, p := range e.panes {
			if !p.HasList() {
				continue
			}
			filterCount += p.PaneCount()
			if filterCount > previous {
				selectedPanes++
				previous = filterCount
			}
		}
		active := filterCount > 0

		for _, p := range e.panes {
			if !p.Displayed {
				continue
			}
			if anotherFilter || p != processed || !active {
				p.FilteringActive = active || anotherFilter
			} else if selectedPanes == 1 {
				p.FilteringActive = false
			}
			if p != processed {
				p.RecomputeCounts(visible, all)
			}
		}
		events.Engine.Entry(entry.Column, filterCount, selectedPanes)
	}

	e.host.Draw()
}

// arrive applies a server response to the panes.
func (e *Engine) arrive(resp *backend.Response) {
	if !e.live {
		events.Engine.Dropped(-1, events.EngineReasonDestroyed)
		return
	}
	e.stats.Arrivals++
	events.Engine.ServerArrival(resp.Seq, len(resp.Options))

	var tail *pane.Pane
	if column, ok := e.ledger.LastColumn(); ok {
		tail = e.Pane(column)
	}

	var drifted []*pane.Pane
	e.updating = true
	for _, p := range e.panes {
		wasSelecting := p.ServerSelecting()
		p.SetServerSelecting(false)

		values, ok := resp.Options[p.Index]
		if !ok {
			continue
		}
		if p != tail || !p.HasList() {
			p.SetServerCounts(values)
		}
		if p.Displayed {
			p.FilteringActive = !pane.ServerCountsUnfiltered(values)
		}

		recorded, _ := e.ledger.Rows(p.Index)
		if wasSelecting && !sameKeys(p.CurrentSelectionRowKeys(), recorded) {
			drifted = append(drifted, p)
			continue
		}
		p.SetSelections(recorded)
	}
	e.updating = false
	e.replay(drifted)
}

// handleFetchFailed releases panes waiting on a fetch that will never
// arrive. Counts stay as they were.
func (e *Engine) handleFetchFailed(evt grid.Event) {
	if !e.live || e.mode != ModeServer {
		return
	}
	var drifted []*pane.Pane
	released := 0
	for _, p := range e.panes {
		if !p.ServerSelecting() {
			continue
		}
		p.SetServerSelecting(false)
		released++
		recorded, _ := e.ledger.Rows(p.Index)
		if !sameKeys(p.CurrentSelectionRowKeys(), recorded) {
			drifted = append(drifted, p)
		}
	}
	events.Engine.FetchFailed(released, evt.Err)
	e.replay(drifted)
}

// replay re-runs the trigger for panes whose clicks were dropped while a
// fetch was in flight.
func (e *Engine) replay(drifted []*pane.Pane) {
	for _, p := range drifted {
		e.trigger(p)
	}
}

// syncServerSelections copies the ledger into server-side panes that
// already know their values.
func (e *Engine) syncServerSelections() {
	if e.mode != ModeServer {
		return
	}
	for _, p := range e.panes {
		rows, _ := e.ledger.Rows(p.Index)
		p.SetSelections(rows)
	}
}

// Load replaces the ledger, typically from saved state, and reconciles.
func (e *Engine) Load(entries []ledger.Entry) {
	if !e.live {
		return
	}
	e.loaded = true
	e.ledger.Replace(entries)
	e.syncServerSelections()
	e.trigger(nil)
}

// ClearSelections empties every pane and the ledger, then reconciles.
func (e *Engine) ClearSelections() {
	if !e.live {
		return
	}
	e.ledger.Clear()
	for _, p := range e.panes {
		p.ClearSelections()
	}
	e.trigger(nil)
}

// Rebuild recreates the panes from the host's current data. Pane search
// terms and orders survive. Without maintainSelection the ledger is cleared.
func (e *Engine) Rebuild(maintainSelection bool) {
	if !e.live {
		return
	}
	type view struct {
		term  string
		order pane.Order
	}
	views := make(map[int]view, len(e.panes))
	for _, p := range e.panes {
		views[p.Index] = view{term: p.SearchTerm(), order: p.Order()}
	}

	e.unsubscribePanes()
	e.buildPanes()
	for _, p := range e.panes {
		if v, ok := views[p.Index]; ok {
			p.SetSearchTerm(v.term)
			p.SetOrder(v.order)
		}
	}
	if !maintainSelection {
		e.ledger.Clear()
	}
	e.syncServerSelections()
	events.Engine.Rebuild(maintainSelection, len(e.panes))
	e.trigger(nil)
}

// Destroy detaches the engine from its host. Later triggers and server
// arrivals are ignored.
func (e *Engine) Destroy() {
	if !e.live {
		return
	}
	e.live = false
	for _, id := range e.hostSubs {
		e.host.Unsubscribe(id)
	}
	e.hostSubs = nil
	if e.searchID != "" {
		e.host.RemoveSearch(e.searchID)
		e.searchID = ""
	}
	e.unsubscribePanes()
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, k := range a {
		seen[k] = struct{}{}
	}
	for _, k := range b {
		if _, ok := seen[k]; !ok {
			return false
		}
	}
	return true
}
